package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"renderfarm/internal/deps"
	"renderfarm/internal/form"
	"renderfarm/internal/logging"
	"renderfarm/internal/prepare"
	"renderfarm/internal/scene"
	"renderfarm/internal/services"
)

// openScene loads the working scene and applies the engine selection to it.
func (c *Core) openScene(p SceneParams) (*scene.FileHost, error) {
	var host *scene.FileHost
	switch {
	case p.Unsaved != nil:
		doc := *p.Unsaved
		host = scene.NewUnsaved(&doc)
	default:
		path := strings.TrimSpace(p.Path)
		if path == "" {
			path = c.workspace.ScenePath
		}
		if path == "" {
			return nil, services.Wrap(services.ErrInfoMissing, "core", "open scene", "no scene selected", nil)
		}
		opened, err := scene.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open scene: %w", err)
		}
		host = opened
		c.workspace.ScenePath = opened.Path()
	}
	if c.workspace.Engine != "" {
		host.Document().Render.Engine = c.workspace.Engine
	}
	return host, nil
}

func (c *Core) doSubmit(ctx context.Context, p SceneParams) error {
	host, err := c.openScene(p)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, c.logger)
	c.noteEngine(host.Document().Render.Engine)

	out, err := c.coordinator.Submit(ctx, host, &c.form, c.record)
	if out.Prepared {
		c.report = out.Report
	}
	c.noteEngine(host.Document().Render.Engine)
	if out.Credentials.UserID != 0 {
		c.remember(out.Credentials)
	}
	if saveErr := c.persist(ctx); saveErr != nil {
		logger.Warn("persist after submit failed", logging.Error(saveErr))
	}
	if err != nil {
		return err
	}

	c.settle(ctx, services.KindTransport, services.KindAuthentication)
	logger.Info("submission complete",
		logging.Int64("session_id", out.SessionID),
		logging.String("derived_path", out.DerivedPath),
		logging.Int("warnings", len(out.Report.Warnings())))
	if out.RefreshErr != nil {
		c.raise(ctx, out.RefreshErr)
	}
	return nil
}

// Prepare runs the preparation pipeline on the scene without submitting it.
// The form is left untouched.
func (c *Core) Prepare(ctx context.Context, p SceneParams) (prepare.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.prepareCopy(ctx, p)
	if err != nil {
		return res, c.raise(ctx, err)
	}
	return res, nil
}

func (c *Core) prepareCopy(ctx context.Context, p SceneParams) (prepare.Result, error) {
	host, err := c.openScene(p)
	if err != nil {
		return prepare.Result{}, err
	}
	f := c.form
	res := c.pipeline.Run(ctx, host, &f)
	c.report = res.Report
	if err := c.store.SaveReport(ctx, c.report); err != nil {
		return res, err
	}
	if res.SaveErr != nil {
		return res, fmt.Errorf("prepare scene: %w", res.SaveErr)
	}
	return res, nil
}

func (c *Core) doTestRender(ctx context.Context, p SceneParams) error {
	res, err := c.prepareCopy(ctx, p)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, c.logger)

	req := deps.Requirements(c.cfg)[0]
	binary, err := deps.Resolve(req)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "core", "test render", "local renderer unavailable", err)
	}
	args := renderArgs(c.cfg.LocalRender.Args, res.Path, c.cfg.LocalRender.Frame)
	logger.Info("local test render starting",
		logging.String("command", binary),
		logging.String("file", res.Path),
		logging.Int("frame", c.cfg.LocalRender.Frame))

	output, err := c.runner.Run(ctx, binary, args...)
	if err != nil {
		return fmt.Errorf("local test render: %w: %s", err, tail(output, 400))
	}
	logger.Info("local test render finished", logging.Int("output_bytes", len(output)))
	return nil
}

// renderArgs substitutes the {file} and {frame} placeholders.
func renderArgs(args []string, file string, frame int) []string {
	out := make([]string, 0, len(args))
	replacer := strings.NewReplacer("{file}", file, "{frame}", strconv.Itoa(frame))
	for _, arg := range args {
		out = append(out, replacer.Replace(arg))
	}
	return out
}

func tail(output []byte, limit int) string {
	s := strings.TrimSpace(string(output))
	if len(s) > limit {
		s = "..." + s[len(s)-limit:]
	}
	return s
}

func (c *Core) doResetForm(ctx context.Context) error {
	c.form = form.Default(c.cfg.Submission)
	return c.store.SaveForm(ctx, c.form)
}

func (c *Core) useRenderer(ctx context.Context, physical bool) error {
	c.form.Renderer = form.RendererDefault
	if physical {
		c.form.Renderer = form.RendererPhysical
	}
	return c.store.SaveForm(ctx, c.form)
}

func (c *Core) doCopySceneSettings(ctx context.Context, p SceneParams) error {
	host, err := c.openScene(p)
	if err != nil {
		return err
	}
	c.form.CopySceneSettings(host.Document().Render)
	if err := c.store.SaveWorkspace(ctx, c.workspace); err != nil {
		return err
	}
	return c.store.SaveForm(ctx, c.form)
}

// UpdateForm applies edit to a copy of the form and keeps it when edit
// succeeds.
func (c *Core) UpdateForm(ctx context.Context, edit func(*form.Form) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.form
	next.Tags = append([]string(nil), c.form.Tags...)
	if err := edit(&next); err != nil {
		return c.raise(ctx, services.Wrap(services.ErrInfoMissing, "core", "update form", "", err))
	}
	c.form = next
	return c.store.SaveForm(ctx, c.form)
}

// switchEngine selects the remote engine or returns to the local one. The
// scene is optional; without one the recorded selection is used.
func (c *Core) switchEngine(ctx context.Context, p SceneParams, remote bool) error {
	current := c.workspace.Engine
	if p.Unsaved != nil || strings.TrimSpace(p.Path) != "" || c.workspace.ScenePath != "" {
		host, err := c.openScene(p)
		if err != nil {
			return err
		}
		current = host.Document().Render.Engine
	}
	if remote {
		c.noteEngine(current)
		c.workspace.Engine = scene.EngineRemote
	} else {
		c.workspace.Engine = c.workspace.LocalEngine
		if current != "" && current != scene.EngineRemote {
			c.workspace.Engine = current
		}
		if c.workspace.Engine == "" {
			c.workspace.Engine = scene.EngineInternal
		}
	}
	logging.WithContext(ctx, c.logger).Info("render engine selected", logging.String("engine", c.workspace.Engine))
	return c.store.SaveWorkspace(ctx, c.workspace)
}

// noteEngine records engine as the working engine, remembering the last
// local engine it replaces.
func (c *Core) noteEngine(engine string) {
	if engine != "" && engine != scene.EngineRemote {
		c.workspace.LocalEngine = engine
	}
	if engine != "" {
		c.workspace.Engine = engine
	}
}
