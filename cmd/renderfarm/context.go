package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"renderfarm/internal/config"
	"renderfarm/internal/core"
	"renderfarm/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// coreOptions are appended when opening the core; tests use them to
	// swap the process runner.
	coreOptions []core.Option
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// logger writes JSON lines to the log file, and console output to stderr
// when --verbose is set.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	var writer io.Writer = io.Discard
	if c.verbose() {
		writer = cmd.ErrOrStderr()
	}
	return logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Writer:   writer,
		FilePath: cfg.LogPath(),
	})
}

// withCore opens the core for the duration of fn.
func (c *commandContext) withCore(cmd *cobra.Command, fn func(context.Context, *core.Core) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := append([]core.Option{core.WithLogger(logger)}, c.coreOptions...)
	rf, err := core.Open(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rf.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close state: %w", closeErr)
		}
	}()
	return fn(ctx, rf)
}

// overviewRenderer prints an overview; colorize is set for terminals.
type overviewRenderer func(w io.Writer, o core.Overview, colorize bool) error

// dispatch runs one action and prints the overview that follows it. The
// action's error takes precedence over a rendering error.
func (c *commandContext) dispatch(cmd *cobra.Command, req core.Request, render overviewRenderer) error {
	return c.withCore(cmd, func(ctx context.Context, rf *core.Core) error {
		actionErr := rf.Dispatch(ctx, req)
		if render == nil {
			return actionErr
		}
		overview, err := rf.Overview(ctx)
		if err != nil {
			return err
		}
		renderErr := render(cmd.OutOrStdout(), overview, shouldColorize(cmd.OutOrStdout()))
		if actionErr != nil {
			return actionErr
		}
		return renderErr
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// withCoreOverview renders the overview without running an action.
func (c *commandContext) withCoreOverview(cmd *cobra.Command, render overviewRenderer) error {
	return c.withCore(cmd, func(ctx context.Context, rf *core.Core) error {
		overview, err := rf.Overview(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), overview, shouldColorize(cmd.OutOrStdout()))
	})
}
