package prepare

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"renderfarm/internal/form"
	"renderfarm/internal/logging"
	"renderfarm/internal/scene"
	"renderfarm/internal/textutil"
)

// DerivedSuffix is appended to a saved scene's path to name the upload copy.
const DerivedSuffix = "_renderfarm.blend"

var autosaveNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://renderfarm.fi/autosave"))

var unsupportedSimulations = map[string]struct{}{
	"SOFT_BODY":        {},
	"COLLISION":        {},
	"CLOTH":            {},
	"SMOKE":            {},
	"FLUID":            {},
	"FLUID_SIMULATION": {},
}

// Result is the outcome of one preparation run.
type Result struct {
	Report Report
	// Path is the derived file that was written.
	Path string
	// SaveErr is set when the derived file could not be written.
	SaveErr error
}

// Pipeline prepares scenes for submission.
type Pipeline struct {
	autosaveDir string
	logger      *slog.Logger
}

// New builds a Pipeline that places unsaved scenes under autosaveDir.
func New(autosaveDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		autosaveDir: autosaveDir,
		logger:      logging.NewComponentLogger(logger, "prepare"),
	}
}

// Run mutates the host's working scene and f into their submission-ready
// form and saves the scene to its derived path.
func (p *Pipeline) Run(ctx context.Context, host scene.Host, f *form.Form) Result {
	var res Result
	doc := host.Document()
	logger := logging.WithContext(ctx, p.logger)

	coerceSettings(doc, f, &res.Report)
	if clampPartsForSubsurface(doc, f) {
		logger.Info("part count clamped to 1 for sub-surface scattering materials")
	}
	tuneParticles(doc, &res.Report)

	if err := host.PackImages(); err != nil {
		res.Report.raise(FlagAssetPackFailed)
		logging.WarnWithContext(logger, "asset packing failed", "asset_pack_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "unpacked textures will be missing on the farm"))
	}

	if doc.HasLinkedData() {
		if err := host.MakeLocal(); err != nil {
			res.Report.raise(FlagLinkedFlattenFailed)
			logging.WarnWithContext(logger, "linked data flatten failed", "linked_flatten_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "linked datablocks may be missing on the farm"))
		}
	}

	res.Path = DerivedPath(host.Path(), p.autosaveDir, doc.Name)
	if err := host.SaveCopy(res.Path); err != nil {
		res.SaveErr = fmt.Errorf("save derived scene %s: %w", res.Path, err)
		logging.ErrorWithContext(logger, "derived scene save failed", "derived_save_failed", logging.Error(err))
		return res
	}

	logger.Info("scene prepared",
		logging.String("derived_path", res.Path),
		logging.String("report", res.Report.String()))
	return res
}

// DerivedPath is original+DerivedSuffix for saved scenes, otherwise a
// deterministic file under autosaveDir derived from the scene name.
func DerivedPath(original, autosaveDir, sceneName string) string {
	if strings.TrimSpace(original) != "" {
		return original + DerivedSuffix
	}
	name := strings.TrimSpace(sceneName)
	id := uuid.NewSHA1(autosaveNamespace, []byte(name))
	return filepath.Join(autosaveDir, fmt.Sprintf("untitled-%s-%s.blend", textutil.SanitizeToken(name), id))
}

func coerceSettings(doc *scene.Document, f *form.Form, report *Report) {
	r := &doc.Render
	r.ResolutionX = f.ResolutionX
	r.ResolutionY = f.ResolutionY
	r.FrameStart = f.FrameStart
	r.FrameEnd = f.FrameEnd
	r.FPS = f.FPS

	format := r.FileFormat
	if format == "" {
		format = f.FrameFormat
	}
	if _, ok := format.Wire(); !ok {
		format = scene.FormatPNG
		report.raise(FlagFrameFormatCoerced)
	}
	r.FileFormat = format
	f.FrameFormat = format

	r.Engine = f.Renderer.Engine()
	f.NormalizeSubSamples()
	if f.Renderer == form.RendererPhysical {
		r.Samples = f.Samples
	}
}

func clampPartsForSubsurface(doc *scene.Document, f *form.Form) bool {
	if f.Parts <= 1 {
		return false
	}
	for _, m := range doc.Materials {
		if m.Subsurface {
			f.Parts = 1
			return true
		}
	}
	return false
}

func tuneParticles(doc *scene.Document, report *Report) {
	for i := range doc.Objects {
		obj := &doc.Objects[i]
		for _, mod := range obj.Modifiers {
			if _, ok := unsupportedSimulations[strings.ToUpper(mod.Type)]; ok {
				report.raise(FlagUnsupportedSimulation)
			}
		}
		for j := range obj.ParticleSystems {
			ps := &obj.ParticleSystems[j]
			switch strings.ToUpper(ps.Type) {
			case scene.ParticleEmitter:
				report.raise(FlagEmitterNeedsBaking)
			case scene.ParticleHair:
				if strings.ToUpper(ps.ChildType) == scene.ChildSimple {
					ps.ChildType = scene.ChildInterpolated
					report.raise(FlagChildModeRewritten)
				}
			}
		}
	}
}
