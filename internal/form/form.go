package form

import (
	"fmt"
	"strings"

	"renderfarm/internal/config"
	"renderfarm/internal/credentials"
	"renderfarm/internal/scene"
	"renderfarm/internal/services"
)

// Form is the submission parameter record.
type Form struct {
	Title            string            `json:"title"`
	ShortDescription string            `json:"short_description"`
	LongDescription  string            `json:"long_description"`
	Tags             []string          `json:"tags,omitempty"`
	ProjectURL       string            `json:"project_url,omitempty"`
	FrameStart       int               `json:"frame_start"`
	FrameEnd         int               `json:"frame_end"`
	ResolutionX      int               `json:"resolution_x"`
	ResolutionY      int               `json:"resolution_y"`
	FPS              int               `json:"fps"`
	MemoryLimit      int               `json:"memory_limit"`
	Parts            int               `json:"parts"`
	Renderer         Renderer          `json:"renderer"`
	Samples          int               `json:"samples"`
	SubSamples       int               `json:"sub_samples"`
	FrameFormat      scene.FrameFormat `json:"frame_format"`
	InputLicense     License           `json:"input_license"`
	OutputLicense    License           `json:"output_license"`
}

// Default returns a fresh form seeded from the submission config.
func Default(cfg config.Submission) Form {
	f := Form{
		FrameStart:  1,
		FrameEnd:    250,
		ResolutionX: 1920,
		ResolutionY: 1080,
		FPS:         24,
		MemoryLimit: cfg.MemoryLimit,
		Parts:       cfg.Parts,
		Samples:     cfg.Samples,
		SubSamples:  cfg.SubSamples,
		FrameFormat: scene.FormatPNG,
		Renderer:    RendererDefault,
	}
	if r, err := ParseRenderer(cfg.Renderer); err == nil {
		f.Renderer = r
	}
	f.OutputLicense = LicenseCCBYSA
	if l, err := ParseLicense(cfg.OutputLicense); err == nil {
		f.OutputLicense = l
	}
	f.InputLicense = LicenseCCBYSA
	if l, err := ParseLicense(cfg.InputLicense); err == nil {
		f.InputLicense = l
	}
	return f
}

// CopySceneSettings pulls resolution, frame range, fps, samples, output
// format and renderer from the scene's render record.
func (f *Form) CopySceneSettings(r scene.Render) {
	if r.ResolutionX > 0 {
		f.ResolutionX = r.ResolutionX
	}
	if r.ResolutionY > 0 {
		f.ResolutionY = r.ResolutionY
	}
	f.FrameStart = r.FrameStart
	f.FrameEnd = r.FrameEnd
	if r.FPS > 0 {
		f.FPS = r.FPS
	}
	if r.Samples > 0 {
		f.Samples = r.Samples
	}
	if r.FileFormat != "" {
		f.FrameFormat = r.FileFormat
	}
	if r.Engine == scene.EngineCycles || r.Engine == scene.EngineInternal {
		f.Renderer = RendererForEngine(r.Engine)
	}
}

// NormalizeSubSamples applies the sub-sample rules: a non-positive count
// becomes 1, and when fewer than 100 samples fall on each sub-sample the
// count is raised to samples/100 (never below 1). It reports whether the
// value changed.
func (f *Form) NormalizeSubSamples() bool {
	before := f.SubSamples
	if f.SubSamples <= 0 {
		f.SubSamples = 1
	}
	if f.Samples/f.SubSamples < 100 {
		f.SubSamples = max(1, f.Samples/100)
	}
	return before != f.SubSamples
}

// Validate checks the fields that must be filled before submitting.
func (f Form) Validate(creds credentials.Record) error {
	var missing []string
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(f.ShortDescription) == "" {
		missing = append(missing, "short description")
	}
	if strings.TrimSpace(f.LongDescription) == "" {
		missing = append(missing, "long description")
	}
	if creds.Empty() {
		missing = append(missing, "credentials")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrInfoMissing, "form", "validate",
			fmt.Sprintf("missing %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}
