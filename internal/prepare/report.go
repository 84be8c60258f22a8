package prepare

import (
	"strings"

	"renderfarm/internal/services"
)

// Flag is one preparation finding.
type Flag uint8

const (
	FlagAssetPackFailed Flag = 1 << iota
	FlagLinkedFlattenFailed
	FlagUnsupportedSimulation
	FlagEmitterNeedsBaking
	FlagChildModeRewritten
	FlagFrameFormatCoerced
)

var allFlags = []Flag{
	FlagAssetPackFailed,
	FlagLinkedFlattenFailed,
	FlagUnsupportedSimulation,
	FlagEmitterNeedsBaking,
	FlagChildModeRewritten,
	FlagFrameFormatCoerced,
}

func (f Flag) String() string {
	switch f {
	case FlagAssetPackFailed:
		return "asset-pack-failed"
	case FlagLinkedFlattenFailed:
		return "linked-data-flatten-failed"
	case FlagUnsupportedSimulation:
		return "unsupported-simulation-present"
	case FlagEmitterNeedsBaking:
		return "emitter-particles-need-baking"
	case FlagChildModeRewritten:
		return "child-particle-mode-rewritten"
	case FlagFrameFormatCoerced:
		return "frame-format-coerced"
	}
	return "unknown"
}

func (f Flag) warning() string {
	switch f {
	case FlagAssetPackFailed:
		return "Could not pack all external images into the scene file; missing textures will render incorrectly."
	case FlagLinkedFlattenFailed:
		return "Could not make linked data local; objects from linked scene files may be missing."
	case FlagUnsupportedSimulation:
		return "The scene uses soft body, collision, cloth, smoke or fluid simulations, which the farm does not support."
	case FlagEmitterNeedsBaking:
		return "Emitter particle systems must be baked before submitting."
	case FlagChildModeRewritten:
		return "Simple child particles were switched to interpolated children."
	case FlagFrameFormatCoerced:
		return "HDR output is not supported by the farm; the frame format was set to PNG."
	}
	return ""
}

// Report is the set of flags raised by one preparation run.
type Report struct {
	Flags Flag `json:"flags"`
}

// Has reports whether flag f was raised.
func (r Report) Has(f Flag) bool {
	return r.Flags&f != 0
}

// Empty reports whether the run raised nothing.
func (r Report) Empty() bool {
	return r.Flags == 0
}

func (r *Report) raise(f Flag) {
	r.Flags |= f
}

// Names lists raised flags in a stable order.
func (r Report) Names() []string {
	var out []string
	for _, f := range allFlags {
		if r.Has(f) {
			out = append(out, f.String())
		}
	}
	return out
}

// Warnings returns the user-facing text for every raised flag.
func (r Report) Warnings() []string {
	var out []string
	for _, f := range allFlags {
		if r.Has(f) {
			out = append(out, f.warning())
		}
	}
	return out
}

// Err returns nil for a clean report and otherwise a preparation-warning
// error naming every raised flag.
func (r Report) Err() error {
	if r.Empty() {
		return nil
	}
	return services.Wrap(services.ErrPreparation, "prepare", "report", r.String(), nil)
}

func (r Report) String() string {
	if r.Empty() {
		return "clean"
	}
	return strings.Join(r.Names(), ",")
}
