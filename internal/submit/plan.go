package submit

import (
	"strings"

	"renderfarm/internal/form"
	"renderfarm/internal/rpc"
	"renderfarm/internal/scene"
)

// Step is one session.set<Param> call.
type Step struct {
	Param rpc.Param
	Value any
}

type setter struct {
	param rpc.Param
	value func(f *form.Form, fileID int64) (any, bool)
}

func always(fn func(f *form.Form) any) func(*form.Form, int64) (any, bool) {
	return func(f *form.Form, _ int64) (any, bool) { return fn(f), true }
}

var setters = [...]setter{
	{rpc.ParamTitle, always(func(f *form.Form) any { return f.Title })},
	{rpc.ParamLongDescription, always(func(f *form.Form) any { return f.LongDescription })},
	{rpc.ParamShortDescription, always(func(f *form.Form) any { return f.ShortDescription })},
	{rpc.ParamExternalURLs, func(f *form.Form, _ int64) (any, bool) {
		url := strings.TrimSpace(f.ProjectURL)
		return url, url != ""
	}},
	{rpc.ParamStartFrame, always(func(f *form.Form) any { return f.FrameStart })},
	{rpc.ParamEndFrame, always(func(f *form.Form) any { return f.FrameEnd })},
	{rpc.ParamSplit, always(func(f *form.Form) any { return f.Parts })},
	{rpc.ParamMemoryLimit, always(func(f *form.Form) any { return f.MemoryLimit })},
	{rpc.ParamXSize, always(func(f *form.Form) any { return f.ResolutionX })},
	{rpc.ParamYSize, always(func(f *form.Form) any { return f.ResolutionY })},
	{rpc.ParamFrameRate, always(func(f *form.Form) any { return f.FPS })},
	{rpc.ParamFrameFormat, always(func(f *form.Form) any { return wireFormat(f.FrameFormat) })},
	{rpc.ParamRenderer, always(func(f *form.Form) any { return string(f.Renderer) })},
	{rpc.ParamSamples, always(func(f *form.Form) any { return f.Samples })},
	{rpc.ParamSubSamples, always(func(f *form.Form) any { return f.SubSamples })},
	{rpc.ParamReplication, always(func(f *form.Form) any { return replication(f.Renderer) })},
	{rpc.ParamStitcher, func(f *form.Form, _ int64) (any, bool) {
		return StitcherAverage, f.Renderer == form.RendererPhysical && f.SubSamples > 1
	}},
	{rpc.ParamOutputLicense, always(func(f *form.Form) any { return int(f.OutputLicense) })},
	{rpc.ParamInputLicense, always(func(f *form.Form) any { return int(f.InputLicense) })},
	{rpc.ParamPrimaryInputFile, func(_ *form.Form, fileID int64) (any, bool) { return fileID, true }},
}

// StitcherAverage combines sub-sample passes by averaging them.
const StitcherAverage = "AVERAGE"

// Plan returns the parameter calls for f in the order the server expects.
// Optional parameters are left out when they do not apply.
func Plan(f form.Form, fileID int64) []Step {
	steps := make([]Step, 0, len(setters))
	for _, s := range setters {
		if v, ok := s.value(&f, fileID); ok {
			steps = append(steps, Step{Param: s.param, Value: v})
		}
	}
	return steps
}

func replication(r form.Renderer) int {
	if r == form.RendererPhysical {
		return 1
	}
	return 3
}

func wireFormat(f scene.FrameFormat) string {
	if wire, ok := f.Wire(); ok {
		return wire
	}
	wire, _ := scene.FormatPNG.Wire()
	return wire
}
