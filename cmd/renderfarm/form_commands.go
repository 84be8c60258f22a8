package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"renderfarm/internal/core"
	"renderfarm/internal/form"
	"renderfarm/internal/scene"
)

func newFormCommand(ctx *commandContext) *cobra.Command {
	formCmd := &cobra.Command{
		Use:   "form",
		Short: "Edit the submission form",
	}

	formCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the submission form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCoreOverview(cmd, renderFormOutput)
		},
	})
	formCmd.AddCommand(newFormSetCommand(ctx))
	formCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the configured defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.dispatch(cmd, core.Request{Action: core.ActionResetForm}, renderFormOutput)
		},
	})

	var scenePath string
	copyCmd := &cobra.Command{
		Use:   "copy-scene",
		Short: "Copy resolution, frame range, fps, samples and renderer from the scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.Request{Action: core.ActionCopySceneSettings, Params: core.SceneParams{Path: scenePath}}
			return ctx.dispatch(cmd, req, renderFormOutput)
		},
	}
	copyCmd.Flags().StringVarP(&scenePath, "scene", "s", "", "Scene file (defaults to the last one used)")
	formCmd.AddCommand(copyCmd)

	formCmd.AddCommand(&cobra.Command{
		Use:       "renderer <default|physical>",
		Short:     "Choose the renderer",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"default", "physical"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var action core.Action
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "default", string(form.RendererDefault):
				action = core.ActionUseDefaultRenderer
			case "physical", "physically-based", string(form.RendererPhysical):
				action = core.ActionUsePhysicalRenderer
			default:
				return fmt.Errorf("unknown renderer %q (want default or physical)", args[0])
			}
			return ctx.dispatch(cmd, core.Request{Action: action}, renderFormOutput)
		},
	})

	return formCmd
}

func newFormSetCommand(ctx *commandContext) *cobra.Command {
	var values struct {
		title, short, long, url, format, inputLicense, outputLicense, renderer string
		tags                                                                   []string
		frameStart, frameEnd, resX, resY, fps, memory, parts, samples, sub     int
	}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change form fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			edit := func(f *form.Form) error {
				if flags.Changed("title") {
					f.Title = strings.TrimSpace(values.title)
				}
				if flags.Changed("short") {
					f.ShortDescription = strings.TrimSpace(values.short)
				}
				if flags.Changed("long") {
					f.LongDescription = strings.TrimSpace(values.long)
				}
				if flags.Changed("tags") {
					f.Tags = values.tags
				}
				if flags.Changed("url") {
					f.ProjectURL = strings.TrimSpace(values.url)
				}
				ints := []struct {
					name   string
					target *int
					value  int
				}{
					{"frame-start", &f.FrameStart, values.frameStart},
					{"frame-end", &f.FrameEnd, values.frameEnd},
					{"resolution-x", &f.ResolutionX, values.resX},
					{"resolution-y", &f.ResolutionY, values.resY},
					{"fps", &f.FPS, values.fps},
					{"memory", &f.MemoryLimit, values.memory},
					{"parts", &f.Parts, values.parts},
					{"samples", &f.Samples, values.samples},
					{"sub-samples", &f.SubSamples, values.sub},
				}
				for _, field := range ints {
					if flags.Changed(field.name) {
						*field.target = field.value
					}
				}
				if flags.Changed("format") {
					format, err := scene.ParseFrameFormat(values.format)
					if err != nil {
						return err
					}
					f.FrameFormat = format
				}
				if flags.Changed("renderer") {
					r, err := form.ParseRenderer(values.renderer)
					if err != nil {
						return err
					}
					f.Renderer = r
				}
				if flags.Changed("input-license") {
					l, err := form.ParseLicense(values.inputLicense)
					if err != nil {
						return err
					}
					f.InputLicense = l
				}
				if flags.Changed("output-license") {
					l, err := form.ParseLicense(values.outputLicense)
					if err != nil {
						return err
					}
					f.OutputLicense = l
				}
				if f.FrameEnd < f.FrameStart {
					return fmt.Errorf("frame end %d is before frame start %d", f.FrameEnd, f.FrameStart)
				}
				f.NormalizeSubSamples()
				return nil
			}
			return ctx.withCore(cmd, func(runCtx context.Context, rf *core.Core) error {
				if err := rf.UpdateForm(runCtx, edit); err != nil {
					return err
				}
				o, err := rf.Overview(runCtx)
				if err != nil {
					return err
				}
				return renderFormOutput(cmd.OutOrStdout(), o, false)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&values.title, "title", "", "Session title")
	f.StringVar(&values.short, "short", "", "Short description")
	f.StringVar(&values.long, "long", "", "Long description")
	f.StringSliceVar(&values.tags, "tags", nil, "Comma-separated tags")
	f.StringVar(&values.url, "url", "", "Project URL")
	f.IntVar(&values.frameStart, "frame-start", 0, "First frame")
	f.IntVar(&values.frameEnd, "frame-end", 0, "Last frame")
	f.IntVar(&values.resX, "resolution-x", 0, "Horizontal resolution")
	f.IntVar(&values.resY, "resolution-y", 0, "Vertical resolution")
	f.IntVar(&values.fps, "fps", 0, "Frame rate")
	f.IntVar(&values.memory, "memory", 0, "Memory hint in MB")
	f.IntVar(&values.parts, "parts", 0, "Parts per frame")
	f.IntVar(&values.samples, "samples", 0, "Sample count")
	f.IntVar(&values.sub, "sub-samples", 0, "Sub-sample count")
	f.StringVar(&values.format, "format", "", "Frame format (png, exr, multilayer)")
	f.StringVar(&values.renderer, "renderer", "", "Renderer (blender or cycles)")
	f.StringVar(&values.inputLicense, "input-license", "", "License of the uploaded scene")
	f.StringVar(&values.outputLicense, "output-license", "", "License of the rendered frames")
	return cmd
}

func renderFormOutput(w io.Writer, o core.Overview, colorize bool) error {
	fmt.Fprintln(w, renderForm(o.Form))
	renderAlertsOnly(w, o, colorize)
	return nil
}

func renderForm(f form.Form) string {
	orNone := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	}
	rows := [][]string{
		{"Title", orNone(f.Title)},
		{"Short description", orNone(f.ShortDescription)},
		{"Long description", orNone(f.LongDescription)},
		{"Tags", orNone(strings.Join(f.Tags, ", "))},
		{"Project URL", orNone(f.ProjectURL)},
		{"Frames", fmt.Sprintf("%d-%d", f.FrameStart, f.FrameEnd)},
		{"Resolution", fmt.Sprintf("%dx%d", f.ResolutionX, f.ResolutionY)},
		{"FPS", strconv.Itoa(f.FPS)},
		{"Memory (MB)", strconv.Itoa(f.MemoryLimit)},
		{"Parts", strconv.Itoa(f.Parts)},
		{"Renderer", string(f.Renderer)},
		{"Samples", fmt.Sprintf("%d / %d sub", f.Samples, f.SubSamples)},
		{"Frame format", orNone(string(f.FrameFormat))},
		{"Input license", f.InputLicense.String()},
		{"Output license", f.OutputLicense.String()},
	}
	return renderTable("Submission form", []string{"Field", "Value"}, rows, nil)
}
