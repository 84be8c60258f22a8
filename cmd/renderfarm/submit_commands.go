package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"renderfarm/internal/core"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var scenePath string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Prepare the scene, upload it and submit a render session",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.Request{Action: core.ActionSubmit, Params: core.SceneParams{Path: scenePath}}
			return ctx.dispatch(cmd, req, func(w io.Writer, o core.Overview, colorize bool) error {
				if err := renderOverview(w, o, colorize); err != nil {
					return err
				}
				if len(o.Sessions) > 0 {
					fmt.Fprintln(w, renderSessions(o))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "Scene file (defaults to the last one used)")
	return cmd
}

func newTestRenderCommand(ctx *commandContext) *cobra.Command {
	var scenePath string

	cmd := &cobra.Command{
		Use:   "test-render",
		Short: "Prepare the scene and render one frame locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.Request{Action: core.ActionLocalTestRender, Params: core.SceneParams{Path: scenePath}}
			err := ctx.dispatch(cmd, req, renderPreparation)
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Local test render finished")
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "Scene file (defaults to the last one used)")
	return cmd
}

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var scenePath string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Run scene preparation only and report what it changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCore(cmd, func(runCtx context.Context, rf *core.Core) error {
				res, prepErr := rf.Prepare(runCtx, core.SceneParams{Path: scenePath})
				o, err := rf.Overview(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Path != "" && prepErr == nil {
					fmt.Fprintf(out, "Derived scene: %s\n", res.Path)
				}
				if err := renderPreparation(out, o, shouldColorize(out)); err != nil {
					return err
				}
				return prepErr
			})
		},
	}
	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "Scene file (defaults to the last one used)")
	return cmd
}

func renderPreparation(w io.Writer, o core.Overview, colorize bool) error {
	if len(o.Warnings) == 0 {
		fmt.Fprintln(w, renderStatusLine("Preparation", statusOK, "No warnings", colorize))
	}
	for _, warning := range o.Warnings {
		fmt.Fprintln(w, renderStatusLine("Warning", statusWarn, warning, colorize))
	}
	renderAlertsOnly(w, o, colorize)
	return nil
}
