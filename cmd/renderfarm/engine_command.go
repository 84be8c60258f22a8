package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"renderfarm/internal/core"
)

func newEngineCommand(ctx *commandContext) *cobra.Command {
	var scenePath string

	engineCmd := &cobra.Command{
		Use:   "engine",
		Short: "Switch the working scene between the farm and local rendering",
	}
	engineCmd.PersistentFlags().StringVarP(&scenePath, "scene", "s", "", "Scene file (defaults to the last one used)")

	renderEngine := func(w io.Writer, o core.Overview, colorize bool) error {
		fmt.Fprintf(w, "Render engine: %s\n", o.Workspace.Engine)
		renderAlertsOnly(w, o, colorize)
		return nil
	}

	engineCmd.AddCommand(&cobra.Command{
		Use:   "remote",
		Short: "Render on the farm",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.Request{Action: core.ActionSwitchToRemote, Params: core.SceneParams{Path: scenePath}}
			return ctx.dispatch(cmd, req, renderEngine)
		},
	})
	engineCmd.AddCommand(&cobra.Command{
		Use:   "local",
		Short: "Return to the local engine used before switching",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.Request{Action: core.ActionSwitchToLocal, Params: core.SceneParams{Path: scenePath}}
			return ctx.dispatch(cmd, req, renderEngine)
		},
	})
	return engineCmd
}
