package main

import (
	"github.com/spf13/cobra"

	"renderfarm/internal/core"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the farm status and show the current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if offline {
				return ctx.withCoreOverview(cmd, renderOverview)
			}
			return ctx.dispatch(cmd, core.Request{Action: core.ActionCheckStatus}, renderOverview)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the stored state without contacting the farm")
	return cmd
}
