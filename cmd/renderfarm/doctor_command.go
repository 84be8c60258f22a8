package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"renderfarm/internal/config"
	"renderfarm/internal/preflight"
	"renderfarm/internal/rpc"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, farm reachability and the local renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var checker preflight.StatusChecker
			if !offline {
				dev := config.LoadDevMode(cfg.DevModePath())
				checker = rpc.NewClient(cfg.ServiceEndpoints(dev), rpc.WithTimeout(cfg.RequestTimeout()))
			}
			results := preflight.RunAll(cmd.Context(), cfg, checker)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Environment", colorize)
			for _, r := range results {
				kind := statusOK
				switch {
				case !r.Passed && r.Optional:
					kind = statusWarn
				case !r.Passed:
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the farm reachability check")
	return cmd
}
