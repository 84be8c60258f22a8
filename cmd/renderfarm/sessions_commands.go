package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"renderfarm/internal/core"
	"renderfarm/internal/sessions"
	"renderfarm/internal/textutil"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse and manage farm sessions",
	}
	sessionsCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print sessions as JSON")

	render := func(cmd *cobra.Command) overviewRenderer {
		return func(w io.Writer, o core.Overview, colorize bool) error {
			if jsonOutput {
				return writeJSON(cmd, sessionRows(o))
			}
			fmt.Fprintln(w, renderSessions(o))
			renderAlertsOnly(w, o, colorize)
			return nil
		}
	}

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch every session from the farm",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.dispatch(cmd, core.Request{Action: core.ActionRefresh}, render(cmd))
		},
	})

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cached session catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCoreOverview(cmd, render(cmd))
		},
	})

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "select <number>",
		Short: "Select a session by its number in the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || n < 1 {
				return fmt.Errorf("invalid session number %q", args[0])
			}
			return ctx.withCore(cmd, func(runCtx context.Context, rf *core.Core) error {
				if _, err := rf.SelectIndex(runCtx, n-1); err != nil {
					return err
				}
				o, err := rf.Overview(runCtx)
				if err != nil {
					return err
				}
				return render(cmd)(cmd.OutOrStdout(), o, shouldColorize(cmd.OutOrStdout()))
			})
		},
	})

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "show <all|pending|rendering|completed|cancelled>",
		Short: "Filter the list to one stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := sessions.ParseView(args[0])
			if err != nil {
				return err
			}
			stage, filtered := view.Stage()
			if !filtered {
				return ctx.withCore(cmd, func(runCtx context.Context, rf *core.Core) error {
					if err := rf.ShowAll(runCtx); err != nil {
						return err
					}
					o, err := rf.Overview(runCtx)
					if err != nil {
						return err
					}
					return render(cmd)(cmd.OutOrStdout(), o, shouldColorize(cmd.OutOrStdout()))
				})
			}
			return ctx.dispatch(cmd, core.Request{Action: stageAction(stage)}, render(cmd))
		},
	})

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Cancel the selected session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.dispatch(cmd, core.Request{Action: core.ActionCancelSelected}, render(cmd))
		},
	})

	return sessionsCmd
}

func stageAction(stage sessions.Stage) core.Action {
	switch stage {
	case sessions.StagePending:
		return core.ActionSelectPending
	case sessions.StageRendering:
		return core.ActionSelectRendering
	case sessions.StageCompleted:
		return core.ActionSelectCompleted
	default:
		return core.ActionSelectCancelled
	}
}

type sessionRow struct {
	Number         int    `json:"number"`
	Selected       bool   `json:"selected"`
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Stage          string `json:"stage"`
	FrameStart     int64  `json:"frame_start"`
	FrameEnd       int64  `json:"frame_end"`
	FramesRendered int64  `json:"frames_rendered"`
	Percent        int    `json:"percent_complete"`
	Label          string `json:"label"`
}

func sessionRows(o core.Overview) []sessionRow {
	rows := make([]sessionRow, 0, len(o.Sessions))
	for _, e := range o.Sessions {
		rows = append(rows, sessionRow{
			Number:         e.Index + 1,
			Selected:       o.HasSelected && e.Index == o.Selected,
			ID:             e.ID,
			Title:          e.Title,
			Stage:          e.Stage.String(),
			FrameStart:     e.FrameStart,
			FrameEnd:       e.FrameEnd,
			FramesRendered: e.FramesRendered,
			Percent:        e.Percent(),
			Label:          e.Label,
		})
	}
	return rows
}

func renderSessions(o core.Overview) string {
	if len(o.Sessions) == 0 {
		if o.RefreshedAt.IsZero() {
			return "No sessions loaded; run `renderfarm sessions refresh`"
		}
		return fmt.Sprintf("No %s sessions", o.View)
	}
	rows := make([][]string, 0, len(o.Sessions))
	for _, r := range sessionRows(o) {
		marker := ""
		if r.Selected {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			strconv.Itoa(r.Number),
			strconv.FormatInt(r.ID, 10),
			r.Title,
			textutil.Title(r.Stage),
			fmt.Sprintf("%d-%d", r.FrameStart, r.FrameEnd),
			fmt.Sprintf("%d%%", r.Percent),
		})
	}
	title := fmt.Sprintf("Sessions (%s)", o.View)
	return renderTable(title,
		[]string{"", "#", "ID", "Title", "Stage", "Frames", "Done"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight})
}
