package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"renderfarm/internal/core"
	"renderfarm/internal/textutil"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderOverview prints account, farm, alert and preparation sections.
func renderOverview(w io.Writer, o core.Overview, colorize bool) error {
	var lines []string
	lines = append(lines, renderSectionHeader("Account", colorize)...)
	if o.NeedsLogin() {
		msg := "Not logged in; run `renderfarm login`"
		if o.User != "" {
			msg = fmt.Sprintf("%s is not logged in; run `renderfarm login`", o.User)
		}
		lines = append(lines, renderStatusLine("User", statusWarn, msg, colorize))
	} else {
		lines = append(lines, renderStatusLine("User", statusOK,
			fmt.Sprintf("%s (id %d)", o.Login.User, o.Login.UserID), colorize))
	}
	if o.Dev.DeveloperMode {
		lines = append(lines, renderStatusLine("Developer mode", statusInfo, "Using the developer host", colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Farm", colorize)...)
	lines = append(lines, farmStatusLine(o, colorize))
	if motd := strings.TrimSpace(o.Status.Motd); motd != "" {
		lines = append(lines, renderStatusLine("Message", statusInfo, motd, colorize))
	}

	if len(o.Alerts) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Alerts", colorize)...)
		for _, alert := range o.Alerts {
			kind := statusError
			if alert.Transient() {
				kind = statusWarn
			}
			lines = append(lines, renderStatusLine(textutil.Title(string(alert.Kind)), kind, alert.Message, colorize))
		}
	}

	if len(o.Warnings) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Preparation", colorize)...)
		for _, warning := range o.Warnings {
			lines = append(lines, renderStatusLine("Warning", statusWarn, warning, colorize))
		}
	}

	fmt.Fprintln(w, strings.Join(lines, "\n"))
	return nil
}

func farmStatusLine(o core.Overview, colorize bool) string {
	switch {
	case o.Status.CheckedAt.IsZero():
		return renderStatusLine("Status", statusInfo, "Not checked; run `renderfarm status`", colorize)
	case o.Status.Error != "":
		return renderStatusLine("Status", statusError, o.Status.Error, colorize)
	case o.Status.Accepting:
		return renderStatusLine("Status", statusOK, "Accepting sessions"+checkedSuffix(o.Status.CheckedAt), colorize)
	default:
		return renderStatusLine("Status", statusWarn, "Not accepting sessions"+checkedSuffix(o.Status.CheckedAt), colorize)
	}
}

func checkedSuffix(at time.Time) string {
	return fmt.Sprintf(" (checked %s)", at.Local().Format("2006-01-02 15:04:05"))
}

// renderAlertsOnly prints the alert section, used after actions whose main
// output is something else.
func renderAlertsOnly(w io.Writer, o core.Overview, colorize bool) {
	if len(o.Alerts) == 0 {
		return
	}
	lines := renderSectionHeader("Alerts", colorize)
	for _, alert := range o.Alerts {
		lines = append(lines, renderStatusLine(textutil.Title(string(alert.Kind)), statusWarn, alert.Message, colorize))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
