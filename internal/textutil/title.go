package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Title turns identifiers like "physically-based" or "pending_approval" into
// "Physically Based" style labels.
func Title(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.NewReplacer("-", " ", "_", " ").Replace(value)
	return titleCaser.String(strings.Join(strings.Fields(value), " "))
}
