// Package logging assembles structured slog loggers and formatting helpers used
// across renderfarm.
//
// It owns the configurable console/JSON handlers, tees records into the log
// file, and exposes context-aware helpers so component code can tag log lines
// with session IDs, actions and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Secrets such as the password token must go through Redacted.
package logging
