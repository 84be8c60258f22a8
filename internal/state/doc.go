// Package state persists the core state record between CLI invocations in a
// SQLite database: the service status, login session, catalogue snapshot,
// preparation report, submission form, working scene selection and alerts.
//
// Records are stored as JSON documents keyed by name; alerts have their own
// table so expiry can be evaluated in SQL against a caller-supplied clock.
package state
