// Package services defines shared plumbing consumed by the renderfarm
// components and the core entry points.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, step names, operator actions and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper and KindOf classifier that
//     translate failures into the user-facing error kinds
//     (authentication-failed, query-failed, cancel-failed, preparation-warning,
//     transport-failed, info-missing).
//
// Component code returns errors tagged with these markers; only the core
// entry points translate them into persisted alerts.
package services
