// Package textutil provides text helpers for filenames and display labels.
//
// The primary use cases are:
//   - Sanitizing scene names into filesystem-safe tokens for autosave paths
//   - Title-casing stage and enum identifiers for tables and status lines
package textutil
