// Package config loads, normalizes, and validates renderfarm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RENDERFARM_HOST. The Config type centralizes every knob the CLI and the core
// need: where credentials and state live, which farm host to talk to, form
// defaults, and how a local test render is launched.
//
// The optional dev.toml beside the credential file is read separately through
// LoadDevMode; it only ever switches developer mode and verbose wire logging
// on, never off a documented default.
package config
