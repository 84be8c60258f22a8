// Package credentials persists the farm login across restarts.
//
// The store keeps exactly two fields, the user's e-mail identifier and the
// pre-hashed password token, in a small TOML file with single-quoted literal
// strings. The file is only opened inside Read and Write; an advisory flock on
// a sibling lock file keeps concurrent CLI invocations from interleaving.
// Empty values are legal and mean "logged out".
package credentials
