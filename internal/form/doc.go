// Package form holds the submission parameters gathered from the open scene
// and the user's edits, together with their enumerations, defaults,
// normalization rules and validation.
package form
