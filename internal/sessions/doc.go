// Package sessions holds the in-memory catalogue of the user's remote render
// sessions.
//
// The catalogue keeps four stage sequences (pending, rendering, completed,
// cancelled), their concatenation in that fixed order, a stage view filter
// and the selected index. Refresh is the only mutator of the sequences and
// swaps all four in one assignment, so readers never observe a half-built
// catalogue and a session ID never appears under two stages.
package sessions
