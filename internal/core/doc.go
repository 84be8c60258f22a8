// Package core owns the state record every operator action works on.
//
// Open is the enable step: it takes the single-owner lock on the state
// directory, opens the state store and loads credentials, developer toggles,
// the catalogue snapshot, the form and the last preparation report. Close is
// the disable step: it persists the record and releases the lock.
//
// Actions are a closed enumeration dispatched through Dispatch. An action
// never leaves its failure only in the returned error: every failure is also
// recorded as an alert (transient for the kinds that clear themselves) so the
// next Overview shows it.
package core
