// Package submit coordinates a submission: validate the form, prepare the
// scene, log in, take a session slot, upload the derived file, configure the
// session parameter by parameter, submit and refresh the catalogue.
//
// The steps run strictly in order because each keyed call consumes the key
// returned by the one before it. A failure aborts the run and leaves the
// partially configured session on the server; the next run's createSession
// hands the same session back, so failed attempts do not pile up sessions.
package submit
