// Package main hosts the renderfarm CLI entrypoint and command graph.
//
// Every operator action is a Cobra sub-command. Commands open the core state
// record, dispatch one action and render the resulting overview: status
// lines, alerts, preparation warnings and the session catalogue. Failures
// are already recorded as alerts by the time a command prints them, so the
// next `renderfarm status` still shows them until they clear.
//
// Keep this package lean: behaviour lives in internal/core and the packages
// it drives; commands only translate flags into action parameters.
package main
