package preflight

import (
	"context"

	"renderfarm/internal/config"
	"renderfarm/internal/rpc"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are reported but do not fail the run.
	Optional bool
}

// StatusChecker is the service status call used by the reachability check.
type StatusChecker interface {
	Motd(ctx context.Context) (rpc.Status, error)
}

// RunAll executes every preflight check for the given config. checker may be
// nil, in which case the service check is skipped.
func RunAll(ctx context.Context, cfg *config.Config, checker StatusChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Config directory", cfg.Paths.ConfigDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Autosave directory", cfg.Paths.AutosaveDir),
	}
	if checker != nil {
		results = append(results, CheckService(ctx, checker))
	}
	results = append(results, CheckLocalRenderer(cfg)...)
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
