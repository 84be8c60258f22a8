package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"renderfarm/internal/config"
	"renderfarm/internal/deps"
)

// CheckService verifies that the farm answers the status call.
func CheckService(ctx context.Context, checker StatusChecker) Result {
	const name = "Farm service"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	status, err := checker.Motd(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	if !status.Accepting {
		return Result{Name: name, Detail: fmt.Sprintf("not accepting sessions (%s)", status.Motd)}
	}
	detail := "accepting sessions"
	if status.Motd != "" {
		detail = fmt.Sprintf("accepting sessions (%s)", status.Motd)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLocalRenderer reports whether the local test render binary is on PATH.
func CheckLocalRenderer(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Command
		if !s.Available {
			detail = s.Detail
		}
		results = append(results, Result{Name: s.Name, Passed: s.Available, Detail: detail, Optional: s.Optional})
	}
	return results
}

func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "status check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "status check timed out (service unreachable)"
	}
	return err.Error()
}
