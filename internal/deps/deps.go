package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"renderfarm/internal/config"
)

// Requirement defines an external binary renderfarm relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configuration needs. Only the local
// test render runs an external program, so the renderer is optional: remote
// submission works without it.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "Local renderer",
			Command:     cfg.LocalRender.Command,
			Description: "Required for local test renders",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Resolve returns the absolute path of the requirement's command.
func Resolve(req Requirement) (string, error) {
	cmd := strings.TrimSpace(req.Command)
	if cmd == "" {
		return "", fmt.Errorf("%s: command not configured", req.Name)
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", fmt.Errorf("%s: binary %q not found: %w", req.Name, cmd, err)
	}
	return path, nil
}
