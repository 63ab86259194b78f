package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds the --version call.
const versionTimeout = 10 * time.Second

// Requirement defines an external executable subgrab relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the binary to report its version.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	return CheckBinariesContext(context.Background(), requirements)
}

// CheckBinariesContext is CheckBinaries with version calls bounded by ctx.
func CheckBinariesContext(ctx context.Context, requirements []Requirement) []Status {
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
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		if len(req.VersionArgs) > 0 {
			version, err := readVersion(ctx, path, req.VersionArgs)
			if err != nil {
				status.Detail = fmt.Sprintf("version check failed: %v", err)
			}
			status.Version = version
		}
		results = append(results, status)
	}
	return results
}

func readVersion(ctx context.Context, path string, args []string) (string, error) {
	versionCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	var stdout bytes.Buffer
	cmd := exec.CommandContext(versionCtx, path, args...) //nolint:gosec
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	return strings.TrimSpace(line), nil
}
