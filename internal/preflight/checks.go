package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"subgrab/internal/config"
	"subgrab/internal/deps"
)

// cookieHeaders are the first lines yt-dlp accepts for a cookie jar.
var cookieHeaders = []string{"# Netscape HTTP Cookie File", "# HTTP Cookie File"}

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

// CheckSystemDeps evaluates the external executables for the given config.
// Both the daemon and the CLI status command use this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinariesContext(ctx, []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Required for subtitle acquisition",
			VersionArgs: []string{"--version"},
		},
	})
}

// CheckYtDlp reports whether the configured yt-dlp binary resolves and runs.
func CheckYtDlp(ctx context.Context, cfg *config.Config) Result {
	const name = "yt-dlp"
	status := CheckSystemDeps(ctx, cfg)[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	if status.Version == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", status.Path, status.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", status.Path, status.Version)}
}

// CheckCookies verifies that cookie material looks like a Netscape cookie
// jar. The content itself is never echoed.
func CheckCookies(material string) Result {
	const name = "Cookies"
	first, _, _ := strings.Cut(strings.TrimLeft(material, "\uFEFF \t\r\n"), "\n")
	first = strings.TrimSpace(first)
	for _, header := range cookieHeaders {
		if strings.HasPrefix(first, header) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d bytes of cookie material", len(material))}
		}
	}
	return Result{Name: name, Detail: "missing Netscape cookie file header; yt-dlp will reject the jar"}
}
