package subtitles

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"subgrab/internal/logging"
)

const (
	workspacePrefix    = "req-"
	outputBaseName     = "subtitles"
	credentialFileName = "cookies.txt"
)

// Workspace is the private scratch directory of one request.
type Workspace struct {
	id  string
	dir string
}

// NewWorkspace allocates root/req-<uuid>. The directory is created with
// owner-only permissions because it may hold cookie material.
func NewWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure workspace root: %w", err)
	}
	id := uuid.NewString()
	dir := filepath.Join(root, workspacePrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// ID returns the unique identifier embedded in the workspace path.
func (w *Workspace) ID() string { return w.id }

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// OutputBase is the path yt-dlp writes under; it appends .<lang>.<ext>.
func (w *Workspace) OutputBase() string {
	return filepath.Join(w.dir, outputBaseName)
}

// CredentialPath is where cookie material is materialized.
func (w *Workspace) CredentialPath() string {
	return filepath.Join(w.dir, credentialFileName)
}

// Release deletes the artifact, the credential, and finally the workspace
// directory with anything else the tool left behind. Failures are logged and
// swallowed; Release never fails the request. It is safe to call with a zero
// Artifact and a nil Credential.
func (w *Workspace) Release(logger *slog.Logger, artifact Artifact, credential *Credential) {
	if w == nil {
		return
	}
	if artifact.Path != "" {
		if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logCleanupFailure(logger, "subtitle artifact", artifact.Path, err)
		}
	}
	if err := credential.Remove(); err != nil {
		logCleanupFailure(logger, "credential file", credential.Path(), err)
	}
	if err := os.RemoveAll(w.dir); err != nil {
		logCleanupFailure(logger, "workspace", w.dir, err)
	}
}

func logCleanupFailure(logger *slog.Logger, what, path string, err error) {
	logging.WarnWithContext(logger, what+" cleanup failed", "workspace_cleanup_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on paths.work_dir"),
		logging.String(logging.FieldImpact, "temporary file remains on disk until the next daemon start"),
	)
}

// SweepStale removes workspaces left behind by a previous process, for
// example after a crash mid-request. Callers must guarantee no other process
// is using root; the daemon holds its instance lock while sweeping.
func SweepStale(root string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read workspace root: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logCleanupFailure(logger, "stale workspace", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
