package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgrab/internal/logging"
)

func TestNewWorkspaceLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if filepath.Dir(ws.Dir()) != root {
		t.Fatalf("workspace %q not under %q", ws.Dir(), root)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir()), "req-") || !strings.HasSuffix(ws.Dir(), ws.ID()) {
		t.Fatalf("unexpected workspace name %q (id %q)", ws.Dir(), ws.ID())
	}
	info, err := os.Stat(ws.Dir())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Fatalf("expected 0700 workspace, got %o", perm)
	}
	if ws.OutputBase() != filepath.Join(ws.Dir(), "subtitles") {
		t.Fatalf("unexpected output base %q", ws.OutputBase())
	}
	if ws.CredentialPath() != filepath.Join(ws.Dir(), "cookies.txt") {
		t.Fatalf("unexpected credential path %q", ws.CredentialPath())
	}

	other, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if other.Dir() == ws.Dir() {
		t.Fatalf("expected distinct workspaces")
	}
}

func TestWorkspaceReleaseRemovesEverything(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	cred, err := ProvisionCredential(ws.CredentialPath(), "cookie")
	if err != nil {
		t.Fatalf("ProvisionCredential: %v", err)
	}
	artifactPath := ArtifactPath(ws.OutputBase(), "ru", FormatVTT)
	writeArtifact(t, artifactPath, "WEBVTT")
	writeArtifact(t, ws.OutputBase()+".ru.vtt.part", "stray")

	ws.Release(logging.NewNop(), Artifact{Path: artifactPath, Format: FormatVTT}, cred)
	ws.Release(logging.NewNop(), Artifact{Path: artifactPath, Format: FormatVTT}, cred)

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root after release, found %d entries", len(entries))
	}
}

func TestSweepStale(t *testing.T) {
	root := t.TempDir()
	for range 2 {
		ws, err := NewWorkspace(root)
		if err != nil {
			t.Fatalf("NewWorkspace: %v", err)
		}
		writeArtifact(t, ws.OutputBase()+".en.vtt", "left over")
	}
	keep := filepath.Join(root, "daemon.lock")
	writeArtifact(t, keep, "")

	removed, err := SweepStale(root, logging.NewNop())
	if err != nil {
		t.Fatalf("SweepStale: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 workspaces removed, got %d", removed)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("non-workspace file should survive: %v", err)
	}

	removed, err = SweepStale(filepath.Join(root, "missing"), logging.NewNop())
	if err != nil || removed != 0 {
		t.Fatalf("missing root: removed=%d err=%v", removed, err)
	}
}
