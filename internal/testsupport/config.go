package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subgrab/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The yt-dlp binary points at a path that does not exist unless a stub is
// installed with WithStubYtDlp.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.YtDlp.Binary = filepath.Join(base, "bin", "missing-yt-dlp")
	cfgVal.YtDlp.Cookies = ""
	cfgVal.Server.APIToken = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStubYtDlp writes script as an executable under the config's bin
// directory and points ytdlp.binary at it.
func WithStubYtDlp(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YtDlp.Binary = WriteStub(b.t, filepath.Join(b.baseDir, "bin"), "yt-dlp", script)
	}
}

// WithCookies sets the cookie material provisioned for each request.
func WithCookies(material string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YtDlp.Cookies = material
	}
}

// WithAPIToken enables bearer authentication on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WriteStub writes an executable shell script named name into dir and
// returns its path.
func WriteStub(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
