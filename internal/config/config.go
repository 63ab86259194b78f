package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
	// MaxBodyBytes caps the JSON request body accepted by the API.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// YtDlp contains configuration for the external subtitle downloader.
type YtDlp struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// Cookies holds raw Netscape cookie-jar content. It is never read from a
	// path; operators supply the content itself (usually via YTDLP_COOKIES).
	Cookies string `toml:"cookies"`
	// ExtraArgs are appended before the URL separator.
	ExtraArgs []string `toml:"extra_args"`
}

// Subtitles contains request defaults.
type Subtitles struct {
	DefaultLanguage string `toml:"default_language"`
	DefaultFormat   string `toml:"default_format"`
	// DetailLimit bounds the tool diagnostics echoed back to API callers.
	DetailLimit int `toml:"detail_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains ntfy settings for operator alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// FailureThreshold is the number of consecutive yt-dlp failures that
	// raises an alert.
	FailureThreshold int `toml:"failure_threshold"`
}

// Config encapsulates all configuration values for subgrab.
//
// Configuration sections by subsystem:
//   - Paths: per-request workspace root and log directory
//   - Server: HTTP bind address and optional bearer token
//   - YtDlp: external tool binary, timeout, and cookie material
//   - Subtitles: request defaults and error detail limits
//   - Logging: log format, level, and retention
//   - Notifications: optional ntfy alerts
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	YtDlp         YtDlp         `toml:"ytdlp"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subgrab/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subgrab.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// YtDlpBinary returns the configured yt-dlp executable.
func (c *Config) YtDlpBinary() string {
	if c == nil || strings.TrimSpace(c.YtDlp.Binary) == "" {
		return defaultYtDlpBinary
	}
	return c.YtDlp.Binary
}

// ToolTimeout returns the bounded wait applied to each yt-dlp invocation.
func (c *Config) ToolTimeout() time.Duration {
	if c == nil || c.YtDlp.TimeoutSeconds <= 0 {
		return time.Duration(defaultYtDlpTimeoutSeconds) * time.Second
	}
	return time.Duration(c.YtDlp.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves a user-supplied path, including a leading tilde, to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
