package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateYtDlp(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateYtDlp() error {
	if c.YtDlp.TimeoutSeconds < 0 {
		return errors.New("ytdlp.timeout_seconds must be positive")
	}
	for _, arg := range c.YtDlp.ExtraArgs {
		if flag, ok := managedFlag(arg); ok {
			return fmt.Errorf("ytdlp.extra_args: %s is managed by subgrab and cannot be overridden (got %q)", flag, arg)
		}
	}
	return nil
}

// managedLongFlags and managedShortFlags are the yt-dlp options subgrab sets
// itself to keep output and cookies inside the request workspace.
var (
	managedLongFlags  = []string{"--output", "--cookies", "--paths"}
	managedShortFlags = []string{"-o", "-P"}
)

// managedFlag reports whether arg sets a managed option in any spelling
// yt-dlp accepts: "--output", "--output=x", "-o", "-ox" or "-o=x".
func managedFlag(arg string) (string, bool) {
	for _, flag := range managedLongFlags {
		if arg == flag || strings.HasPrefix(arg, flag+"=") {
			return flag, true
		}
	}
	for _, flag := range managedShortFlags {
		if strings.HasPrefix(arg, flag) {
			return flag, true
		}
	}
	return "", false
}

func (c *Config) validateSubtitles() error {
	switch c.Subtitles.DefaultFormat {
	case "vtt", "srt", "txt":
	default:
		return fmt.Errorf("subtitles.default_format: unsupported value %q (expected vtt, srt, or txt)", c.Subtitles.DefaultFormat)
	}
	if c.Subtitles.DetailLimit < 0 {
		return errors.New("subtitles.detail_limit must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic: %q must be an http(s) URL", topic)
		}
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	if c.Notifications.FailureThreshold < 0 {
		return errors.New("notifications.failure_threshold must be positive")
	}
	return nil
}
