package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeYtDlp()
	c.normalizeSubtitles()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	// Hosting platforms hand the listen port over in PORT; it wins over the
	// configured port but keeps the wildcard host so the platform router can
	// reach the process.
	if value, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = net.JoinHostPort("0.0.0.0", strings.TrimSpace(value))
	}
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("SUBGRAB_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
}

func (c *Config) normalizeYtDlp() {
	c.YtDlp.Binary = strings.TrimSpace(c.YtDlp.Binary)
	if value, ok := os.LookupEnv("YTDLP_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.YtDlp.Binary = strings.TrimSpace(value)
	}
	if c.YtDlp.Binary == "" {
		c.YtDlp.Binary = defaultYtDlpBinary
	}
	if c.YtDlp.TimeoutSeconds == 0 {
		c.YtDlp.TimeoutSeconds = defaultYtDlpTimeoutSeconds
	}
	// Cookie content is opaque; only an all-whitespace value counts as absent.
	if strings.TrimSpace(c.YtDlp.Cookies) == "" {
		c.YtDlp.Cookies = ""
		if value, ok := os.LookupEnv("YTDLP_COOKIES"); ok && strings.TrimSpace(value) != "" {
			c.YtDlp.Cookies = value
		}
	}
	args := c.YtDlp.ExtraArgs[:0]
	for _, arg := range c.YtDlp.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.YtDlp.ExtraArgs = args
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.DefaultLanguage = strings.TrimSpace(c.Subtitles.DefaultLanguage)
	if c.Subtitles.DefaultLanguage == "" {
		c.Subtitles.DefaultLanguage = defaultLanguage
	}
	c.Subtitles.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Subtitles.DefaultFormat))
	if c.Subtitles.DefaultFormat == "" {
		c.Subtitles.DefaultFormat = defaultFormat
	}
	if c.Subtitles.DetailLimit == 0 {
		c.Subtitles.DetailLimit = defaultDetailLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
	if c.Notifications.FailureThreshold == 0 {
		c.Notifications.FailureThreshold = defaultFailureThreshold
	}
}
