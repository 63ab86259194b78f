package config

const (
	defaultWorkDir             = "~/.local/share/subgrab/work"
	defaultLogDir              = "~/.local/share/subgrab/logs"
	defaultBind                = "127.0.0.1:5000"
	defaultMaxBodyBytes        = 64 << 10
	defaultYtDlpBinary         = "yt-dlp"
	defaultYtDlpTimeoutSeconds = 120
	defaultLanguage            = "ru"
	defaultFormat              = "vtt"
	defaultDetailLimit         = 512
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
	defaultNotifyTimeout       = 10
	defaultFailureThreshold    = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:         defaultBind,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		YtDlp: YtDlp{
			Binary:         defaultYtDlpBinary,
			TimeoutSeconds: defaultYtDlpTimeoutSeconds,
		},
		Subtitles: Subtitles{
			DefaultLanguage: defaultLanguage,
			DefaultFormat:   defaultFormat,
			DetailLimit:     defaultDetailLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
			FailureThreshold:      defaultFailureThreshold,
		},
	}
}
