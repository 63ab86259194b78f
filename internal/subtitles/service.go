package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"subgrab/internal/config"
	"subgrab/internal/language"
	"subgrab/internal/logging"
	"subgrab/internal/notifications"
	"subgrab/internal/services"
)

// Option customizes a Service.
type Option func(*Service)

// WithCommandRunner overrides how yt-dlp is executed.
func WithCommandRunner(runner CommandRunner) Option {
	return func(s *Service) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithNotifier publishes yt-dlp health alerts through notifier. Without it
// the service does not alert.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// Service runs the subtitle pipeline: provision credentials, invoke yt-dlp,
// locate its output, normalize it, and release every temporary file.
type Service struct {
	workRoot        string
	cookies         string
	defaultLanguage string
	defaultFormat   Format
	detailLimit     int

	runner   CommandRunner
	invoker  *Invoker
	notifier notifications.Service
	health   *toolHealth
	logger   *slog.Logger
}

// NewService builds a Service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("subtitles service requires configuration")
	}
	defaultFormat, err := ParseFormat(cfg.Subtitles.DefaultFormat)
	if err != nil {
		return nil, fmt.Errorf("default format: %w", err)
	}
	s := &Service{
		workRoot:        cfg.Paths.WorkDir,
		cookies:         cfg.YtDlp.Cookies,
		defaultLanguage: cfg.Subtitles.DefaultLanguage,
		defaultFormat:   defaultFormat,
		detailLimit:     cfg.Subtitles.DetailLimit,
		logger:          logging.NewComponentLogger(logger, "subtitles"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.invoker = NewInvoker(cfg.YtDlpBinary(), cfg.ToolTimeout(), cfg.YtDlp.ExtraArgs, s.runner)
	s.health = newToolHealth(s.notifier, cfg.Notifications.FailureThreshold, s.invoker.Binary())
	return s, nil
}

// Fetch retrieves subtitles for req. Every temporary file created on the
// way is removed before Fetch returns, whatever the outcome. Errors carry a
// services marker; use services.Classify to map them onto an Outcome.
func (s *Service) Fetch(ctx context.Context, req Request) (Result, error) {
	ctx = services.WithStage(ctx, "fetch")
	logger := logging.WithContext(ctx, s.logger)

	valid, err := validateRequest(req, s.defaultLanguage, s.defaultFormat)
	if err != nil {
		logger.Info("subtitle request rejected", logging.Error(err))
		return Result{}, err
	}
	logger = logger.With(
		logging.String("url", valid.url),
		logging.String("lang", valid.language),
		logging.String("language_name", language.DisplayName(valid.language)),
		logging.String("format", valid.format.String()),
	)

	ws, err := NewWorkspace(s.workRoot)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "subtitles", "workspace", "", err)
	}
	logger = logger.With(logging.String("workspace", ws.ID()))

	var (
		artifact   Artifact
		credential *Credential
	)
	defer func() {
		ws.Release(logger, artifact, credential)
	}()

	credential, err = ProvisionCredential(ws.CredentialPath(), s.cookies)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "subtitles", "credential", "", err)
	}

	started := time.Now()
	run, err := s.invoker.Invoke(ctx, Invocation{
		URL:        valid.url,
		Language:   valid.language,
		Format:     valid.format,
		Credential: credential,
		OutputBase: ws.OutputBase(),
	})
	s.health.record(ctx, logger, err)
	if err != nil {
		s.logInvokeFailure(logger, err)
		return Result{}, err
	}
	logger.Debug("yt-dlp finished",
		logging.Duration("duration", run.Duration),
		logging.String("stdout", run.Stdout),
		logging.String("stderr", run.Stderr),
	)

	artifact, err = Locate(ws.OutputBase(), valid.language, valid.format)
	if err != nil {
		logger.Info("no subtitles produced", logging.Error(err))
		return Result{}, err
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInternal, "subtitles", "read", artifact.Path, err)
	}

	result := Result{
		Text:     Normalize(string(data), artifact.Format, valid.format),
		Format:   artifact.Format,
		Language: valid.language,
	}
	if !valid.format.Raw() {
		result.Format = FormatText
	}
	logger.Info("subtitles fetched",
		logging.String("artifact_format", artifact.Format.String()),
		logging.Int("bytes", len(result.Text)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// Detail returns a caller-safe summary of a tool failure, or "" when err
// carries no tool diagnostics.
func (s *Service) Detail(err error) string {
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		return ""
	}
	if detail := services.SanitizeDetail(toolErr.Stderr, s.detailLimit); detail != "" {
		return detail
	}
	if toolErr.TimedOut {
		return "subtitle tool timed out"
	}
	return ""
}

// Binary returns the yt-dlp executable the service invokes.
func (s *Service) Binary() string {
	return s.invoker.Binary()
}

func (s *Service) logInvokeFailure(logger *slog.Logger, err error) {
	var toolErr *ToolError
	errors.As(err, &toolErr)
	attrs := []logging.Attr{logging.Error(err)}
	if toolErr != nil {
		attrs = append(attrs,
			logging.Int("exit_code", toolErr.ExitCode),
			logging.String("stderr", toolErr.Stderr),
		)
	}
	switch {
	case errors.Is(err, services.ErrToolMissing):
		attrs = append(attrs,
			logging.String("binary", s.invoker.Binary()),
			logging.String(logging.FieldErrorHint, "install yt-dlp or set ytdlp.binary / YTDLP_BINARY"),
		)
		logging.ErrorWithContext(logger, "yt-dlp is not available", "tool_missing", attrs...)
	case errors.Is(err, services.ErrTimeout):
		logging.WarnWithContext(logger, "yt-dlp timed out", "tool_timeout",
			append(attrs,
				logging.String(logging.FieldErrorHint, "raise ytdlp.timeout_seconds if the source is slow"),
				logging.String(logging.FieldImpact, "request failed"),
			)...)
	default:
		logging.WarnWithContext(logger, "yt-dlp failed", "tool_failed",
			append(attrs, logging.String(logging.FieldImpact, "request failed"))...)
	}
}
