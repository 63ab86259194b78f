package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"subgrab/internal/config"
	"subgrab/internal/daemon"
	"subgrab/internal/logging"
	"subgrab/internal/notifications"
	"subgrab/internal/preflight"
	"subgrab/internal/subtitles"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the subgrab daemon and blocks until SIGINT, SIGTERM, or
// cancellation of cmdCtx.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("subgrab-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stdout"},
		Development:      opts.Development,
		FilePath:         logPath,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logging.PruneOldFiles(logger, cfg.Paths.LogDir, "subgrab-*.log", cfg.Logging.RetentionDays, logPath)
	logPreflight(signalCtx, logger, cfg)

	notifier := notifications.NewService(cfg)
	service, err := subtitles.NewService(cfg, logger, subtitles.WithNotifier(notifier))
	if err != nil {
		return fmt.Errorf("create subtitle service: %w", err)
	}
	d, err := daemon.New(cfg, service, logger, logPath)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and that no other subgrab daemon uses paths.work_dir"),
		)
		if notifyErr := notifier.Publish(cmdCtx, notifications.EventDaemonStartFailed, notifications.Payload{"error": err.Error()}); notifyErr != nil {
			logger.Warn("daemon start failure notification failed", logging.Error(notifyErr))
		}
		return err
	}

	// The pid file and log pointer belong to the instance holding the lock.
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		logger.Warn("unable to update subgrab.log link", logging.Error(err))
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, "subgrab.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("subgrab daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "subgrab.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Info("preflight ok",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `subgrab status` for details"),
			logging.String(logging.FieldImpact, "subtitle requests may fail until fixed"),
		)
	}
}
