package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subgrab/internal/config"
	"subgrab/internal/deps"
	"subgrab/internal/logging"
	"subgrab/internal/preflight"
	"subgrab/internal/services"
	"subgrab/internal/subtitles"
)

const lockFileName = "subgrabd.lock"

// Daemon serves subtitle requests and enforces single-instance execution
// per work directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *subtitles.Service
	logPath string

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc

	stats requestStats
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Bind         string
	WorkDir      string
	LockFilePath string
	LogPath      string
	InFlight     int64
	Outcomes     map[services.Outcome]int64
	Dependencies []deps.Status
}

// New constructs a daemon around an initialized subtitle service.
func New(cfg *config.Config, service *subtitles.Service, logger *slog.Logger, logPath string) (*Daemon, error) {
	if cfg == nil || service == nil || logger == nil {
		return nil, errors.New("daemon requires config, subtitle service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.WorkDir, lockFileName)
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, removes workspaces abandoned by a previous
// process, and starts serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(d.cfg.Paths.WorkDir, 0o755); err != nil {
		return fmt.Errorf("ensure work directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subgrab daemon instance is already running")
	}

	removed, err := subtitles.SweepStale(d.cfg.Paths.WorkDir, d.logger)
	if err != nil {
		logging.WarnWithContext(d.logger, "stale workspace sweep failed", "workspace_sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "leftover request files stay on disk"),
		)
	} else if removed > 0 {
		d.logger.Info("removed stale workspaces",
			logging.Int("count", removed),
			logging.String(logging.FieldEventType, "workspace_sweep"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("subgrab daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// Stop drains in-flight requests, stops the HTTP server, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("subgrab daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the address the HTTP server is listening on, or "" when it
// is not running.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    startedAt,
		Bind:         d.cfg.Server.Bind,
		WorkDir:      d.cfg.Paths.WorkDir,
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		InFlight:     d.stats.inFlight.Load(),
		Outcomes:     d.stats.snapshot(),
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
	}
}

// requestStats counts pipeline outcomes for the status endpoint.
type requestStats struct {
	inFlight atomic.Int64

	mu       sync.Mutex
	outcomes map[services.Outcome]int64
}

func (s *requestStats) begin() { s.inFlight.Add(1) }

func (s *requestStats) finish(outcome services.Outcome) {
	s.inFlight.Add(-1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = make(map[services.Outcome]int64)
	}
	s.outcomes[outcome]++
}

func (s *requestStats) snapshot() map[services.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[services.Outcome]int64, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}
