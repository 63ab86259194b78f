package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subgrab/internal/api"
	"subgrab/internal/config"
	"subgrab/internal/logging"
	"subgrab/internal/services"
	"subgrab/internal/subtitles"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind            string
	maxBody         int64
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	handler         http.Handler
	logger          *slog.Logger
	daemon          *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:            strings.TrimSpace(cfg.Server.Bind),
		maxBody:         cfg.Server.MaxBodyBytes,
		writeTimeout:    cfg.ToolTimeout() + 30*time.Second,
		shutdownTimeout: cfg.ToolTimeout() + 5*time.Second,
		logger:          logging.NewComponentLogger(logger, "api-server"),
		daemon:          d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/get-subtitles", authMiddleware(cfg.Server.APIToken, srv.handleSubtitles))
	mux.HandleFunc("/api/status", authMiddleware(cfg.Server.APIToken, srv.handleStatus))

	srv.handler = srv.withRequestID(mux)
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdown(server)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		s.shutdown(server)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// shutdown lets in-flight fetches finish so their workspaces are released
// before the process exits.
func (s *apiServer) shutdown(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, api.ErrorResponse{Error: "method not allowed"})
		return
	}

	var body api.SubtitleRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{
				Error:   "request body too large",
				Details: fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
				Outcome: services.OutcomeInputError.String(),
			})
			return
		}
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   "invalid JSON body",
			Details: err.Error(),
			Outcome: services.OutcomeInputError.String(),
		})
		return
	}

	s.daemon.stats.begin()
	result, err := s.daemon.service.Fetch(r.Context(), subtitles.Request{
		URL:      body.URL,
		Language: body.Language,
		Format:   body.Format,
	})
	outcome := services.Classify(err)
	s.daemon.stats.finish(outcome)

	switch outcome {
	case services.OutcomeSuccess:
		s.writeJSON(w, http.StatusOK, api.SubtitleResponse{
			Subtitles: result.Text,
			Format:    result.Format.String(),
			Language:  result.Language,
		})
	case services.OutcomeInputError:
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   inputMessage(err),
			Outcome: outcome.String(),
		})
	case services.OutcomeNotFound:
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{
			Error:   "Subtitles not found",
			Outcome: outcome.String(),
		})
	case services.OutcomeToolFailure:
		s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:   "Failed to download subtitles",
			Details: s.daemon.service.Detail(err),
			Outcome: outcome.String(),
		})
	default:
		s.logger.Error("subtitle request failed", logging.Error(err),
			logging.String(logging.FieldCorrelationID, requestID(r)))
		s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:   "Server error",
			Outcome: outcome.String(),
		})
	}
}

// inputMessage returns the caller-facing reason a request was rejected.
func inputMessage(err error) string {
	var reqErr *subtitles.RequestError
	if errors.As(err, &reqErr) {
		if msg := reqErr.Error(); msg != "" {
			return msg
		}
	}
	return "invalid request"
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, http.StatusMethodNotAllowed, api.ErrorResponse{Error: "method not allowed"})
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	outcomes := make(map[string]int64, len(status.Outcomes))
	for outcome, count := range status.Outcomes {
		outcomes[outcome.String()] = count
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Bind:         status.Bind,
		WorkDir:      status.WorkDir,
		LockFilePath: status.LockFilePath,
		LogPath:      status.LogPath,
		Requests:     api.RequestStats{InFlight: status.InFlight, Outcomes: outcomes},
		Dependencies: deps,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// withRequestID stamps every request with a correlation identifier, echoes it
// to the client, and writes an access log line.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(services.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			logging.String(logging.FieldCorrelationID, id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
		)
	})
}

func requestID(r *http.Request) string {
	id, _ := services.RequestIDFromContext(r.Context())
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, payload api.ErrorResponse) {
	s.writeJSON(w, status, payload)
}
