package daemon

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"margin/internal/api"
	"margin/internal/config"
	"margin/internal/logging"
)

type apiServer struct {
	bind     string
	password string
	logger   *slog.Logger
	daemon   *Daemon
	tokens   *tokenSet

	proxyClient *http.Client

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:        bind,
		password:    cfg.Auth.Password,
		logger:      logger,
		daemon:      d,
		tokens:      newTokenSet(),
		proxyClient: &http.Client{Timeout: cfg.ProxyTimeout()},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", srv.handleAuth)
	mux.HandleFunc("/api/status", srv.auth(srv.handleStatus))
	mux.HandleFunc("/api/papers", srv.auth(srv.handlePapers))
	mux.HandleFunc("/api/papers/", srv.auth(srv.handlePaperItem))
	// The outcome endpoint deliberately skips auth: it accepts the
	// fire-and-forget write a closing reader session sends when no normal
	// request lifecycle remains to carry a token.
	mux.HandleFunc("/api/papers/outcome", srv.handleOutcome)
	mux.HandleFunc("/api/metadata", srv.auth(srv.handleMetadata))
	mux.HandleFunc("/api/pdf", srv.auth(srv.handlePDF))
	mux.HandleFunc("/api/tasks", srv.auth(srv.handleTasks))
	mux.HandleFunc("/api/tasks/", srv.auth(srv.handleTaskItem))
	mux.HandleFunc("/api/clips", srv.auth(srv.handleClips))
	mux.HandleFunc("/api/clips/", srv.auth(srv.handleClipItem))
	mux.HandleFunc("/api/reminders", srv.auth(srv.handleReminders))
	mux.HandleFunc("/api/reminders/", srv.auth(srv.handleReminderItem))
	mux.HandleFunc("/api/goals", srv.auth(srv.handleGoals))
	mux.HandleFunc("/api/goals/", srv.auth(srv.handleGoalItem))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) auth(next http.HandlerFunc) http.HandlerFunc {
	return authMiddleware(s.tokens, next)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleAuth issues a token for the configured password and revokes it
// again on DELETE.
func (s *apiServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req api.AuthRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, api.AuthResponse{})
			return
		}
		s.writeJSON(w, http.StatusOK, api.AuthResponse{Success: true, Token: s.tokens.issue()})
	case http.MethodDelete:
		if token := bearerToken(r); token != "" {
			s.tokens.revoke(token)
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		UptimeSecs:   int64(status.Uptime.Seconds()),
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Counts:       status.Counts,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// itemID extracts the trailing id segment from paths like /api/papers/{id}.
func itemID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
