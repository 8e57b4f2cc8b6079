// Package server exposes the coaching chat over HTTP.
//
// Endpoints:
//   - POST /api/chat   - stream a coached response as tag-delimited plain text
//   - GET  /api/scenes - list the scene catalogue
//   - GET  /healthz    - health check
//
// Failures before the first byte of the response are reported as JSON
// {"error": ..., "detail": ...} with a distinct status per failure class.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/markis/bizcoach/internal/coach"
	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/logging"
	"github.com/markis/bizcoach/internal/quota"
	"github.com/markis/bizcoach/internal/segment"
	log "github.com/sirupsen/logrus"
)

// UserHeader carries the caller's identity, set by the authenticating proxy in front of
// the server.
const UserHeader = "X-User-ID"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Scene       string       `json:"scene"`
	UserMessage string       `json:"userMessage"`
	History     []coach.Turn `json:"history,omitempty"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Server is the HTTP API server.
type Server struct {
	cfg      config.ServerConfig
	prompter *coach.Prompter
	scenes   *coach.Catalogue
	producer coach.Producer
	limiter  *quota.Limiter

	router *http.ServeMux
}

// New creates a Server. producer may be nil, in which case chats fail with 500.
// limiter may be nil to disable the daily quota.
func New(cfg config.ServerConfig, prompter *coach.Prompter, scenes *coach.Catalogue, producer coach.Producer, limiter *quota.Limiter) *Server {
	s := &Server{
		cfg:      cfg,
		prompter: prompter,
		scenes:   scenes,
		producer: producer,
		limiter:  limiter,
		router:   http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /api/scenes", s.handleScenes)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the server's handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return requestID(accessLog(s.router))
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Infof("listening on %s (schema %s)", s.cfg.Addr, s.prompter.Schema().Name)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Detail: detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"schema": s.prompter.Schema().Name,
	})
}

func (s *Server) handleScenes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scenes.List())
}

func (s *Server) validate(req *ChatRequest) error {
	if strings.TrimSpace(req.UserMessage) == "" {
		return errors.New("userMessage is required")
	}
	if s.cfg.MaxHistory > 0 && len(req.History) > s.cfg.MaxHistory {
		return fmt.Errorf("history is limited to %d turns", s.cfg.MaxHistory)
	}
	for i, h := range req.History {
		if h.Role != coach.RoleUser && h.Role != coach.RolePartner {
			return fmt.Errorf("invalid role %q at history %d: must be user or partner", h.Role, i)
		}
	}
	return nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry := entryFrom(ctx)

	if s.producer == nil {
		writeError(w, http.StatusInternalServerError, "model provider is not configured", "")
		return
	}

	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req ChatRequest
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if err := s.validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	if s.limiter != nil {
		decision, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			entry.WithError(err).Error("quota check failed")
			writeError(w, http.StatusInternalServerError, "Quota check failed", "")
			return
		}
		if !decision.Allowed {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error: "Daily limit reached",
				Limit: decision.Limit,
			})
			return
		}
	}

	prompt := s.prompter.Build(req.Scene, req.UserMessage, req.History)
	s.stream(ctx, w, entry.WithField("scene", req.Scene), prompt)
}

// stream relays producer fragments to the client. The first fragment is pulled before
// any header is written so that an early producer failure can still be a 502.
func (s *Server) stream(ctx context.Context, w http.ResponseWriter, entry *log.Entry, prompt coach.Prompt) {
	next, stop := iter.Pull2(s.producer.Stream(ctx, prompt))
	defer stop()

	chunk, err, ok := next()
	if err != nil {
		entry.WithError(err).Warn("producer failed")
		writeError(w, http.StatusBadGateway, "Chat request failed", err.Error())
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	seg := segment.New(s.prompter.Schema(), nil)
	start := time.Now()
	written := 0

	for ok {
		if _, werr := io.WriteString(w, chunk); werr != nil {
			entry.WithError(werr).Debug("client went away")
			return
		}
		if ferr := rc.Flush(); ferr != nil {
			entry.WithError(ferr).Debug("flush failed")
		}
		seg.ProcessChunk(chunk)
		written += len(chunk)

		chunk, err, ok = next()
		if err != nil {
			entry.WithError(err).Warn("producer failed mid-stream; response truncated")
			break
		}
	}
	seg.Close()

	entry = entry.WithFields(log.Fields{
		"schema":   seg.Schema().Name,
		"bytes":    written,
		"duration": time.Since(start).Round(time.Millisecond),
	})
	if seg.State().IsEmpty() {
		entry.Warn("response carried no recognizable sections")
		return
	}
	entry.Debug("response streamed")
}
