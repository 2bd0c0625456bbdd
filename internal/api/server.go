// ABOUTME: HTTP server that exposes conversations, settings, the directory and deep links
// ABOUTME: Owns the listener lifecycle with graceful shutdown on context cancellation

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/cheatsignal/internal/conversation"
	"github.com/2389/cheatsignal/internal/dedupe"
	"github.com/2389/cheatsignal/internal/settings"
	"github.com/2389/cheatsignal/internal/store"
)

const (
	defaultDedupeWindow = 5 * time.Minute
	dedupeMaxEntries    = 10_000
	shutdownTimeout     = 5 * time.Second
)

// Config holds what the server needs from the outside.
type Config struct {
	Addr         string
	DedupeWindow time.Duration
}

// Server serves the JSON API. Conversations, Settings and Directory are
// required.
type Server struct {
	conversations *conversation.Service
	settings      *settings.Store
	directory     store.DirectoryStore
	logger        *slog.Logger

	// sends remembers send results by request_id so client retries do not
	// append twice
	sends *dedupe.Cache[*conversation.SendResult]

	addr       string
	httpServer *http.Server
	now        func() time.Time
}

// New creates a Server. Pass nil logger for default.
func New(cfg Config, convs *conversation.Service, prefs *settings.Store, dir store.DirectoryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.DedupeWindow
	if window <= 0 {
		window = defaultDedupeWindow
	}

	s := &Server{
		conversations: convs,
		settings:      prefs,
		directory:     dir,
		logger:        logger.With("component", "api"),
		sends:         dedupe.New[*conversation.SendResult](window, dedupeMaxEntries),
		addr:          cfg.Addr,
		now:           time.Now,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoint - no body parsing, no store access
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("PUT /api/conversations/{id}/viewed", s.handleSetViewed)
	mux.HandleFunc("GET /api/conversations/{id}/events", s.handleConversationEvents)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/theme", s.handleSetTheme)
	mux.HandleFunc("PUT /api/settings/notifications", s.handleSetNotifications)

	mux.HandleFunc("GET /api/addresses", s.handleListAddresses)
	mux.HandleFunc("POST /api/addresses", s.handleSaveAddress)
	mux.HandleFunc("DELETE /api/addresses/{id}", s.handleDeleteAddress)

	mux.HandleFunc("GET /api/skills", s.handleListSkills)
	mux.HandleFunc("POST /api/skills", s.handleSaveSkill)
	mux.HandleFunc("DELETE /api/skills/{id}", s.handleDeleteSkill)

	mux.HandleFunc("GET /api/hashtags", s.handleListHashtags)
	mux.HandleFunc("POST /api/hashtags", s.handleSaveHashtag)
	mux.HandleFunc("DELETE /api/hashtags/{id}", s.handleDeleteHashtag)
	mux.HandleFunc("POST /api/hashtags/{id}/use", s.handleUseHashtag)

	mux.HandleFunc("GET /api/links/resolve", s.handleResolveLink)

	return mux
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases the dedupe cache.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	err := s.httpServer.Shutdown(ctx)
	s.sends.Close()
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
