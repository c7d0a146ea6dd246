// Package http exposes the bridge's small HTTP surface: the proactive-post
// trigger endpoint used by external schedulers, and a liveness probe.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/clawbridge/clawbridge/internal/channels/discord"
)

// Poster delivers a proactive message into a named channel.
// Implemented by discord.Channel.
type Poster interface {
	PostToChannel(ctx context.Context, channelName, message string) (int, error)
}

// TriggerHandler serves POST /post: {channel, message} → chunked sends into
// the named channel. Authorization mirrors the backend gateway call: a
// bearer token.
type TriggerHandler struct {
	poster  Poster
	token   string
	limiter *rate.Limiter
}

// NewTriggerHandler creates the handler.
// rateLimitRPM <= 0 disables rate limiting.
func NewTriggerHandler(poster Poster, token string, rateLimitRPM int) *TriggerHandler {
	h := &TriggerHandler{poster: poster, token: token}
	if rateLimitRPM > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(rateLimitRPM)/60, 5)
	}
	return h
}

// RegisterRoutes registers the trigger routes on the given mux.
func (h *TriggerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /post", h.authMiddleware(h.handlePost))
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *TriggerHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" || extractBearerToken(r) != h.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

type postRequest struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (h *TriggerHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Channel == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channel and message are required"})
		return
	}

	chunks, err := h.poster.PostToChannel(r.Context(), req.Channel, req.Message)
	if err != nil {
		slog.Warn("proactive post failed", "channel", req.Channel, "error", err)
		writeJSON(w, postErrorStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "chunks": chunks})
}

func (h *TriggerHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postErrorStatus maps poster failures onto HTTP statuses for the external
// caller. Nothing here is retried internally.
func postErrorStatus(err error) int {
	switch {
	case errors.Is(err, discord.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, discord.ErrChannelNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, discord.ErrNotTextChannel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Server owns the trigger listener lifecycle.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the HTTP server for the trigger surface.
func NewServer(host string, port int, handler *TriggerHandler) *Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return &Server{
		httpServer: &http.Server{
			Addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
			Handler: mux,
		},
	}
}

// Start listens and serves in the background. The returned error covers the
// listen call only; serve errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("trigger listen on %s: %w", s.httpServer.Addr, err)
	}
	slog.Info("trigger endpoint listening", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("trigger server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the listener, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
