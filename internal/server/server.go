// Package server provides the optional HTTP+WebSocket status/search surface
// (spec.md §6 Environment, Features.EnableServer). It exposes a read-mostly
// view over a single *brain.Brain: health, coarse stats, hybrid search, and
// a sleep-cycle trigger, plus a WebSocket broadcast of sleep-cycle progress.
// It is not a replacement for the CLI surface in cmd/ — those call the Query
// API directly — this package exists for a live dashboard or monitoring
// client that wants the same data over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/nullgraph/brain/internal/brain"
	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/web/handlers"
)

// securityHeadersMiddleware adds conservative security headers to all
// responses. This is a status/search surface with no HTML UI, so the
// headers mainly guard against the server being embedded somewhere
// unexpected.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start wires the routes below onto an http.Server and begins listening.
// It returns the actual address being listened on (useful for tests that
// pass cfg.Server.Port = 0) and the WebSocketHub so callers can broadcast
// their own events (e.g. ingestion watchers) alongside the sleep-cycle
// broadcasts this package already sends.
func Start(ctx context.Context, cfg *config.Config, b *brain.Brain) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub()
	go wsHub.Run()

	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	statsHandler := newStatsHandler(b)
	searchHandler := newSearchHandler(b)
	sleepHandler := newSleepHandler(b, wsHub)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/stats", statsHandler.Get)
	apiMux.HandleFunc("/api/search", searchHandler.Get)
	apiMux.HandleFunc("/api/sleep", sleepHandler.Post)

	// Health is mounted outside the auth-required prefix, matching the
	// teacher's convention that monitoring probes never need a token.
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))
	mux.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("server: failed to listen on %s: %v", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}
