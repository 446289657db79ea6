// Package web exposes the capture daemon's HTTP surface: the JSON API the
// capture clients talk to, plus a small read-only HTML view of the vault.
package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hollismb/kapture/internal/config"
	"github.com/hollismb/kapture/internal/vault"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewServer creates and configures the HTTP server for the capture daemon.
func NewServer(db *sql.DB, cfg config.Config, version, bind string, port int) *http.Server {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	h := &Handlers{
		db:       db,
		store:    vault.StoreFor(cfg),
		renderer: NewRenderer(templateSub, version),
		audio:    newAudioManager(),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/captures", http.StatusFound)
	})

	mux.HandleFunc("POST /api/capture", h.HandleCapture)
	mux.HandleFunc("GET /api/suggestions/{field}", h.HandleSuggestions)
	mux.HandleFunc("GET /api/suggestion-exists/{field}", h.HandleSuggestionExists)
	mux.HandleFunc("GET /api/recent-values", h.HandleRecentValues)
	mux.HandleFunc("GET /api/config", h.HandleConfig)
	mux.HandleFunc("GET /api/clipboard", h.HandleClipboard)
	mux.HandleFunc("POST /api/screenshot", h.HandleScreenshot)
	mux.HandleFunc("POST /api/audio/start", h.HandleAudioStart)
	mux.HandleFunc("POST /api/audio/stop", h.HandleAudioStop)
	mux.HandleFunc("GET /api/audio/status/{recorder_id}", h.HandleAudioStatus)

	mux.HandleFunc("GET /captures", h.HandleList)
	mux.HandleFunc("GET /captures/{id}", h.HandleDetail)

	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Kapture daemon running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
