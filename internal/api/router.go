// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"hubcoin-miner/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, frontendURL, staticDir string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// The web app is served from its own origin and from inside Telegram.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{frontendURL, "https://web.telegram.org"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Ledger API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/user", ledgerHandler.GetOrCreateUser)
		r.Post("/claim-gems", ledgerHandler.ClaimGems)
		r.Post("/withdrawal", ledgerHandler.Withdraw)
		r.Get("/leaderboard", ledgerHandler.Leaderboard)
	})

	// Static web-app shell: known files are served as-is, everything else
	// falls through to index.html so client-side routes resolve.
	r.Get("/*", serveStatic(staticDir))

	return r
}

func serveStatic(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
		path := filepath.Join(staticDir, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
