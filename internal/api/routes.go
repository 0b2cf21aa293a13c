// Package api mounts the streamable MCP handler behind a chi router.
// /health is public; /mcp requires a bearer token when a secret is configured.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	apmiddleware "github.com/matiasleandrokruk/relengjira/internal/api/middleware"
)

// MCPPath is where the MCP endpoint is mounted.
const MCPPath = "/mcp"

// RouterOptions configures NewRouter. The zero value serves /mcp open,
// unthrottled and without CORS.
type RouterOptions struct {
	AuthSecret []byte
	Logger     *slog.Logger
	RateLimit  int    // requests per minute per IP; 0 disables
	CORSOrigin string // allowed browser origin; empty disables
}

// NewRouter creates the router for the HTTP transport.
func NewRouter(mcpHandler http.Handler, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES =====

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// ===== MCP ROUTES =====

	r.Group(func(r chi.Router) {
		r.Use(apmiddleware.RequestLogger(logger))
		if opts.CORSOrigin != "" {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{opts.CORSOrigin},
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
				ExposedHeaders: []string{"Mcp-Session-Id"},
				MaxAge:         300,
			}))
		}
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		if len(opts.AuthSecret) > 0 {
			r.Use(apmiddleware.AuthMiddleware(opts.AuthSecret))
		}
		r.Handle(MCPPath, mcpHandler)
	})

	return r
}
