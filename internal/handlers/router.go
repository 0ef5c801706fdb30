package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"raffle-5050/internal/metrics"
	"raffle-5050/internal/models"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// RouterOptions configures the protected routes. Nil middlewares are skipped.
type RouterOptions struct {
	StaffAuth Middleware
	RateLimit Middleware
}

func passthrough(next http.Handler) http.Handler { return next }

// NewRouter builds the ledger HTTP surface.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	staff := opts.StaffAuth
	if staff == nil {
		staff = passthrough
	}
	limit := opts.RateLimit
	if limit == nil {
		limit = passthrough
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	register := limit(staff(http.HandlerFunc(h.Register)))
	draw := limit(staff(http.HandlerFunc(h.Draw)))

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Single-endpoint form: GET /?action=stats|register|draw
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "stats":
			h.Stats(w, r)
		case "register":
			register.ServeHTTP(w, r)
		case "draw":
			draw.ServeHTTP(w, r)
		default:
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "unknown action"})
		}
	})

	r.Get("/stats", h.Stats)
	r.Method(http.MethodGet, "/register", register)
	r.Method(http.MethodPost, "/register", register)
	r.Method(http.MethodGet, "/draw", draw)
	r.Method(http.MethodPost, "/draw", draw)

	r.Group(func(r chi.Router) {
		r.Use(staff)
		r.Get("/admin/registrations", h.AdminRegistrations)
	})

	return r
}
