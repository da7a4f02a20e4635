package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts every route under /api.
//
// Public:
//
//	GET  /api/health
//	POST /api/auth/request-otp
//	POST /api/auth/verify-otp
//	POST /api/auth/refresh
//	POST /api/auth/logout
//
// Everything else requires an access token.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(withCORS(h.opts.FrontendURL))
	r.Use(withRequestLogging(h.log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(chiMiddleware.AllowContentType("application/json")).Post("/request-otp", h.RequestOtp)
			r.With(chiMiddleware.AllowContentType("application/json")).Post("/verify-otp", h.VerifyOtp)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Post("/logout-all", h.LogoutAll)
				r.Get("/me", h.Me)
				r.Patch("/me", h.UpdateMe)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Patch("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/", h.ListTimeEntries)
			r.Post("/", h.UpsertTimeEntry)
			r.Get("/week", h.WeekTimeEntries)
			r.Get("/{id}", h.GetTimeEntry)
			r.Patch("/{id}", h.UpdateTimeEntry)
			r.Delete("/{id}", h.DeleteTimeEntry)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
