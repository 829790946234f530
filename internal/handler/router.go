package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type routerConfig struct {
	adminToken string
}

// RouterOption customises NewRouter.
type RouterOption func(*routerConfig)

// WithAdminToken sets the shared secret required by /admin routes.
func WithAdminToken(token string) RouterOption {
	return func(c *routerConfig) { c.adminToken = token }
}

// NewRouter builds the chi router for the API.
func NewRouter(h *Handler, logger *slog.Logger, opts ...RouterOption) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)
	r.Use(Identify)

	r.Get("/health", HealthCheck)
	r.Get("/survey/questions", h.SurveyQuestions)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Post("/survey", h.SubmitSurvey)
			r.Route("/reservation", func(r chi.Router) {
				r.Use(RequireUser)
				r.Get("/", h.GetMyReservation)
				r.Put("/", h.SubmitReservation)
				r.Delete("/", h.CancelReservation)
			})
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.With(RequireUser).Get("/", h.ListMyReservations)
		r.Get("/{key}", h.GetReservation)
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpsertProfile)
		r.Delete("/", h.WithdrawAccount)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(cfg.adminToken))
		r.Put("/members/{userID}", h.SetMembership)
	})

	return r
}
