package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// AdminAuth guards mutating sync endpoints with a static bearer token. An
// empty token disables the check (development only).
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetupRoutes builds the bridge's HTTP surface.
func SetupRoutes(h *Handler, adminToken string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	// Public read-only surface
	r.Get("/healthz", h.Healthz)
	r.Get("/ws", h.wsHandler.HandleCompetitionConnection)
	r.Get("/api/events", h.Events)
	r.Get("/api/scoreboard/{eventID}", h.Scoreboard)
	r.Get("/api/live/{eventID}", h.LiveState)
	r.Get("/api/stats", h.Stats)

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(AdminAuth(adminToken))

		r.Post("/api/competitions/{eventID}/subscribe", h.Subscribe)
		r.Delete("/api/competitions/{eventID}/subscribe", h.Unsubscribe)
		r.Get("/api/sync/status/{eventID}", h.SyncStatus)
		r.Get("/api/sync/logs/{eventID}", h.SyncLogs)
		r.Post("/api/sync/registrations", h.TriggerSync)
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}
