package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hubibot/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Every protected route answers a missing, invalid or under-privileged
// token exactly like an unknown route.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLevel(auth.LevelDevice))

			r.Get("/groups", s.handleListGroups)
			r.Get("/groups/{name}/devices", s.handleGroupDevices)
			r.Get("/resolve", s.handleResolve)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireLevel(auth.LevelAdmin))

			r.Post("/refresh", s.handleRefresh)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w, "not found")
}
