package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/studyquest/internal/api"
	apiMiddleware "github.com/phrazzld/studyquest/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	economyHandler := api.NewEconomyHandler(app.economyService, app.logger)
	studyHandler := api.NewStudyHandler(app.studyService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/wallet", economyHandler.GetWallet)
		r.Get("/nobles", economyHandler.GetNobles)

		r.Route("/topics/{id}", func(r chi.Router) {
			r.Get("/cost", economyHandler.GetCost)
			r.Post("/purchase", economyHandler.Purchase)
			r.Post("/study", studyHandler.CompleteSession)
			r.Put("/stage", studyHandler.MoveTopic)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
