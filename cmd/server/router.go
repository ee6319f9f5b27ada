package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tasktrack-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasktrack-api/internal/api/middleware"
)

// setupRouter registers every route and the middleware chain.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	subtaskHandler := api.NewSubtaskHandler(app.subtaskService, app.logger)
	tagHandler := api.NewTagHandler(app.tagService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/Task", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Put("/", taskHandler.Update)
			r.Get("/assigned", taskHandler.ListAssigned)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.UpdateByID)
			r.Delete("/{id}", taskHandler.Delete)
			r.Post("/{id}/restore", taskHandler.Restore)
		})

		r.Route("/Tasks/{parentTaskId}/SubtaskItem", func(r chi.Router) {
			r.Get("/", subtaskHandler.List)
			r.Post("/", subtaskHandler.Create)
			r.Put("/", subtaskHandler.Update)
			r.Get("/{id}", subtaskHandler.Get)
			r.Put("/{id}", subtaskHandler.UpdateByID)
			r.Delete("/{id}", subtaskHandler.Delete)
			r.Post("/{id}/restore", subtaskHandler.Restore)
		})

		r.Route("/Tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)
			r.Get("/{id}", tagHandler.Get)
			r.Put("/{id}", tagHandler.Update)
			r.Delete("/{id}", tagHandler.Delete)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
