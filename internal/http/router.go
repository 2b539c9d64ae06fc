package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"everytask/internal/auth"
	"everytask/internal/service"
)

type API struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Checklist  *service.ChecklistService
	Stats      *service.StatsService
	Auth       *auth.Manager
	Origins    []string
	Location   *time.Location
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)

		r.Route("/me", func(r chi.Router) {
			r.Get("/", a.handleMe)
			r.Put("/", a.handleUpdateMe)
			r.Delete("/", a.handleDeleteMe)
			r.Put("/password", a.handleChangePassword)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", a.handleListTasks)
			r.Post("/", a.handleCreateTask)
			r.Get("/board", a.handleBoard)
			r.Get("/{id}", a.handleGetTask)
			r.Put("/{id}", a.handleUpdateTask)
			r.Delete("/{id}", a.handleDeleteTask)
			r.Post("/{id}/complete", a.handleCompleteTask)
			r.Get("/{id}/history", a.handleTaskHistory)
			r.Post("/{id}/checklist", a.handleAddChecklistItem)
			r.Put("/{id}/checklist/{itemID}", a.handleUpdateChecklistItem)
			r.Delete("/{id}/checklist/{itemID}", a.handleDeleteChecklistItem)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.handleListCategories)
			r.Post("/", a.handleCreateCategory)
			r.Put("/{id}", a.handleRenameCategory)
			r.Delete("/{id}", a.handleDeleteCategory)
		})

		r.Get("/badges", a.handleBadgeCatalog)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/status", a.handleStatsByStatus)
			r.Get("/impact", a.handleStatsByImpact)
			r.Get("/category", a.handleStatsByCategory)
			r.Get("/calendar", a.handleCompletionCalendar)
			r.Get("/over-time", a.handleCreatedVsCompleted)
			r.Get("/productive-day", a.handleMostProductiveDay)
			r.Get("/fastest", a.handleFastest)
			r.Get("/average", a.handleAverageCompletion)
			r.Get("/completion-rate", a.handleCompletionRate)
			r.Get("/busy-hours", a.handleBusyHours)
			r.Get("/workload", a.handleWorkload)
			r.Get("/streak", a.handleStreak)
			r.Get("/badges", a.handleUserBadges)
		})
	})

	return r
}

func (a *API) location() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}
