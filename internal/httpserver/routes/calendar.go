package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/handlers"
)

func init() { Register(registerCalendar) }

func registerCalendar(r chi.Router, d deps.Deps) {
	r.With(apiMiddlewares(d)...).Get("/api/calendar/{mode}", handlers.Calendar(d))
}
