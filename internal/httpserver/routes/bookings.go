package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/handlers"
)

func init() { Register(registerBookings) }

func registerBookings(r chi.Router, d deps.Deps) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(apiMiddlewares(d)...)

		r.Get("/", handlers.ListBookings(d))
		r.Get("/new", handlers.NewBookingForm(d))
		r.Get("/{id}", handlers.GetBooking(d))
		r.Get("/{id}/form", handlers.EditBookingForm(d))
		r.Get("/{id}/duplicate", handlers.DuplicateBooking(d))

		w := r.With(writeLimit(d))
		w.Post("/", handlers.CreateBooking(d))
		w.Put("/{id}", handlers.UpdateBooking(d))
		w.Post("/{id}/archive", handlers.ArchiveBooking(d))
		w.Post("/{id}/confirm", handlers.ConfirmBooking(d))
		w.Delete("/{id}", handlers.DeleteBooking(d))
	})
}
