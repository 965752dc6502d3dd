package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/handlers"
)

func init() { Register(registerDirectory) }

// registerDirectory mounts the read-only lookups: customers, employees,
// catalog and notifications.
func registerDirectory(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Get("/api/customers", handlers.Customers(d))
	api.Get("/api/customers/history", handlers.CustomerHistory(d))
	api.Get("/api/employees", handlers.Employees(d))
	api.Get("/api/catalog", handlers.Catalog(d))
	api.Get("/api/catalog/match", handlers.CatalogMatch(d))
	api.Get("/api/notifications", handlers.Notifications(d))
}
