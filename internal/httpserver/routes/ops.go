package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps mounts the probes, /infra and /reload behind the CIDR allow-list.
func registerOps(r chi.Router, d deps.Deps) {
	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/healthz", handlers.Healthz(d))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/infra", handlers.Infra(d))
	restricted.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
}
