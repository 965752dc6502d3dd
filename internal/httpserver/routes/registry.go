package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registrar. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}

// apiMiddlewares guard every /api route: Host check, then actor identity.
func apiMiddlewares(d deps.Deps) []Middleware {
	return []Middleware{
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.Actor(d.JWTSecret, d.Logger),
	}
}

func writeLimit(d deps.Deps) Middleware {
	if d.WriteLimit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return d.WriteLimit
}
