package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/scheduler"
)

// Reload triggers a booking refresh and a catalog reload.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingsTriggered := trigger(d, d.ReloadTrigger, "bookings", r)
		catalogTriggered := trigger(d, d.CatalogReloadTrigger, "catalog", r)

		if bookingsTriggered || catalogTriggered {
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Reload triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("⏳ Reload already in progress, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

func trigger(d deps.Deps, ch chan struct{}, what string, r *http.Request) bool {
	if ch == nil {
		return false
	}
	if !scheduler.Trigger(ch) {
		d.Logger.Warn("reload already in progress",
			logger.String("target", what),
			logger.String("remote_ip", r.RemoteAddr))
		return false
	}
	d.Logger.Info("manual reload triggered via endpoint",
		logger.String("target", what),
		logger.String("remote_ip", r.RemoteAddr))
	return true
}
