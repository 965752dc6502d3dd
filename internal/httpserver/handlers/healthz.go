package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/version"
)

type healthzResponse struct {
	Status        string       `json:"status"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Timezone      string       `json:"timezone"`
	Build         version.Info `json:"build"`
}

// Healthz is the liveness probe. It never touches Redis or the booking
// collection; see Readyz for that.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Timezone:      d.Location().String(),
			Build:         d.Build,
		})
	}
}
