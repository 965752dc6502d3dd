package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

const defaultNotificationLimit = 20

// Notifications returns the most recent notifications, newest first.
func Notifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultNotificationLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				badRequest(w, d, "limit must be a positive integer")
				return
			}
			limit = n
		}

		list := d.Notifications.Recent(limit)
		if list == nil {
			list = []notify.Notification{}
		}
		writeJSON(w, d, http.StatusOK, list)
	}
}
