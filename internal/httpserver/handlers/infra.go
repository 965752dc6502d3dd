package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
)

const (
	modeOperational = "operational"
	modeDegraded    = "degraded"
	modeCritical    = "critical"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Count       *int   `json:"count,omitempty"`
	Pending     *int64 `json:"pending,omitempty"`
	DeadLetters *int64 `json:"dead_letters,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every collaborator.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"bookings": bookingsStatus(d),
			"catalog":  catalogStatus(d),
			"redis":    redisStatus(ctx, d),
		}
		if d.Outbox != nil {
			components["outbox"] = outboxStatus(ctx, d)
		}
		if d.Customers != nil {
			n := len(d.Customers.List(ctx))
			c := componentStatus{OK: true, Count: &n}
			if !d.Customers.HasSource() {
				c.Impact = "cache-only"
			}
			components["customers"] = c
		}

		writeJSON(w, d, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is critical when no service can be booked or the bookings
// were never fetched, degraded when a side collaborator is down.
func determineMode(components map[string]componentStatus) string {
	if !components["catalog"].OK || !components["bookings"].OK {
		return modeCritical
	}
	for _, c := range components {
		if !c.OK {
			return modeDegraded
		}
	}
	return modeOperational
}

func bookingsStatus(d deps.Deps) componentStatus {
	if d.Bookings == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}
	n := d.Bookings.Count()
	s := componentStatus{OK: true, Count: &n, LastReload: formatReload(d.Bookings.LastRefresh())}
	if d.Bookings.LastRefresh().IsZero() {
		s.OK = false
		s.Impact = "calendar-empty"
	}
	return s
}

func catalogStatus(d deps.Deps) componentStatus {
	if d.Catalog == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}
	n := d.Catalog.Count()
	return componentStatus{OK: n > 0, Count: &n, LastReload: formatReload(d.Catalog.LastReload())}
}

func redisStatus(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Impact: "persistence-disabled", Error: "client not initialized"}
	}
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Impact: "writes-and-realtime-disabled", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func outboxStatus(ctx context.Context, d deps.Deps) componentStatus {
	pending, err := d.Outbox.Pending(ctx)
	if err != nil {
		return componentStatus{OK: false, Impact: "alerts-delayed", Error: err.Error()}
	}
	dead, err := d.Outbox.DeadLetters(ctx)
	if err != nil {
		return componentStatus{OK: false, Pending: &pending, Error: err.Error()}
	}
	return componentStatus{OK: true, Pending: &pending, DeadLetters: &dead}
}

func formatReload(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}
