package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready           bool `json:"ready"`
	CatalogLoaded   bool `json:"catalog_loaded"`
	BookingsFetched bool `json:"bookings_fetched"`
}

// Readyz reports ready once the catalog is loaded and the bookings have
// been fetched at least once.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{
			CatalogLoaded:   d.Catalog != nil && d.Catalog.Count() > 0,
			BookingsFetched: d.Bookings != nil && !d.Bookings.LastRefresh().IsZero(),
		}
		resp.Ready = resp.CatalogLoaded && resp.BookingsFetched

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d, status, resp)
	}
}
