package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/detailcal/internal/calendar"
	"github.com/MrSnakeDoc/detailcal/internal/customers"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
)

type customerListResponse struct {
	Count     int                  `json:"count"`
	Customers []customers.Customer `json:"customers"`
}

type historyResponse struct {
	Customer   string           `json:"customer,omitempty"`
	CustomerID string           `json:"customerId,omitempty"`
	Count      int              `json:"count"`
	Entries    []calendar.Entry `json:"entries"`
}

// Customers lists the customer picker entries.
func Customers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Customers.List(r.Context())
		if list == nil {
			list = []customers.Customer{}
		}
		writeJSON(w, d, http.StatusOK, customerListResponse{Count: len(list), Customers: list})
	}
}

// CustomerHistory lists every booking of ?customerId= or ?customer=,
// archived ones included.
func CustomerHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := strings.TrimSpace(q.Get("customerId"))
		name := strings.TrimSpace(q.Get("customer"))
		if id == "" && name == "" {
			badRequest(w, d, "customer or customerId is required")
			return
		}

		opts, err := calendarOptions(r, d)
		if err != nil {
			badRequest(w, d, err.Error())
			return
		}
		entries := calendar.History(d.Bookings.Items(), id, name, opts)
		writeJSON(w, d, http.StatusOK, historyResponse{
			Customer:   name,
			CustomerID: id,
			Count:      len(entries),
			Entries:    entries,
		})
	}
}
