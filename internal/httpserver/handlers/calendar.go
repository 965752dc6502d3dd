package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/calendar"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
)

type calendarResponse struct {
	calendar.View
	Legend []calendar.Presentation `json:"legend"`
}

// Calendar projects the bookings for /api/calendar/{mode}?date=&archived=.
func Calendar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := calendar.ParseViewMode(chi.URLParam(r, "mode"))
		if err != nil {
			badRequest(w, d, err.Error())
			return
		}
		ref, err := queryDate(r, d)
		if err != nil {
			badRequest(w, d, err.Error())
			return
		}
		opts, err := calendarOptions(r, d)
		if err != nil {
			badRequest(w, d, err.Error())
			return
		}

		view, err := calendar.Project(d.Bookings.Items(), ref, mode, opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, calendarResponse{View: view, Legend: calendar.Legend()})
	}
}

// calendarOptions applies ?archived= and the id resolvers to the configured options.
func calendarOptions(r *http.Request, d deps.Deps) (calendar.Options, error) {
	opts := d.Calendar
	opts.Location = d.Location()

	showArchived, err := queryBool(r, "archived", opts.ShowArchived)
	if err != nil {
		return calendar.Options{}, errArchivedFlag
	}
	opts.ShowArchived = showArchived

	lookup := calendar.Lookup{}
	if d.Customers != nil {
		lookup.Customer = d.Customers.CustomerLabel
	}
	if d.Catalog != nil {
		lookup.Employee = d.Catalog.EmployeeLabel
	}
	opts.Resolver = lookup
	return opts, nil
}
