package calendar

import (
	"slices"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// History returns every booking of a customer, archived or not, newest
// first. Bookings with an unparseable date come last in store order.
func History(items []*domain.Booking, customerID, customer string, opts Options) []Entry {
	opts = opts.normalized()

	dated := []Entry{}
	var undated []Entry
	for _, b := range items {
		if !domain.MatchesCustomer(b, customerID, customer) {
			continue
		}
		if e, ok := newEntry(b, opts); ok {
			dated = append(dated, e)
			continue
		}
		undated = append(undated, Entry{
			Booking:       b.Clone(),
			Presentation:  Present(b.Status),
			CustomerLabel: b.Customer,
			AssignedLabel: b.AssignedEmployee,
			BookedByLabel: b.BookedBy,
		})
	}

	slices.SortStableFunc(dated, func(a, b Entry) int {
		return b.Start.Compare(a.Start)
	})
	return append(dated, undated...)
}
