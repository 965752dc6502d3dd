package calendar

import (
	"slices"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

const dateKey = "2006-01-02"

// Entry is a booking prepared for rendering.
type Entry struct {
	Booking       *domain.Booking `json:"booking"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Presentation  Presentation    `json:"presentation"`
	CustomerLabel string          `json:"customerLabel"`
	AssignedLabel string          `json:"assignedLabel,omitempty"`
	BookedByLabel string          `json:"bookedByLabel,omitempty"`
}

// DurationMinutes is the rendered length, falling back to the default duration.
func (e Entry) DurationMinutes() float64 {
	return e.End.Sub(e.Start).Minutes()
}

func newEntry(b *domain.Booking, opts Options) (Entry, bool) {
	start, ok := b.Start(opts.Location)
	if !ok {
		return Entry{}, false
	}
	end, _ := b.End(opts.Location, opts.DefaultDuration)

	e := Entry{
		Booking:       b.Clone(),
		Start:         start,
		End:           end,
		Presentation:  Present(b.Status),
		CustomerLabel: b.Customer,
		AssignedLabel: b.AssignedEmployee,
		BookedByLabel: b.BookedBy,
	}
	if opts.Resolver != nil {
		if v, ok := opts.Resolver.CustomerLabel(b.CustomerID); ok && v != "" {
			e.CustomerLabel = v
		}
		if v, ok := opts.Resolver.EmployeeLabel(b.AssignedEmployeeID); ok && v != "" {
			e.AssignedLabel = v
		}
		if v, ok := opts.Resolver.EmployeeLabel(b.BookedByID); ok && v != "" {
			e.BookedByLabel = v
		}
	}
	return e, true
}

// sortByStart orders ascending by start; equal starts keep their input order.
func sortByStart(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Start.Compare(b.Start)
	})
}

// groupByDay buckets every visible booking by its local calendar date.
// Buckets are sorted.
func groupByDay(items []*domain.Booking, opts Options) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, b := range items {
		if !domain.IsArchivedVisible(b, opts.ShowArchived) {
			continue
		}
		e, ok := newEntry(b, opts)
		if !ok {
			continue
		}
		key := e.Start.Format(dateKey)
		out[key] = append(out[key], e)
	}
	for _, bucket := range out {
		sortByStart(bucket)
	}
	return out
}

// BucketDay returns the visible bookings starting on day, sorted by start.
func BucketDay(items []*domain.Booking, day time.Time, opts Options) []Entry {
	opts = opts.normalized()
	day = day.In(opts.Location)

	var out []Entry
	for _, b := range items {
		if !domain.IsArchivedVisible(b, opts.ShowArchived) || !domain.IsOnDay(b, day, opts.Location) {
			continue
		}
		if e, ok := newEntry(b, opts); ok {
			out = append(out, e)
		}
	}
	sortByStart(out)
	return out
}
