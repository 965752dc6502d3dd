// Package calendar derives what to render for a given set of bookings,
// reference date, view mode and archive toggle. Everything here is pure:
// no I/O, no clocks, no shared state.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// ViewMode selects the projection.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
)

// ParseViewMode accepts day, week, month or year in any case.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return m, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// Resolver turns optional ids into display labels.
type Resolver interface {
	CustomerLabel(id string) (string, bool)
	EmployeeLabel(id string) (string, bool)
}

// Lookup adapts two functions into a Resolver. Nil functions resolve nothing.
type Lookup struct {
	Customer func(id string) (string, bool)
	Employee func(id string) (string, bool)
}

func (l Lookup) CustomerLabel(id string) (string, bool) {
	if l.Customer == nil || id == "" {
		return "", false
	}
	return l.Customer(id)
}

func (l Lookup) EmployeeLabel(id string) (string, bool) {
	if l.Employee == nil || id == "" {
		return "", false
	}
	return l.Employee(id)
}

// Options control every projection.
type Options struct {
	Location          *time.Location
	ShowArchived      bool
	TimelineStartHour int
	PixelsPerHour     float64
	MinHeight         float64
	DefaultDuration   time.Duration
	Resolver          Resolver
}

// DefaultOptions returns a 7 AM timeline at 60px per hour in loc.
func DefaultOptions(loc *time.Location) Options {
	return Options{
		Location:          loc,
		TimelineStartHour: 7,
		PixelsPerHour:     60,
		MinHeight:         30,
		DefaultDuration:   domain.DefaultDuration,
	}
}

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.PixelsPerHour <= 0 {
		o.PixelsPerHour = 60
	}
	if o.MinHeight <= 0 {
		o.MinHeight = 30
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = domain.DefaultDuration
	}
	return o
}
