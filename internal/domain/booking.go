package domain

import (
	"strings"
	"time"
)

// DefaultDuration is the layout-only length assumed for bookings without an end time.
const DefaultDuration = 60 * time.Minute

// Booking represents a single scheduled or blocked appointment.
//
// Timestamps are kept as ISO-8601 strings exactly as they are persisted.
// A malformed timestamp never makes a helper fail: the booking simply
// does not match any date predicate.
type Booking struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is a random UUID assigned at creation. Never reused.
	ID string `json:"id"`

	// CreatedAt is set once at creation.
	CreatedAt string `json:"createdAt"`

	// ─────────────────────────────
	// Who and what
	// ─────────────────────────────

	// Customer is the display label of the customer.
	Customer string `json:"customer"`

	// CustomerID optionally points at a customer record (lookup only).
	CustomerID string `json:"customerId,omitempty"`

	// Title is the booked service name, denormalized from the catalog.
	Title string `json:"title"`

	// Addons lists add-on service names in the order they were picked.
	Addons []string `json:"addons,omitempty"`

	// ─────────────────────────────
	// When
	// ─────────────────────────────

	// Date is the appointment start and the primary ordering key.
	Date string `json:"date"`

	// EndTime is optional. Absent means DefaultDuration for layout only.
	EndTime string `json:"endTime,omitempty"`

	// Status drives color and icon in every view.
	Status Status `json:"status"`

	// ─────────────────────────────
	// Vehicle and location
	// ─────────────────────────────

	Vehicle      string `json:"vehicle,omitempty"`
	VehicleYear  string `json:"vehicleYear,omitempty"`
	VehicleMake  string `json:"vehicleMake,omitempty"`
	VehicleModel string `json:"vehicleModel,omitempty"`
	Address      string `json:"address,omitempty"`

	// ─────────────────────────────
	// Staff attribution
	// ─────────────────────────────

	// AssignedEmployee and BookedBy are cached display labels; the *ID
	// fields are the join keys when present.
	AssignedEmployee   string `json:"assignedEmployee,omitempty"`
	AssignedEmployeeID string `json:"assignedEmployeeId,omitempty"`
	BookedBy           string `json:"bookedBy,omitempty"`
	BookedByID         string `json:"bookedById,omitempty"`

	Notes string `json:"notes,omitempty"`

	// ─────────────────────────────
	// Reminders and archive
	// ─────────────────────────────

	HasReminder bool `json:"hasReminder"`

	// ReminderFrequency is a month interval, meaningful only with HasReminder.
	ReminderFrequency int `json:"reminderFrequency,omitempty"`

	// IsArchived is a soft-delete flag. Archived bookings stay in history.
	IsArchived bool `json:"isArchived"`
}

// Clone returns a deep copy of b.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.Addons != nil {
		c.Addons = append([]string(nil), b.Addons...)
	}
	return &c
}

// Start parses Date in loc. ok is false for a nil booking or a malformed date.
func (b *Booking) Start(loc *time.Location) (time.Time, bool) {
	if b == nil {
		return time.Time{}, false
	}
	return ParseTimestamp(b.Date, loc)
}

// End returns the parsed EndTime, or start+fallback when EndTime is absent
// or malformed. ok mirrors Start.
func (b *Booking) End(loc *time.Location, fallback time.Duration) (time.Time, bool) {
	start, ok := b.Start(loc)
	if !ok {
		return time.Time{}, false
	}
	if end, ok := ParseTimestamp(b.EndTime, loc); ok {
		return end, true
	}
	return start.Add(fallback), true
}

// EffectiveStatus returns the status with the implicit default applied.
func (b *Booking) EffectiveStatus() Status {
	if b == nil {
		return StatusConfirmed
	}
	return b.Status.Normalize()
}

// IsOnDay reports whether b starts on the local calendar day of day.
func IsOnDay(b *Booking, day time.Time, loc *time.Location) bool {
	start, ok := b.Start(loc)
	if !ok {
		return false
	}
	return SameDay(start, day.In(locOrLocal(loc)))
}

// IsInMonth reports whether b starts in the local calendar month of month.
func IsInMonth(b *Booking, month time.Time, loc *time.Location) bool {
	start, ok := b.Start(loc)
	if !ok {
		return false
	}
	month = month.In(locOrLocal(loc))
	return start.Year() == month.Year() && start.Month() == month.Month()
}

// IsArchivedVisible reports whether b should be rendered given the archive toggle.
func IsArchivedVisible(b *Booking, showArchived bool) bool {
	if b == nil {
		return false
	}
	return showArchived || !b.IsArchived
}

// MatchesCustomer reports whether b belongs to the given customer. The id
// wins when both sides carry one; otherwise the display label is compared
// case-insensitively.
func MatchesCustomer(b *Booking, customerID, customer string) bool {
	if b == nil {
		return false
	}
	if customerID != "" && b.CustomerID != "" {
		return customerID == b.CustomerID
	}
	name := strings.TrimSpace(customer)
	if name == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(b.Customer), name)
}
