// Package form owns the booking edit session: mapping between the stored
// entity and the split date/time inputs, validation, save and duplicate.
package form

import (
	"strings"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

const (
	DateLayout  = "2006-01-02"
	TimeLayout  = "15:04"
	DefaultTime = "09:00"
)

// Form mirrors the editable fields of a booking. Date, Time and EndTime are
// split inputs combined on save; the remaining UI-only fields never reach
// the entity directly.
type Form struct {
	ID         string `json:"id,omitempty"`
	Customer   string `json:"customer"`
	CustomerID string `json:"customerId,omitempty"`
	Title      string `json:"title"`

	Date    string        `json:"date"`
	Time    string        `json:"time"`
	EndTime string        `json:"endTime,omitempty"`
	Status  domain.Status `json:"status"`

	Vehicle      string `json:"vehicle,omitempty"`
	VehicleYear  string `json:"vehicleYear,omitempty"`
	VehicleMake  string `json:"vehicleMake,omitempty"`
	VehicleModel string `json:"vehicleModel,omitempty"`
	Address      string `json:"address,omitempty"`

	AssignedEmployee   string `json:"assignedEmployee,omitempty"`
	AssignedEmployeeID string `json:"assignedEmployeeId,omitempty"`
	BookedBy           string `json:"bookedBy,omitempty"`
	BookedByID         string `json:"bookedById,omitempty"`

	Notes             string   `json:"notes,omitempty"`
	Addons            []string `json:"addons,omitempty"`
	HasReminder       bool     `json:"hasReminder"`
	ReminderFrequency int      `json:"reminderFrequency,omitempty"`
	IsArchived        bool     `json:"isArchived"`

	// UI only
	UseCustomService bool   `json:"useCustomService"`
	CustomService    string `json:"customService,omitempty"`
	CustomerPhone    string `json:"customerPhone,omitempty"`
	CustomerEmail    string `json:"customerEmail,omitempty"`
}

// Service returns the effective service name.
func (f Form) Service() string {
	if f.UseCustomService {
		return strings.TrimSpace(f.CustomService)
	}
	return strings.TrimSpace(f.Title)
}

// blank returns the defaults of a create session on day.
func blank(day time.Time) Form {
	return Form{
		Date:   day.Format(DateLayout),
		Time:   DefaultTime,
		Status: domain.StatusConfirmed,
	}
}

// fromBooking maps an entity into form fields, splitting timestamps in loc.
func fromBooking(b *domain.Booking, loc *time.Location) Form {
	f := Form{
		ID:                 b.ID,
		Customer:           b.Customer,
		CustomerID:         b.CustomerID,
		Title:              b.Title,
		Status:             b.EffectiveStatus(),
		Vehicle:            b.Vehicle,
		VehicleYear:        b.VehicleYear,
		VehicleMake:        b.VehicleMake,
		VehicleModel:       b.VehicleModel,
		Address:            b.Address,
		AssignedEmployee:   b.AssignedEmployee,
		AssignedEmployeeID: b.AssignedEmployeeID,
		BookedBy:           b.BookedBy,
		BookedByID:         b.BookedByID,
		Notes:              b.Notes,
		Addons:             append([]string(nil), b.Addons...),
		HasReminder:        b.HasReminder,
		ReminderFrequency:  b.ReminderFrequency,
		IsArchived:         b.IsArchived,
	}
	if start, ok := b.Start(loc); ok {
		f.Date = start.Format(DateLayout)
		f.Time = start.Format(TimeLayout)
	}
	if end, ok := domain.ParseTimestamp(b.EndTime, loc); ok {
		f.EndTime = end.Format(TimeLayout)
	}
	return f
}

// times combines the date and time-of-day inputs. A blank date yields zero
// times; a blank time falls back to DefaultTime.
func (f Form) times(loc *time.Location) (start, end time.Time, err error) {
	date := strings.TrimSpace(f.Date)
	if date == "" {
		return time.Time{}, time.Time{}, nil
	}
	day, perr := time.ParseInLocation(DateLayout, date, loc)
	if perr != nil {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "date", Message: "Date must use YYYY-MM-DD"}
	}

	start, err = atTime(day, f.Time, DefaultTime, "time")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if strings.TrimSpace(f.EndTime) == "" {
		return start, time.Time{}, nil
	}
	end, err = atTime(day, f.EndTime, "", "endTime")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "endTime", Message: "End time must be after the start time"}
	}
	return start, end, nil
}

func atTime(day time.Time, clock, fallback, field string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = fallback
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "Time must use HH:MM"}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// toBooking builds the entity a save writes. Service and add-on names are
// expected to be canonical already.
func (f Form) toBooking(service string, addons []string, start, end time.Time) *domain.Booking {
	b := &domain.Booking{
		ID:                 f.ID,
		Customer:           strings.TrimSpace(f.Customer),
		CustomerID:         f.CustomerID,
		Title:              service,
		Status:             f.Status.Normalize(),
		Vehicle:            f.Vehicle,
		VehicleYear:        f.VehicleYear,
		VehicleMake:        f.VehicleMake,
		VehicleModel:       f.VehicleModel,
		Address:            f.Address,
		AssignedEmployee:   f.AssignedEmployee,
		AssignedEmployeeID: f.AssignedEmployeeID,
		BookedBy:           f.BookedBy,
		BookedByID:         f.BookedByID,
		Notes:              f.Notes,
		Addons:             addons,
		HasReminder:        f.HasReminder,
		IsArchived:         f.IsArchived,
	}
	if f.HasReminder {
		b.ReminderFrequency = f.ReminderFrequency
	}
	if !start.IsZero() {
		b.Date = domain.FormatTimestamp(start)
	}
	if !end.IsZero() {
		b.EndTime = domain.FormatTimestamp(end)
	}
	return b
}

// contact extracts the customer fields synced to the customer directory.
func (f Form) contact() domain.CustomerContact {
	return domain.CustomerContact{
		ID:           f.CustomerID,
		Name:         strings.TrimSpace(f.Customer),
		Phone:        strings.TrimSpace(f.CustomerPhone),
		Email:        strings.TrimSpace(f.CustomerEmail),
		Address:      f.Address,
		Vehicle:      f.Vehicle,
		VehicleYear:  f.VehicleYear,
		VehicleMake:  f.VehicleMake,
		VehicleModel: f.VehicleModel,
	}
}
