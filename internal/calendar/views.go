package calendar

import (
	"fmt"
	"math"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// TimelineEntry positions an entry on the day timeline, in pixels.
type TimelineEntry struct {
	Entry
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DayView is the single-day timeline.
type DayView struct {
	Date              string          `json:"date"`
	TimelineStartHour int             `json:"timelineStartHour"`
	PixelsPerHour     float64         `json:"pixelsPerHour"`
	Entries           []TimelineEntry `json:"entries"`
}

// DayCell is one day of a week or month grid.
type DayCell struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	InMonth bool    `json:"inMonth"`
	Entries []Entry `json:"entries"`
}

// WeekView covers the Monday-first week around the reference date.
type WeekView struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Days  []DayCell `json:"days"`
}

// MonthView is the grid from the Monday on or before the 1st to the Sunday
// on or after the last day; its length is always a multiple of 7.
type MonthView struct {
	Month string    `json:"month"`
	Start string    `json:"start"`
	End   string    `json:"end"`
	Cells []DayCell `json:"cells"`
}

// Weeks splits the grid into rows of seven.
func (m MonthView) Weeks() [][]DayCell {
	rows := make([][]DayCell, 0, len(m.Cells)/7)
	for i := 0; i+7 <= len(m.Cells); i += 7 {
		rows = append(rows, m.Cells[i:i+7])
	}
	return rows
}

// PresenceCell is a year-view day: a dot, no detail.
type PresenceCell struct {
	Date       string `json:"date"`
	InMonth    bool   `json:"inMonth"`
	HasBooking bool   `json:"hasBooking"`
	HasDone    bool   `json:"hasDone"`
}

// MiniMonth is one month of the year view.
type MiniMonth struct {
	Month string         `json:"month"`
	Cells []PresenceCell `json:"cells"`
}

// YearView has twelve mini months.
type YearView struct {
	Year   int         `json:"year"`
	Months []MiniMonth `json:"months"`
}

// View is the result of Project; exactly one projection is set.
type View struct {
	Mode      ViewMode   `json:"mode"`
	Reference string     `json:"reference"`
	Day       *DayView   `json:"day,omitempty"`
	Week      *WeekView  `json:"week,omitempty"`
	Month     *MonthView `json:"month,omitempty"`
	Year      *YearView  `json:"year,omitempty"`
}

// Project dispatches on mode.
func Project(items []*domain.Booking, ref time.Time, mode ViewMode, opts Options) (View, error) {
	opts = opts.normalized()
	ref = ref.In(opts.Location)
	v := View{Mode: mode, Reference: ref.Format(dateKey)}

	switch mode {
	case ViewDay:
		d := ProjectDay(items, ref, opts)
		v.Day = &d
	case ViewWeek:
		w := ProjectWeek(items, ref, opts)
		v.Week = &w
	case ViewMonth:
		m := ProjectMonth(items, ref, opts)
		v.Month = &m
	case ViewYear:
		y := ProjectYear(items, ref, opts)
		v.Year = &y
	default:
		return View{}, fmt.Errorf("unknown view mode %q", mode)
	}
	return v, nil
}

// ProjectDay lays the day's bookings out on the timeline. Bookings that
// start before the timeline start hour are left out.
func ProjectDay(items []*domain.Booking, day time.Time, opts Options) DayView {
	opts = opts.normalized()
	day = day.In(opts.Location)

	view := DayView{
		Date:              day.Format(dateKey),
		TimelineStartHour: opts.TimelineStartHour,
		PixelsPerHour:     opts.PixelsPerHour,
		Entries:           []TimelineEntry{},
	}
	for _, e := range BucketDay(items, day, opts) {
		top := float64(e.Start.Hour()-opts.TimelineStartHour)*opts.PixelsPerHour +
			float64(e.Start.Minute())*opts.PixelsPerHour/60
		if top < 0 {
			continue
		}
		height := math.Max(opts.MinHeight, e.DurationMinutes()*opts.PixelsPerHour/60)
		view.Entries = append(view.Entries, TimelineEntry{Entry: e, Top: top, Height: height})
	}
	return view
}

// ProjectWeek returns the seven days of the week containing ref.
func ProjectWeek(items []*domain.Booking, ref time.Time, opts Options) WeekView {
	opts = opts.normalized()
	start := domain.StartOfWeek(ref.In(opts.Location))
	buckets := groupByDay(items, opts)

	days := make([]DayCell, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, cell(d, buckets, true))
	}
	return WeekView{
		Start: start.Format(dateKey),
		End:   start.AddDate(0, 0, 6).Format(dateKey),
		Days:  days,
	}
}

// ProjectMonth builds the month grid around ref. Days outside the month
// keep their bookings and carry InMonth=false.
func ProjectMonth(items []*domain.Booking, ref time.Time, opts Options) MonthView {
	opts = opts.normalized()
	ref = ref.In(opts.Location)
	buckets := groupByDay(items, opts)

	first, last := monthGrid(ref)
	cells := make([]DayCell, 0, 42)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		cells = append(cells, cell(d, buckets, d.Month() == ref.Month()))
	}
	return MonthView{
		Month: ref.Format("2006-01"),
		Start: first.Format(dateKey),
		End:   last.Format(dateKey),
		Cells: cells,
	}
}

// ProjectYear builds presence grids for the twelve months of ref's year.
func ProjectYear(items []*domain.Booking, ref time.Time, opts Options) YearView {
	opts = opts.normalized()
	ref = ref.In(opts.Location)
	buckets := groupByDay(items, opts)

	view := YearView{Year: ref.Year(), Months: make([]MiniMonth, 0, 12)}
	for m := time.January; m <= time.December; m++ {
		month := time.Date(ref.Year(), m, 1, 0, 0, 0, 0, opts.Location)
		first, last := monthGrid(month)

		mini := MiniMonth{Month: month.Format("2006-01"), Cells: make([]PresenceCell, 0, 42)}
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			key := d.Format(dateKey)
			pc := PresenceCell{Date: key, InMonth: d.Month() == m}
			for _, e := range buckets[key] {
				pc.HasBooking = true
				if e.Booking.EffectiveStatus() == domain.StatusDone {
					pc.HasDone = true
				}
			}
			mini.Cells = append(mini.Cells, pc)
		}
		view.Months = append(view.Months, mini)
	}
	return view
}

// monthGrid returns the first and last day of the Monday-first grid
// covering t's month.
func monthGrid(t time.Time) (time.Time, time.Time) {
	first := domain.StartOfWeek(domain.StartOfMonth(t))
	lastOfMonth := domain.StartOfMonth(t).AddDate(0, 1, -1)
	last := domain.StartOfWeek(lastOfMonth).AddDate(0, 0, 6)
	return first, last
}

func cell(d time.Time, buckets map[string][]Entry, inMonth bool) DayCell {
	key := d.Format(dateKey)
	entries := buckets[key]
	if entries == nil {
		entries = []Entry{}
	}
	return DayCell{
		Date:    key,
		Weekday: d.Weekday().String(),
		InMonth: inMonth,
		Entries: entries,
	}
}
