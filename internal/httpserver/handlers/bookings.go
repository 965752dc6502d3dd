package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/form"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/detailcal/internal/httpserver/mw"
)

type bookingListResponse struct {
	Count    int               `json:"count"`
	Bookings []*domain.Booking `json:"bookings"`
}

// ListBookings returns the collection, archived entries only when
// ?archived=true (or the configured default).
func ListBookings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		showArchived, err := queryBool(r, "archived", d.Calendar.ShowArchived)
		if err != nil {
			badRequest(w, d, errArchivedFlag.Error())
			return
		}

		items := d.Bookings.Items()
		out := make([]*domain.Booking, 0, len(items))
		for _, b := range items {
			if domain.IsArchivedVisible(b, showArchived) {
				out = append(out, b)
			}
		}
		writeJSON(w, d, http.StatusOK, bookingListResponse{Count: len(out), Bookings: out})
	}
}

func GetBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := lookupBooking(d, r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, b)
	}
}

// NewBookingForm returns the defaults of a create session on ?date=.
func NewBookingForm(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := queryDate(r, d)
		if err != nil {
			badRequest(w, d, err.Error())
			return
		}
		writeJSON(w, d, http.StatusOK, d.Forms.LoadForCreate(day).Form)
	}
}

// EditBookingForm returns the edit form of an existing booking.
func EditBookingForm(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := lookupBooking(d, r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, d.Forms.LoadForEdit(b).Form)
	}
}

// DuplicateBooking returns a create form cloned from an existing booking.
// Nothing is saved until the form is posted.
func DuplicateBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := lookupBooking(d, r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, d.Forms.Duplicate(b).Form)
	}
}

func CreateBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f form.Form
		if err := decodeJSON(w, r, &f); err != nil {
			badRequest(w, d, "invalid booking form")
			return
		}
		f.ID = ""

		saved, err := d.Forms.Submit(f).Save(r.Context(), mw.ActorFrom(r.Context()))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		w.Header().Set("Location", "/api/bookings/"+saved.ID)
		writeJSON(w, d, http.StatusCreated, saved)
	}
}

func UpdateBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f form.Form
		if err := decodeJSON(w, r, &f); err != nil {
			badRequest(w, d, "invalid booking form")
			return
		}
		id := chi.URLParam(r, "id")
		if f.ID != "" && f.ID != id {
			badRequest(w, d, "form id does not match the url")
			return
		}
		f.ID = id

		saved, err := d.Forms.Submit(f).Save(r.Context(), mw.ActorFrom(r.Context()))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, saved)
	}
}

// ArchiveBooking toggles the archive flag.
func ArchiveBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Forms.ToggleArchive(r.Context(), chi.URLParam(r, "id"), mw.ActorFrom(r.Context()))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, b)
	}
}

func ConfirmBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Forms.Confirm(r.Context(), chi.URLParam(r, "id"), mw.ActorFrom(r.Context()))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, b)
	}
}

// DeleteBooking requires ?confirm=true.
func DeleteBooking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmed, err := queryBool(r, "confirm", false)
		if err != nil {
			badRequest(w, d, "confirm must be a boolean")
			return
		}
		if err := d.Forms.Delete(r.Context(), chi.URLParam(r, "id"), confirmed, mw.ActorFrom(r.Context())); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func lookupBooking(d deps.Deps, r *http.Request) (*domain.Booking, error) {
	id := chi.URLParam(r, "id")
	b, ok := d.Bookings.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return b, nil
}

// queryDate parses ?date=YYYY-MM-DD in the business timezone, defaulting to today.
func queryDate(r *http.Request, d deps.Deps) (time.Time, error) {
	loc := d.Location()
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return d.Now().In(loc), nil
	}
	day, err := time.ParseInLocation(form.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, errors.New("date must use YYYY-MM-DD")
	}
	return day, nil
}
