package form

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

type evidenceDoc struct {
	Action     string          `yaml:"action"`
	RecordedAt string          `yaml:"recorded_at"`
	Actor      evidenceActor   `yaml:"actor"`
	Booking    evidenceBooking `yaml:"booking"`
}

type evidenceActor struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

type evidenceBooking struct {
	ID               string   `yaml:"id"`
	Customer         string   `yaml:"customer"`
	Service          string   `yaml:"service"`
	Addons           []string `yaml:"addons,omitempty"`
	Date             string   `yaml:"date,omitempty"`
	EndTime          string   `yaml:"end_time,omitempty"`
	Status           string   `yaml:"status"`
	Vehicle          string   `yaml:"vehicle,omitempty"`
	Address          string   `yaml:"address,omitempty"`
	AssignedEmployee string   `yaml:"assigned_employee,omitempty"`
	BookedBy         string   `yaml:"booked_by,omitempty"`
	Notes            string   `yaml:"notes,omitempty"`
	Archived         bool     `yaml:"archived"`
}

// buildEvidence renders the document archived for a non-admin mutation.
func buildEvidence(action string, b *domain.Booking, actor domain.Actor, at time.Time) (domain.Evidence, error) {
	doc := evidenceDoc{
		Action:     action,
		RecordedAt: at.UTC().Format(time.RFC3339),
		Actor:      evidenceActor{ID: actor.ID, Name: actor.Name, Role: actor.Role},
		Booking: evidenceBooking{
			ID:               b.ID,
			Customer:         b.Customer,
			Service:          b.Title,
			Addons:           b.Addons,
			Date:             b.Date,
			EndTime:          b.EndTime,
			Status:           string(b.EffectiveStatus()),
			Vehicle:          vehicleLabel(b),
			Address:          b.Address,
			AssignedEmployee: b.AssignedEmployee,
			BookedBy:         b.BookedBy,
			Notes:            b.Notes,
			Archived:         b.IsArchived,
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("failed to render evidence: %w", err)
	}
	return domain.Evidence{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Action:    action,
		Actor:     actor,
		Document:  string(data),
		At:        at.UTC(),
	}, nil
}

func vehicleLabel(b *domain.Booking) string {
	if b.Vehicle != "" {
		return b.Vehicle
	}
	label := ""
	for _, part := range []string{b.VehicleYear, b.VehicleMake, b.VehicleModel} {
		if part == "" {
			continue
		}
		if label != "" {
			label += " "
		}
		label += part
	}
	return label
}
