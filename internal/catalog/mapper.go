package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// Kind distinguishes main services from add-ons.
type Kind string

const (
	KindService Kind = "service"
	KindAddon   Kind = "addon"
)

// Offering is a bookable service or add-on.
type Offering struct {
	Name        string        `json:"name"`
	Kind        Kind          `json:"kind"`
	Duration    time.Duration `json:"duration"`
	Price       float64       `json:"price,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Snapshot is a validated catalog.
type Snapshot struct {
	Services  []Offering        `json:"services"`
	Addons    []Offering        `json:"addons"`
	Employees []domain.Employee `json:"employees"`
}

// Map validates a parsed file. Entries without a name are skipped,
// duplicates (case-insensitive) keep the first occurrence. A catalog
// without any service is rejected.
func Map(file File) (Snapshot, error) {
	services, err := mapOfferings(file.Services, KindService)
	if err != nil {
		return Snapshot{}, err
	}
	if len(services) == 0 {
		return Snapshot{}, fmt.Errorf("no valid services found in catalog")
	}
	addons, err := mapOfferings(file.Addons, KindAddon)
	if err != nil {
		return Snapshot{}, err
	}

	employees := make([]domain.Employee, 0, len(file.Employees))
	seen := make(map[string]bool, len(file.Employees))
	for _, e := range file.Employees {
		e.ID = strings.TrimSpace(e.ID)
		e.Name = strings.TrimSpace(e.Name)
		if e.ID == "" || e.Name == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		e.Role = strings.ToLower(strings.TrimSpace(e.Role))
		employees = append(employees, e)
	}

	return Snapshot{Services: services, Addons: addons, Employees: employees}, nil
}

func mapOfferings(specs []OfferingSpec, kind Kind) ([]Offering, error) {
	out := make([]Offering, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		dur := domain.DefaultDuration
		if spec.Duration != "" {
			d, err := time.ParseDuration(spec.Duration)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("invalid duration %q for %s %q", spec.Duration, kind, name)
			}
			dur = d
		}
		out = append(out, Offering{
			Name:        name,
			Kind:        kind,
			Duration:    dur,
			Price:       spec.Price,
			Description: strings.TrimSpace(spec.Description),
		})
	}
	return out, nil
}
