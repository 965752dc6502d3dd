// Package catalog holds the service offerings, add-ons and employee roster
// read from a YAML file, and canonicalizes free-typed service names.
package catalog

import (
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// Catalog is the in-memory, reloadable catalog.
type Catalog struct {
	mu         sync.RWMutex
	snapshot   Snapshot
	employees  map[string]domain.Employee
	lastReload time.Time
}

func New() *Catalog {
	return &Catalog{employees: make(map[string]domain.Employee)}
}

// Replace swaps the whole catalog.
func (c *Catalog) Replace(s Snapshot) {
	byID := make(map[string]domain.Employee, len(s.Employees))
	for _, e := range s.Employees {
		byID[e.ID] = e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
	c.employees = byID
	c.lastReload = time.Now()
}

// Snapshot returns a copy of the current catalog.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Services:  append([]Offering(nil), c.snapshot.Services...),
		Addons:    append([]Offering(nil), c.snapshot.Addons...),
		Employees: append([]domain.Employee(nil), c.snapshot.Employees...),
	}
}

func (c *Catalog) Employees() []domain.Employee {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Employee(nil), c.snapshot.Employees...)
}

// Employee looks an employee up by id.
func (c *Catalog) Employee(id string) (domain.Employee, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.employees[id]
	return e, ok
}

// EmployeeLabel is Employee reduced to its display name.
func (c *Catalog) EmployeeLabel(id string) (string, bool) {
	e, ok := c.Employee(id)
	return e.Name, ok
}

// MatchService canonicalizes a typed service name.
func (c *Catalog) MatchService(query string) (Offering, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return BestMatch(query, c.snapshot.Services)
}

// MatchAddon canonicalizes a typed add-on name.
func (c *Catalog) MatchAddon(query string) (Offering, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return BestMatch(query, c.snapshot.Addons)
}

// Search ranks services and add-ons together.
func (c *Catalog) Search(query string) []Candidate {
	if strings.TrimSpace(query) == "" {
		return []Candidate{}
	}
	c.mu.RLock()
	all := make([]Offering, 0, len(c.snapshot.Services)+len(c.snapshot.Addons))
	all = append(all, c.snapshot.Services...)
	all = append(all, c.snapshot.Addons...)
	c.mu.RUnlock()
	return Rank(query, all)
}

// Count returns the number of services and add-ons.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot.Services) + len(c.snapshot.Addons)
}

func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReload
}
