package customers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

// Source is the primary customer store. *Repository implements it.
type Source interface {
	List(ctx context.Context) ([]Customer, error)
	Upsert(ctx context.Context, contact domain.CustomerContact) (Customer, error)
}

// Cache persists the last non-empty list between restarts.
type Cache interface {
	LoadCustomers(ctx context.Context) ([]Customer, error)
	SaveCustomers(ctx context.Context, list []Customer) error
}

// Directory serves the customer picker. It remembers the last non-empty
// list and serves it whenever the source fails or comes back empty.
type Directory struct {
	source Source
	cache  Cache
	logger logger.Logger

	mu   sync.RWMutex
	last []Customer
	byID map[string]Customer
}

// NewDirectory accepts a nil source (no database configured) and a nil cache.
func NewDirectory(source Source, cache Cache, log logger.Logger) *Directory {
	return &Directory{
		source: source,
		cache:  cache,
		logger: log,
		byID:   make(map[string]Customer),
	}
}

// Warm loads the persisted cache. Errors are logged only.
func (d *Directory) Warm(ctx context.Context) {
	if d.cache == nil {
		return
	}
	list, err := d.cache.LoadCustomers(ctx)
	if err != nil {
		d.logger.Warn("failed to load cached customers", logger.Error(err))
		return
	}
	if len(list) > 0 {
		d.remember(list)
		d.logger.Info("loaded cached customers", logger.Int("count", len(list)))
	}
}

// List returns the customers from the source, or the cached list when the
// source is absent, fails or returns nothing.
func (d *Directory) List(ctx context.Context) []Customer {
	if d.source == nil {
		return d.cached()
	}

	list, err := d.source.List(ctx)
	if err != nil {
		d.logger.Warn("customer source unavailable, serving cache", logger.Error(err))
		return d.cached()
	}
	if len(list) == 0 {
		return d.cached()
	}

	d.remember(list)
	if d.cache != nil {
		if err := d.cache.SaveCustomers(ctx, list); err != nil {
			d.logger.Warn("failed to persist customer cache", logger.Error(err))
		}
	}
	return append([]Customer(nil), list...)
}

// Lookup finds a customer by id in the last known list.
func (d *Directory) Lookup(id string) (Customer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.byID[id]
	return c, ok
}

// CustomerLabel is Lookup reduced to the display name.
func (d *Directory) CustomerLabel(id string) (string, bool) {
	c, ok := d.Lookup(id)
	return c.Name, ok
}

// Sync writes a contact to the source and folds the result into the cache.
// Without a source the contact only lands in the local cache.
func (d *Directory) Sync(ctx context.Context, contact domain.CustomerContact) (Customer, error) {
	var c Customer
	if d.source != nil {
		stored, err := d.source.Upsert(ctx, contact)
		if err != nil {
			return Customer{}, err
		}
		c = stored
	} else {
		c = merge(d.findByName(contact.Name), contact)
	}

	d.mu.Lock()
	replaced := false
	for i := range d.last {
		if strings.EqualFold(d.last[i].Name, c.Name) {
			d.last[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		d.last = append(d.last, c)
		sort.SliceStable(d.last, func(i, j int) bool { return d.last[i].Name < d.last[j].Name })
	}
	if c.ID != "" {
		d.byID[c.ID] = c
	}
	snapshot := append([]Customer(nil), d.last...)
	d.mu.Unlock()

	if d.cache != nil {
		if err := d.cache.SaveCustomers(ctx, snapshot); err != nil {
			d.logger.Warn("failed to persist customer cache", logger.Error(err))
		}
	}
	return c, nil
}

// Count returns the size of the last known list.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.last)
}

// HasSource reports whether a database is configured.
func (d *Directory) HasSource() bool { return d.source != nil }

func (d *Directory) cached() []Customer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Customer(nil), d.last...)
}

func (d *Directory) remember(list []Customer) {
	byID := make(map[string]Customer, len(list))
	for _, c := range list {
		if c.ID != "" {
			byID[c.ID] = c
		}
	}
	d.mu.Lock()
	d.last = append([]Customer(nil), list...)
	d.byID = byID
	d.mu.Unlock()
}

func (d *Directory) findByName(name string) Customer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.last {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c
		}
	}
	return Customer{}
}

// merge applies the same rule as the database upsert: blanks never overwrite.
func merge(c Customer, contact domain.CustomerContact) Customer {
	if c.Name == "" {
		c.Name = strings.TrimSpace(contact.Name)
	}
	if c.ID == "" {
		c.ID = contact.ID
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.Phone, contact.Phone)
	set(&c.Email, contact.Email)
	set(&c.Address, contact.Address)
	set(&c.Vehicle, contact.Vehicle)
	set(&c.VehicleYear, contact.VehicleYear)
	set(&c.VehicleMake, contact.VehicleMake)
	set(&c.VehicleModel, contact.VehicleModel)
	return c
}
