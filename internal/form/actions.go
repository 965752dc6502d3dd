package form

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

// ToggleArchive flips the archive flag of the booking with id.
func (c *Controller) ToggleArchive(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	current, ok := c.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	archived := !current.IsArchived
	updated, ok := c.store.Update(ctx, id, domain.Patch{IsArchived: &archived})
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	if archived {
		c.emit(ctx, ActionArchived, updated, actor)
		c.notifier.Notify(notify.LevelSuccess, "Booking archived")
	} else {
		c.emit(ctx, ActionUnarchived, updated, actor)
		c.notifier.Notify(notify.LevelSuccess, "Booking restored")
	}
	return updated, nil
}

// Confirm sets the status of the booking with id to confirmed.
func (c *Controller) Confirm(ctx context.Context, id string, actor domain.Actor) (*domain.Booking, error) {
	status := domain.StatusConfirmed
	updated, ok := c.store.Update(ctx, id, domain.Patch{Status: &status})
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	c.emit(ctx, ActionConfirmed, updated, actor)
	c.notifier.Notify(notify.LevelSuccess, "Booking confirmed")
	return updated, nil
}

// Delete removes the booking with id. confirmed must be true; deletion is
// permanent, archiving is the reversible alternative.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool, actor domain.Actor) error {
	if !confirmed {
		return &domain.ValidationError{Field: "confirm", Message: "Deletion must be confirmed"}
	}
	current, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if !c.store.Remove(ctx, id) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	c.emit(ctx, ActionDeleted, current, actor)
	c.notifier.Notify(notify.LevelSuccess, "Booking deleted")
	return nil
}
