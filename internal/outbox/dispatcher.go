package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/detailcal/internal/customers"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// ErrUnknownKind is returned for side effects no handler is registered for.
var ErrUnknownKind = errors.New("no handler for side effect kind")

// Handler performs one side effect.
type Handler func(ctx context.Context, payload json.RawMessage) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent or names an
// unknown kind.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p) || errors.Is(err, ErrUnknownKind)
}

// Dispatcher routes side effects to handlers by kind.
type Dispatcher struct {
	handlers map[domain.SideEffectKind]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[domain.SideEffectKind]Handler)}
}

// Handle registers h for kind, replacing any previous handler.
func (d *Dispatcher) Handle(kind domain.SideEffectKind, h Handler) {
	d.handlers[kind] = h
}

// Dispatch runs the handler registered for e.Kind.
func (d *Dispatcher) Dispatch(ctx context.Context, e domain.SideEffect) error {
	h, ok := d.handlers[e.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return h(ctx, e.Payload)
}

// AlertPublisher delivers push alerts.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a domain.Alert) error
}

// EvidenceArchive stores evidence documents.
type EvidenceArchive interface {
	SaveEvidence(ctx context.Context, ev domain.Evidence) error
}

// ContactSyncer upserts customer contacts.
type ContactSyncer interface {
	Sync(ctx context.Context, c domain.CustomerContact) (customers.Customer, error)
}

// AlertHandler decodes a domain.Alert and publishes it.
func AlertHandler(pub AlertPublisher) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var a domain.Alert
		if err := json.Unmarshal(payload, &a); err != nil {
			return Permanent(fmt.Errorf("failed to decode alert: %w", err))
		}
		return pub.PublishAlert(ctx, a)
	}
}

// EvidenceHandler decodes a domain.Evidence and archives it.
func EvidenceHandler(archive EvidenceArchive) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var ev domain.Evidence
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Permanent(fmt.Errorf("failed to decode evidence: %w", err))
		}
		return archive.SaveEvidence(ctx, ev)
	}
}

// CustomerSyncHandler decodes a domain.CustomerContact and upserts it.
func CustomerSyncHandler(syncer ContactSyncer) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var c domain.CustomerContact
		if err := json.Unmarshal(payload, &c); err != nil {
			return Permanent(fmt.Errorf("failed to decode customer contact: %w", err))
		}
		if _, err := syncer.Sync(ctx, c); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return Permanent(err)
			}
			return err
		}
		return nil
	}
}
