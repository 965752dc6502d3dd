package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// Emitter turns payloads into side effects and queues them for immediate
// processing.
type Emitter struct {
	queue Queue
	now   func() time.Time
}

func NewEmitter(queue Queue) *Emitter {
	return &Emitter{queue: queue, now: time.Now}
}

// Emit queues payload under kind.
func (em *Emitter) Emit(ctx context.Context, kind domain.SideEffectKind, payload any) (domain.SideEffect, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.SideEffect{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	now := em.now().UTC()
	e := domain.SideEffect{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   data,
		CreatedAt: now,
	}
	if err := em.queue.Enqueue(ctx, e, now); err != nil {
		return domain.SideEffect{}, err
	}
	return e, nil
}
