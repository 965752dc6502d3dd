package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// DeadLetterCap bounds the dead-letter list.
const DeadLetterCap = 1000

// Enqueue schedules a side effect to run at due.
func (s *Store) Enqueue(ctx context.Context, e domain.SideEffect, due time.Time) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal side effect: %w", err)
	}
	z := redis.Z{Score: float64(due.UnixMilli()), Member: string(data)}
	if err := s.client.ZAdd(ctx, KeyOutbox, z).Err(); err != nil {
		return fmt.Errorf("failed to enqueue side effect: %w", err)
	}
	return nil
}

// Due returns up to limit side effects whose due time is not after now,
// oldest first. Records that do not decode are skipped.
func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]domain.SideEffect, error) {
	raws, err := s.client.ZRangeByScore(ctx, KeyOutbox, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}

	out := make([]domain.SideEffect, 0, len(raws))
	for _, raw := range raws {
		var e domain.SideEffect
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		e.Raw = raw
		out = append(out, e)
	}
	return out, nil
}

// Claim removes a record returned by Due. Only one worker can win the claim.
func (s *Store) Claim(ctx context.Context, e domain.SideEffect) (bool, error) {
	n, err := s.client.ZRem(ctx, KeyOutbox, e.Raw).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim side effect: %w", err)
	}
	return n == 1, nil
}

// Reschedule puts a claimed side effect back on the queue at due.
func (s *Store) Reschedule(ctx context.Context, e domain.SideEffect, due time.Time) error {
	e.Raw = ""
	return s.Enqueue(ctx, e, due)
}

// DeadLetter parks a side effect that exhausted its attempts.
func (s *Store) DeadLetter(ctx context.Context, e domain.SideEffect) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal side effect: %w", err)
	}
	if err := s.client.LPush(ctx, KeyOutboxDead, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to dead-letter side effect: %w", err)
	}
	if err := s.client.LTrim(ctx, KeyOutboxDead, 0, DeadLetterCap-1).Err(); err != nil {
		return fmt.Errorf("failed to trim dead letters: %w", err)
	}
	return nil
}

// Pending counts scheduled side effects.
func (s *Store) Pending(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, KeyOutbox).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}

// DeadLetters counts parked side effects.
func (s *Store) DeadLetters(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, KeyOutboxDead).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count dead letters: %w", err)
	}
	return n, nil
}
