package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// Store handles Redis operations for bookings and their side channels
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// FetchAll returns every booking in creation order. Missing or malformed
// documents are skipped.
func (s *Store) FetchAll(ctx context.Context) ([]*domain.Booking, error) {
	ids, err := s.client.ZRange(ctx, KeyBookingIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get booking IDs: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Booking{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookingKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}

	bookings := make([]*domain.Booking, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var b domain.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			continue
		}
		bookings = append(bookings, &b)
	}
	return bookings, nil
}

// Upsert stores a booking, indexes it on first write and publishes the change.
func (s *Store) Upsert(ctx context.Context, b *domain.Booking) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("cannot store a booking without id")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	if err := s.client.Set(ctx, BookingKey(b.ID), string(data), 0).Err(); err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	// NX keeps the original position on updates
	score := float64(s.createdAt(b).UnixMilli())
	if err := s.client.ZAddNX(ctx, KeyBookingIndex, redis.Z{Score: score, Member: b.ID}).Err(); err != nil {
		return fmt.Errorf("failed to index booking: %w", err)
	}

	return s.publishChange(ctx, domain.ChangeEvent{Op: domain.ChangeUpsert, ID: b.ID, Booking: b})
}

// Delete removes a booking and publishes the change.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, BookingKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if err := s.client.ZRem(ctx, KeyBookingIndex, id).Err(); err != nil {
		return fmt.Errorf("failed to remove booking from index: %w", err)
	}
	return s.publishChange(ctx, domain.ChangeEvent{Op: domain.ChangeDelete, ID: id})
}

func (s *Store) publishChange(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := s.client.Publish(ctx, ChannelBookingChanges, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (s *Store) createdAt(b *domain.Booking) time.Time {
	if t, ok := domain.ParseTimestamp(b.CreatedAt, time.UTC); ok {
		return t
	}
	return s.now()
}
