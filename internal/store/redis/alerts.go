package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// PublishAlert pushes an alert to the admin channel.
func (s *Store) PublishAlert(ctx context.Context, a domain.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := s.client.Publish(ctx, ChannelAlerts, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// MarkReminder records that the reminder of a booking due at due was sent.
// It reports false when the marker already existed.
func (s *Store) MarkReminder(ctx context.Context, bookingID string, due time.Time, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, ReminderKey(bookingID, due), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder: %w", err)
	}
	return ok, nil
}
