package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/realtime"
)

// ChangeFeed adapts the booking change channel to realtime.Feed.
type ChangeFeed struct {
	client *redis.Client
	logger logger.Logger
}

func NewChangeFeed(client *redis.Client, log logger.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, logger: log}
}

// Subscribe opens a Pub/Sub subscription and waits for the server to
// confirm it.
func (f *ChangeFeed) Subscribe(ctx context.Context) (realtime.Subscription, error) {
	ps := f.client.Subscribe(ctx, ChannelBookingChanges)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ChannelBookingChanges, err)
	}

	sub := &changeSubscription{
		ps:     ps,
		events: make(chan domain.ChangeEvent, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(f.logger)
	return sub, nil
}

type changeSubscription struct {
	ps     *redis.PubSub
	events chan domain.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *changeSubscription) Events() <-chan domain.ChangeEvent { return s.events }

func (s *changeSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *changeSubscription) pump(log logger.Logger) {
	defer close(s.events)
	messages := s.ps.Channel()
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			ev, err := DecodeChange(msg.Payload)
			if err != nil {
				log.Warn("malformed booking change payload, refetching anyway", logger.Error(err))
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

// DecodeChange parses a change payload. A malformed payload yields an
// empty event, which still triggers a full refetch.
func DecodeChange(payload string) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("failed to unmarshal change event: %w", err)
	}
	return ev, nil
}
