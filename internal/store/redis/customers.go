package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/customers"
)

// LoadCustomers returns the cached customer list, or nil when none was saved.
func (s *Store) LoadCustomers(ctx context.Context) ([]customers.Customer, error) {
	data, err := s.client.Get(ctx, KeyCustomerCache).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer cache: %w", err)
	}

	var list []customers.Customer
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer cache: %w", err)
	}
	return list, nil
}

// SaveCustomers replaces the cached customer list.
func (s *Store) SaveCustomers(ctx context.Context, list []customers.Customer) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal customer cache: %w", err)
	}
	if err := s.client.Set(ctx, KeyCustomerCache, string(data), 0).Err(); err != nil {
		return fmt.Errorf("failed to save customer cache: %w", err)
	}
	return nil
}
