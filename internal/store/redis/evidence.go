package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// EvidenceIndexCap bounds the evidence index list.
const EvidenceIndexCap = 5000

// SaveEvidence archives an evidence document.
func (s *Store) SaveEvidence(ctx context.Context, ev domain.Evidence) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}
	if err := s.client.Set(ctx, EvidenceKey(ev.ID), string(data), 0).Err(); err != nil {
		return fmt.Errorf("failed to save evidence: %w", err)
	}
	if err := s.client.LPush(ctx, KeyEvidenceIndex, ev.ID).Err(); err != nil {
		return fmt.Errorf("failed to index evidence: %w", err)
	}
	if err := s.client.LTrim(ctx, KeyEvidenceIndex, 0, EvidenceIndexCap-1).Err(); err != nil {
		return fmt.Errorf("failed to trim evidence index: %w", err)
	}
	return nil
}
