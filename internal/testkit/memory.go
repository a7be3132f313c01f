package testkit

import (
	"context"
	"sync"

	"gocortex/domain/core"
	"gocortex/domain/inference"
	"gocortex/ports"
)

// RecordingSink captures delivered inferences for assertions
type RecordingSink struct {
	mu        sync.Mutex
	Delivered []inference.Inference
}

// Deliver implements ports.Sink
func (s *RecordingSink) Deliver(_ context.Context, _ core.StreamID, inf inference.Inference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delivered = append(s.Delivered, inf)
	return nil
}

// MemoryRepository is an in-memory ports.ResultRepository for tests and
// the demo CLI
type MemoryRepository struct {
	mu      sync.Mutex
	results map[core.StreamID][]ports.Result
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{results: make(map[core.StreamID][]ports.Result)}
}

// Save implements ports.ResultRepository
func (m *MemoryRepository) Save(_ context.Context, result *ports.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.StreamID] = append(m.results[result.StreamID], *result)
	return nil
}

// ListByStream implements ports.ResultRepository
func (m *MemoryRepository) ListByStream(_ context.Context, streamID core.StreamID, filters ports.ResultFilters) ([]ports.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.results[streamID]
	if filters.Offset >= len(all) {
		return nil, nil
	}
	out := all[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	listed := make([]ports.Result, len(out))
	copy(listed, out)
	return listed, nil
}

// Latest implements ports.ResultRepository
func (m *MemoryRepository) Latest(_ context.Context, streamID core.StreamID) (*ports.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.results[streamID]
	if len(all) == 0 {
		return nil, core.ErrResultNotFound
	}
	latest := all[len(all)-1]
	return &latest, nil
}

// Scores implements ports.ResultRepository
func (m *MemoryRepository) Scores(_ context.Context, streamID core.StreamID, limit int) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.results[streamID]
	scores := make([]float64, 0, len(all))
	for _, result := range all {
		if result.AnomalyScore != nil {
			scores = append(scores, *result.AnomalyScore)
		}
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[len(scores)-limit:]
	}
	return scores, nil
}
