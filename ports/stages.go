package ports

import (
	"context"

	"gocortex/domain/core"
	"gocortex/domain/inference"
)

// Encoder turns one raw input event into per-field classifier input:
// the raw value, its bucket index, and its encoded bit representation.
// Encoders are black boxes to this module; only their output shape is fixed.
type Encoder interface {
	Encode(ctx context.Context, value interface{}) (map[core.FieldName]inference.ClassifierInput, error)
}

// SpatialPooler computes a sparse distributed representation from encoded
// input bits
type SpatialPooler interface {
	Compute(ctx context.Context, input []int, learn bool) ([]int, error)
}

// TemporalMemory computes the temporal-context SDR from the spatial
// pooler's output
type TemporalMemory interface {
	Compute(ctx context.Context, active []int, learn bool) ([]int, error)
}

// AnomalyScorer scores how surprising the current SDR is given the
// previous pass's prediction. Scores fall in [0, 1].
type AnomalyScorer interface {
	Score(ctx context.Context, active []int, predicted []int) (float64, error)
}
