package store

import (
	"context"

	"gocortex/domain/core"
	"gocortex/domain/inference"
	"gocortex/ports"
)

// SinkAdapter exposes a repository as a pipeline output sink: every
// delivered record is flattened and saved
type SinkAdapter struct {
	repo ports.ResultRepository
	now  func() core.Timestamp
}

// NewSink creates a sink persisting delivered records into repo
func NewSink(repo ports.ResultRepository) *SinkAdapter {
	return &SinkAdapter{repo: repo, now: core.Now}
}

// Deliver implements ports.Sink
func (s *SinkAdapter) Deliver(ctx context.Context, streamID core.StreamID, inf inference.Inference) error {
	return s.repo.Save(ctx, ports.FlattenInference(streamID, s.now(), inf))
}
