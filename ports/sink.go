package ports

import (
	"context"

	"gocortex/domain/core"
	"gocortex/domain/inference"
)

// Sink consumes finished inference records at the end of a pipeline pass.
// Sinks see only the read-only view and must tolerate absent fields: which
// fields are populated depends entirely on which stages the layer
// configured.
type Sink interface {
	Deliver(ctx context.Context, streamID core.StreamID, inf inference.Inference) error
}

// SinkFunc adapts a plain function to the Sink interface
type SinkFunc func(ctx context.Context, streamID core.StreamID, inf inference.Inference) error

// Deliver calls the wrapped function
func (f SinkFunc) Deliver(ctx context.Context, streamID core.StreamID, inf inference.Inference) error {
	return f(ctx, streamID, inf)
}
