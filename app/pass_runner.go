package app

import (
	"context"
	"sort"

	"gocortex/domain/core"
	"gocortex/domain/inference"
	"gocortex/internal"
	"gocortex/ports"
)

// PassRunner drives one layer's stage pipeline. It creates one Record per
// input event, threads it by reference through whichever stages are
// configured in encode, spatial, temporal, classify, anomaly order, and
// delivers the finished record to the configured sinks as a read-only
// Inference. Any stage may be left unconfigured; its field simply stays
// absent on the record.
//
// A runner is single-threaded: one record is mutated by one pass at a
// time. Concurrent branches take Copy() via BranchRunner instead of
// sharing a record.
type PassRunner struct {
	streamID    core.StreamID
	encoder     ports.Encoder
	spatial     ports.SpatialPooler
	temporal    ports.TemporalMemory
	classifiers inference.Classifiers
	scorer      ports.AnomalyScorer
	sinks       []ports.Sink
	learn       bool

	// SDR of the previous pass, fed to the anomaly scorer as its prediction
	prevSDR []int

	logger *internal.Logger
}

// PassConfig wires a runner. Every stage is optional; Sinks may be empty
// when the caller consumes returned records directly.
type PassConfig struct {
	StreamID    core.StreamID
	Encoder     ports.Encoder
	Spatial     ports.SpatialPooler
	Temporal    ports.TemporalMemory
	Classifiers inference.Classifiers
	Scorer      ports.AnomalyScorer
	Sinks       []ports.Sink
	Learn       bool
}

// NewPassRunner creates a pass runner from its stage configuration
func NewPassRunner(cfg PassConfig) *PassRunner {
	return &PassRunner{
		streamID:    cfg.StreamID,
		encoder:     cfg.Encoder,
		spatial:     cfg.Spatial,
		temporal:    cfg.Temporal,
		classifiers: cfg.Classifiers,
		scorer:      cfg.Scorer,
		sinks:       cfg.Sinks,
		learn:       cfg.Learn,
		logger:      internal.DefaultLogger.WithComponent("pass_runner"),
	}
}

// RunPass processes one input event and returns the populated record.
// Stage errors wrap the stage name; the record is not delivered to sinks
// when a stage fails.
func (r *PassRunner) RunPass(ctx context.Context, seq int, value interface{}) (*inference.Record, error) {
	rec := inference.NewRecord().
		SetSequenceNumber(seq).
		SetLayerInput(value)

	if r.classifiers != nil {
		rec.SetClassifiers(r.classifiers)
	}

	if err := r.runEncode(ctx, rec, value); err != nil {
		return nil, err
	}
	if err := r.runSpatialTemporal(ctx, rec, value); err != nil {
		return nil, err
	}
	if err := r.runClassify(ctx, rec); err != nil {
		return nil, err
	}
	if err := r.runAnomaly(ctx, rec); err != nil {
		return nil, err
	}

	for _, sink := range r.sinks {
		if err := sink.Deliver(ctx, r.streamID, rec); err != nil {
			return nil, core.NewStageError("deliver", err)
		}
	}

	r.logger.Debug("pass %d complete for stream %s", seq, r.streamID)
	return rec, nil
}

func (r *PassRunner) runEncode(ctx context.Context, rec *inference.Record, value interface{}) error {
	if r.encoder == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := r.encoder.Encode(ctx, value)
	if err != nil {
		return core.NewStageError("encode", err)
	}
	rec.SetClassifierInput(in)
	return nil
}

func (r *PassRunner) runSpatialTemporal(ctx context.Context, rec *inference.Record, value interface{}) error {
	if r.spatial == nil && r.temporal == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bits := inputBits(rec, value)
	if r.spatial != nil {
		out, err := r.spatial.Compute(ctx, bits, r.learn)
		if err != nil {
			return core.NewStageError("spatial", err)
		}
		rec.SetSDR(out)
		bits = out
	}
	if r.temporal != nil {
		out, err := r.temporal.Compute(ctx, bits, r.learn)
		if err != nil {
			return core.NewStageError("temporal", err)
		}
		// Overwrites the spatial result: the record carries only the most
		// recent stage's SDR.
		rec.SetSDR(out)
	}
	return nil
}

func (r *PassRunner) runClassify(ctx context.Context, rec *inference.Record) error {
	if r.classifiers == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Deterministic field order keeps learners' update order stable.
	fields := r.classifiers.Fields()
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	for _, field := range fields {
		in, ok := rec.ClassifierInput()[field]
		if !ok {
			// No encoder output for this field this pass; its entry stays
			// whatever it was.
			r.logger.Debug("no classifier input for field %s, skipping", field)
			continue
		}
		result, err := r.classifiers[field].Compute(ctx, in, rec, r.learn)
		if err != nil {
			return core.NewStageError("classify", err)
		}
		rec.SetClassification(field, result)
	}
	return nil
}

func (r *PassRunner) runAnomaly(ctx context.Context, rec *inference.Record) error {
	if r.scorer == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	score, err := r.scorer.Score(ctx, rec.SDR(), r.prevSDR)
	if err != nil {
		return core.NewStageError("anomaly", err)
	}
	rec.SetAnomalyScore(score)
	r.prevSDR = rec.SDR()
	return nil
}

// inputBits picks the bit input for the spatial stage: the union of the
// encoder's per-field encodings when an encoder ran, otherwise a raw []int
// layer input when the caller supplies pre-encoded bits.
func inputBits(rec *inference.Record, value interface{}) []int {
	if in := rec.ClassifierInput(); in != nil {
		seen := make(map[int]bool)
		var bits []int
		for _, field := range in {
			for _, bit := range field.Encoding {
				if !seen[bit] {
					seen[bit] = true
					bits = append(bits, bit)
				}
			}
		}
		sort.Ints(bits)
		return bits
	}
	if bits, ok := value.([]int); ok {
		return bits
	}
	return nil
}
