package inference

import (
	"math"

	"gocortex/domain/core"
)

// Inference is the read-only view of one pipeline pass, handed to output
// sinks and other external consumers. Every field except the sequence number
// is optional: it stays absent (nil) until the stage that produces it runs,
// and a stage that was never configured leaves it absent for the life of the
// record. Consumers check for nil rather than expecting every field.
type Inference interface {
	// SequenceNumber returns the event sequence number for this pass
	SequenceNumber() int
	// LayerInput returns the raw input to the stage pipeline, or nil if no
	// stage has run
	LayerInput() interface{}
	// ClassifierInput returns the per-field encoder output, or nil if no
	// encoder is configured
	ClassifierInput() map[core.FieldName]ClassifierInput
	// Classifiers returns the configured per-field classifiers, or nil if
	// classification is not configured
	Classifiers() Classifiers
	// SDR returns the active bit indices produced by the most recent
	// spatial/temporal stage, or nil if neither has run
	SDR() []int
	// Classification returns the latest result for one field, or nil if the
	// field was never classified
	Classification(field core.FieldName) *Classification
	// ClassifiedFields returns the field names with a stored result, or nil
	// if classification never ran
	ClassifiedFields() []core.FieldName
	// AnomalyScore returns the most recent anomaly calculation; meaningful
	// only after the anomaly stage has run
	AnomalyScore() float64
}

// Record is the mutable inference-result carrier threaded through one layer
// pipeline pass. The driving pipeline creates one Record per input event,
// each configured stage writes its own field in pipeline order, and the
// finished record is delivered to sinks as an Inference. A Record is owned
// by exactly one pass; branch pipelines take a Copy instead of sharing it.
type Record struct {
	sequenceNum     int
	layerInput      interface{}
	classifierInput map[core.FieldName]ClassifierInput
	classifiers     Classifiers
	sdr             []int
	classification  map[core.FieldName]*Classification
	anomalyScore    float64
}

var _ Inference = (*Record)(nil)

// NewRecord creates an empty record: sequence number 0, every optional
// field absent
func NewRecord() *Record {
	return &Record{}
}

// SetSequenceNumber stores the event sequence number for this pass
func (r *Record) SetSequenceNumber(n int) *Record {
	r.sequenceNum = n
	return r
}

// SequenceNumber returns the event sequence number
func (r *Record) SequenceNumber() int {
	return r.sequenceNum
}

// SetLayerInput stores the raw input for this pass, overwriting any
// previous value. The value is opaque to the record.
func (r *Record) SetLayerInput(value interface{}) *Record {
	r.layerInput = value
	return r
}

// LayerInput returns the most recent input, or nil before any stage runs
func (r *Record) LayerInput() interface{} {
	return r.layerInput
}

// SetClassifierInput replaces the whole per-field encoder output mapping.
// The encoding stage calls this once per pass. Panics on a nil mapping;
// absence is the record's default state, not something a stage sets.
func (r *Record) SetClassifierInput(in map[core.FieldName]ClassifierInput) *Record {
	if in == nil {
		panic(core.ErrNilMapping)
	}
	r.classifierInput = in
	return r
}

// ClassifierInput returns the encoder output mapping, or nil if no encoder
// is configured. The mapping is never lazily created on read, so a nil
// return always means "encoding never ran".
func (r *Record) ClassifierInput() map[core.FieldName]ClassifierInput {
	return r.classifierInput
}

// SetClassifiers replaces the field-to-classifier mapping. This is a
// configuration-time operation: classifiers are long-lived learners, set
// once and left stable across passes. Panics on a nil mapping.
func (r *Record) SetClassifiers(c Classifiers) *Record {
	if c == nil {
		panic(core.ErrNilMapping)
	}
	r.classifiers = c
	return r
}

// Classifiers returns the configured classifiers, or nil if classification
// was never configured
func (r *Record) Classifiers() Classifiers {
	return r.classifiers
}

// SetSDR replaces the sparse-vector result for this pass. Each spatial or
// temporal stage overwrites the previous SDR; the record keeps only the
// most recent one.
func (r *Record) SetSDR(sdr []int) *Record {
	r.sdr = sdr
	return r
}

// SDR returns the active bit indices, or nil if no spatial/temporal stage
// has run
func (r *Record) SDR() []int {
	return r.sdr
}

// SetClassification stores the latest result for exactly one field,
// overwriting any previous result for that field and leaving other fields
// untouched. The backing mapping is lazily initialized on first call.
// Panics on an empty field name or a nil result.
func (r *Record) SetClassification(field core.FieldName, result *Classification) *Record {
	if field == "" {
		panic(core.ErrEmptyFieldName)
	}
	if result == nil {
		panic(core.ErrNilClassification)
	}
	if r.classification == nil {
		r.classification = make(map[core.FieldName]*Classification)
	}
	r.classification[field] = result
	return r
}

// Classification returns the latest result for one field. Returns nil,
// never faults, when the field was never classified or when no
// classification ran at all this pass.
func (r *Record) Classification(field core.FieldName) *Classification {
	if r.classification == nil {
		return nil
	}
	return r.classification[field]
}

// ClassifiedFields returns the field names with a stored classification
// result, or nil if classification never ran
func (r *Record) ClassifiedFields() []core.FieldName {
	if r.classification == nil {
		return nil
	}
	fields := make([]core.FieldName, 0, len(r.classification))
	for f := range r.classification {
		fields = append(fields, f)
	}
	return fields
}

// SetAnomalyScore replaces the anomaly score for this pass. Panics on NaN
// or a value outside [0, 1].
func (r *Record) SetAnomalyScore(score float64) *Record {
	if math.IsNaN(score) || score < 0 || score > 1 {
		panic(core.ErrScoreOutOfRange)
	}
	r.anomalyScore = score
	return r
}

// AnomalyScore returns the most recent anomaly calculation
func (r *Record) AnomalyScore() float64 {
	return r.anomalyScore
}

// Copy produces an independent record to seed a branch pipeline. The
// classifier-input mapping is freshly copied so branch encoders cannot
// disturb the original; the classifiers mapping, layer input, SDR, and
// classification mapping are shared by reference (classifiers are stateful
// learners owned elsewhere and must not be duplicated; the rest are
// read-shared by convention, see the concurrency notes). The anomaly score
// carries over. The sequence number does not: the copy seeds a new event
// and starts back at 0. A nil classifier-input mapping copies as nil.
func (r *Record) Copy() *Record {
	out := NewRecord()
	if r.classifierInput != nil {
		in := make(map[core.FieldName]ClassifierInput, len(r.classifierInput))
		for k, v := range r.classifierInput {
			in[k] = v
		}
		out.classifierInput = in
	}
	out.classifiers = r.classifiers
	out.layerInput = r.layerInput
	out.sdr = r.sdr
	out.classification = r.classification
	out.anomalyScore = r.anomalyScore
	return out
}
