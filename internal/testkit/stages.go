package testkit

import (
	"context"
	"fmt"
	"sort"

	"gocortex/domain/core"
	"gocortex/domain/inference"
)

// Deterministic stand-ins for the learning collaborators. The real
// algorithms live outside this module; these exist so the pipeline, sinks,
// and CLI demo can run end to end with reproducible output.

// StubEncoder encodes a single numeric field: the bucket is the value
// divided by the bucket width, the encoding is a run of Active bits
// starting at the bucket, wrapped into Bits positions.
type StubEncoder struct {
	Field  core.FieldName
	Width  float64
	Bits   int
	Active int
}

// NewStubEncoder creates an encoder with small, readable defaults
func NewStubEncoder(field core.FieldName) *StubEncoder {
	return &StubEncoder{Field: field, Width: 1.0, Bits: 64, Active: 3}
}

// Encode implements ports.Encoder for float64 and int inputs
func (e *StubEncoder) Encode(_ context.Context, value interface{}) (map[core.FieldName]inference.ClassifierInput, error) {
	var v float64
	switch n := value.(type) {
	case float64:
		v = n
	case int:
		v = float64(n)
	default:
		return nil, fmt.Errorf("stub encoder cannot encode %T", value)
	}

	bucket := int(v / e.Width)
	if bucket < 0 {
		bucket = 0
	}

	encoding := make([]int, 0, e.Active)
	for i := 0; i < e.Active; i++ {
		encoding = append(encoding, (bucket+i)%e.Bits)
	}
	sort.Ints(encoding)

	return map[core.FieldName]inference.ClassifierInput{
		e.Field: {
			Field:       e.Field,
			Value:       value,
			BucketIndex: bucket,
			Encoding:    encoding,
		},
	}, nil
}

// StubSpatialPooler maps input bits onto a fixed column space with a
// deterministic scatter
type StubSpatialPooler struct {
	Columns int
}

// Compute implements ports.SpatialPooler
func (p *StubSpatialPooler) Compute(_ context.Context, input []int, _ bool) ([]int, error) {
	columns := p.Columns
	if columns <= 0 {
		columns = 128
	}

	seen := make(map[int]bool, len(input))
	out := make([]int, 0, len(input))
	for _, bit := range input {
		col := (bit*7 + 3) % columns
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	sort.Ints(out)
	return out, nil
}

// StubTemporalMemory passes the active columns through unchanged
type StubTemporalMemory struct{}

// Compute implements ports.TemporalMemory
func (StubTemporalMemory) Compute(_ context.Context, active []int, _ bool) ([]int, error) {
	return active, nil
}

// StubAnomalyScorer scores 1 minus the overlap fraction between the
// current active set and the previous prediction
type StubAnomalyScorer struct{}

// Score implements ports.AnomalyScorer
func (StubAnomalyScorer) Score(_ context.Context, active []int, predicted []int) (float64, error) {
	if len(active) == 0 {
		return 0, nil
	}
	if len(predicted) == 0 {
		return 1, nil
	}

	prev := make(map[int]bool, len(predicted))
	for _, bit := range predicted {
		prev[bit] = true
	}
	overlap := 0
	for _, bit := range active {
		if prev[bit] {
			overlap++
		}
	}
	return 1 - float64(overlap)/float64(len(active)), nil
}

// StubClassifier predicts the value it was just shown with full
// confidence, one step ahead
type StubClassifier struct {
	Calls int
}

// Compute implements inference.Classifier
func (c *StubClassifier) Compute(_ context.Context, in inference.ClassifierInput, _ inference.Inference, _ bool) (*inference.Classification, error) {
	c.Calls++

	result := inference.NewClassification()
	values := make([]interface{}, in.BucketIndex+1)
	values[in.BucketIndex] = in.Value
	result.SetActualValues(values)

	likelihoods := make([]float64, in.BucketIndex+1)
	likelihoods[in.BucketIndex] = 1.0
	result.SetStat(1, likelihoods)
	return result, nil
}
