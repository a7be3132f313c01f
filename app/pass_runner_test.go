package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"gocortex/domain/core"
	"gocortex/domain/inference"
	"gocortex/internal/testkit"
	"gocortex/ports"
)

type failingEncoder struct{ err error }

func (e failingEncoder) Encode(_ context.Context, _ interface{}) (map[core.FieldName]inference.ClassifierInput, error) {
	return nil, e.err
}

func fullConfig(sink *testkit.RecordingSink) PassConfig {
	classifier := &testkit.StubClassifier{}
	return PassConfig{
		StreamID:    "stream-1",
		Encoder:     testkit.NewStubEncoder("temp"),
		Spatial:     &testkit.StubSpatialPooler{Columns: 128},
		Temporal:    testkit.StubTemporalMemory{},
		Classifiers: inference.Classifiers{"temp": classifier},
		Scorer:      testkit.StubAnomalyScorer{},
		Sinks:       []ports.Sink{sink},
		Learn:       true,
	}
}

func TestRunPassFullPipeline(t *testing.T) {
	sink := &testkit.RecordingSink{}
	runner := NewPassRunner(fullConfig(sink))

	rec, err := runner.RunPass(context.Background(), 1, 21.5)
	assert.NoError(t, err)

	assert.Equal(t, 1, rec.SequenceNumber())
	assert.Equal(t, 21.5, rec.LayerInput())
	assert.NotNil(t, rec.ClassifierInput())
	assert.Contains(t, rec.ClassifierInput(), core.FieldName("temp"))
	assert.NotEmpty(t, rec.SDR())
	assert.NotNil(t, rec.Classification("temp"))
	// First pass has no previous prediction: fully anomalous.
	assert.Equal(t, 1.0, rec.AnomalyScore())

	assert.Len(t, sink.Delivered, 1)
	assert.Equal(t, 1, sink.Delivered[0].SequenceNumber())
}

func TestRunPassAnomalySettles(t *testing.T) {
	runner := NewPassRunner(fullConfig(&testkit.RecordingSink{}))

	_, err := runner.RunPass(context.Background(), 1, 21.5)
	assert.NoError(t, err)

	// Identical input produces the same SDR, so the second pass is fully
	// predicted.
	rec, err := runner.RunPass(context.Background(), 2, 21.5)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, rec.AnomalyScore())
}

func TestRunPassPartialPipeline(t *testing.T) {
	// No encoder, no classifiers, no scorer: only spatial/temporal run over
	// pre-encoded bits. Everything else stays absent.
	sink := &testkit.RecordingSink{}
	runner := NewPassRunner(PassConfig{
		StreamID: "stream-1",
		Spatial:  &testkit.StubSpatialPooler{Columns: 64},
		Temporal: testkit.StubTemporalMemory{},
		Sinks:    []ports.Sink{sink},
	})

	rec, err := runner.RunPass(context.Background(), 7, []int{1, 2, 3})
	assert.NoError(t, err)

	assert.Nil(t, rec.ClassifierInput())
	assert.Nil(t, rec.Classifiers())
	assert.Nil(t, rec.ClassifiedFields())
	assert.NotEmpty(t, rec.SDR())
	assert.Equal(t, 0.0, rec.AnomalyScore())
	assert.Len(t, sink.Delivered, 1)
}

func TestRunPassEncoderFailure(t *testing.T) {
	sink := &testkit.RecordingSink{}
	boom := errors.New("boom")
	runner := NewPassRunner(PassConfig{
		StreamID: "stream-1",
		Encoder:  failingEncoder{err: boom},
		Sinks:    []ports.Sink{sink},
	})

	_, err := runner.RunPass(context.Background(), 1, 21.5)
	assert.Error(t, err)
	assert.True(t, core.IsStageError(err))
	assert.ErrorIs(t, err, core.ErrStageFailed)
	// Failed passes are never delivered.
	assert.Empty(t, sink.Delivered)
}

func TestRunPassCancelledContext(t *testing.T) {
	runner := NewPassRunner(fullConfig(&testkit.RecordingSink{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunPass(ctx, 1, 21.5)
	assert.Error(t, err)
}

func TestRunPassClassifierSeesRecordContext(t *testing.T) {
	classifier := &testkit.StubClassifier{}
	runner := NewPassRunner(PassConfig{
		StreamID:    "stream-1",
		Encoder:     testkit.NewStubEncoder("temp"),
		Classifiers: inference.Classifiers{"temp": classifier},
	})

	rec, err := runner.RunPass(context.Background(), 1, 3.0)
	assert.NoError(t, err)
	assert.Equal(t, 1, classifier.Calls)

	result := rec.Classification("temp")
	assert.NotNil(t, result)
	assert.Equal(t, 3.0, result.MostProbableValue(1))
}
