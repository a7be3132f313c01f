package ports

import (
	"context"
	"fmt"
	"sort"

	"gocortex/domain/core"
	"gocortex/domain/inference"
)

// Result is the flattened, persistence-ready view of one finished pipeline
// pass. Optional carrier fields stay optional here: nil means the producing
// stage never ran for that pass.
type Result struct {
	ID           core.PassID       `json:"id"`
	StreamID     core.StreamID     `json:"stream_id"`
	Sequence     int               `json:"sequence"`
	RecordedAt   core.Timestamp    `json:"recorded_at"`
	LayerInput   *string           `json:"layer_input,omitempty"`
	SDR          []int             `json:"sdr,omitempty"`
	AnomalyScore *float64          `json:"anomaly_score,omitempty"`
	Predictions  []FieldPrediction `json:"predictions,omitempty"`
}

// FieldPrediction is the stored summary of one field's latest
// classification: the most probable value one step ahead and its likelihood
type FieldPrediction struct {
	Field          core.FieldName `json:"field"`
	PredictedValue string         `json:"predicted_value"`
	Probability    float64        `json:"probability"`
}

// ResultFilters narrows result listings
type ResultFilters struct {
	Limit  int
	Offset int
}

// ResultRepository persists and queries finished inference results
type ResultRepository interface {
	Save(ctx context.Context, result *Result) error
	ListByStream(ctx context.Context, streamID core.StreamID, filters ResultFilters) ([]Result, error)
	Latest(ctx context.Context, streamID core.StreamID) (*Result, error)
	// Scores returns up to limit most recent anomaly scores for a stream,
	// oldest first; passes whose anomaly stage never ran are skipped
	Scores(ctx context.Context, streamID core.StreamID, limit int) ([]float64, error)
}

// FlattenInference converts a finished record into its persistence-ready
// form, preserving field absence. The classification summary reads the
// one-step-ahead prediction for every classified field.
func FlattenInference(streamID core.StreamID, at core.Timestamp, inf inference.Inference) *Result {
	result := &Result{
		ID:         core.NewPassID(),
		StreamID:   streamID,
		Sequence:   inf.SequenceNumber(),
		RecordedAt: at,
		SDR:        inf.SDR(),
	}

	if input := inf.LayerInput(); input != nil {
		s := fmt.Sprintf("%v", input)
		result.LayerInput = &s
	}

	// The anomaly score is only meaningful when the stage produced an SDR to
	// score; a bare zero on a record with no SDR means the stage never ran.
	if inf.SDR() != nil {
		score := inf.AnomalyScore()
		result.AnomalyScore = &score
	}

	result.Predictions = flattenPredictions(inf)
	return result
}

func flattenPredictions(inf inference.Inference) []FieldPrediction {
	fields := inf.ClassifiedFields()
	if fields == nil {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	predictions := make([]FieldPrediction, 0, len(fields))
	for _, field := range fields {
		c := inf.Classification(field)
		if c == nil {
			continue
		}
		bucket := c.MostProbableBucket(1)
		if bucket < 0 {
			continue
		}
		predictions = append(predictions, FieldPrediction{
			Field:          field,
			PredictedValue: fmt.Sprintf("%v", c.ActualValue(bucket)),
			Probability:    c.Probability(1, bucket),
		})
	}
	return predictions
}
