package anomaly

import (
	"github.com/montanaflynn/stats"

	"gocortex/domain/core"
)

// Summary aggregates the anomaly scores delivered for one stream
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summarize computes a summary over a batch of anomaly scores
func Summarize(scores []float64) (*Summary, error) {
	if len(scores) == 0 {
		return nil, core.NewValidationError("scores", "cannot summarize an empty batch")
	}

	data := stats.Float64Data(scores)
	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	median, err := data.Median()
	if err != nil {
		return nil, err
	}
	p95, err := data.Percentile(95)
	if err != nil {
		// Percentile needs at least two samples
		p95 = scores[0]
	}
	max, err := data.Max()
	if err != nil {
		return nil, err
	}

	return &Summary{
		Count:  len(scores),
		Mean:   mean,
		Median: median,
		P95:    p95,
		Max:    max,
	}, nil
}
