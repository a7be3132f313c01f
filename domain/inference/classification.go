package inference

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Classification holds the result of a single classifier invocation for one
// field: the likelihood distribution over buckets for each predicted step
// ahead, plus the actual values seen per bucket. A record retains only the
// latest Classification per field; each classification pass replaces the
// previous one wholesale.
type Classification struct {
	actualValues []interface{}
	stats        map[int][]float64
}

// NewClassification creates an empty classification result
func NewClassification() *Classification {
	return &Classification{
		stats: make(map[int][]float64),
	}
}

// SetActualValues stores the actual value observed for each bucket index
func (c *Classification) SetActualValues(values []interface{}) {
	c.actualValues = values
}

// ActualValues returns the actual values indexed by bucket
func (c *Classification) ActualValues() []interface{} {
	return c.actualValues
}

// ActualValue returns the actual value for a bucket, or nil if the bucket
// has never been seen
func (c *Classification) ActualValue(bucket int) interface{} {
	if bucket < 0 || bucket >= len(c.actualValues) {
		return nil
	}
	return c.actualValues[bucket]
}

// SetStat stores the likelihood distribution over buckets for one
// prediction step
func (c *Classification) SetStat(step int, likelihoods []float64) {
	c.stats[step] = likelihoods
}

// Stat returns the likelihood distribution for a prediction step, or nil if
// that step was never computed
func (c *Classification) Stat(step int) []float64 {
	return c.stats[step]
}

// Probability returns the likelihood of a bucket at a prediction step
func (c *Classification) Probability(step, bucket int) float64 {
	dist := c.stats[step]
	if bucket < 0 || bucket >= len(dist) {
		return 0
	}
	return dist[bucket]
}

// MostProbableBucket returns the bucket with the highest likelihood at a
// prediction step, or -1 if the step has no distribution
func (c *Classification) MostProbableBucket(step int) int {
	dist := c.stats[step]
	if len(dist) == 0 {
		return -1
	}
	return floats.MaxIdx(dist)
}

// MostProbableValue returns the actual value of the most probable bucket at
// a prediction step, or nil if nothing was computed for that step
func (c *Classification) MostProbableValue(step int) interface{} {
	bucket := c.MostProbableBucket(step)
	if bucket < 0 {
		return nil
	}
	return c.ActualValue(bucket)
}

// Steps returns the prediction steps with a computed distribution, sorted
// ascending
func (c *Classification) Steps() []int {
	steps := make([]int, 0, len(c.stats))
	for s := range c.stats {
		steps = append(steps, s)
	}
	sort.Ints(steps)
	return steps
}
