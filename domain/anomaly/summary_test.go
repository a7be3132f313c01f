package anomaly

import (
	"math"
	"reflect"
	"testing"
)

// TestSummarize tests summary statistics over a batch of scores
func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{0.1, 0.2, 0.3, 0.4, 1.0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s.Count != 5 {
		t.Errorf("Expected count 5, got %d", s.Count)
	}
	if math.Abs(s.Mean-0.4) > 1e-9 {
		t.Errorf("Expected mean 0.4, got %f", s.Mean)
	}
	if math.Abs(s.Median-0.3) > 1e-9 {
		t.Errorf("Expected median 0.3, got %f", s.Median)
	}
	if s.Max != 1.0 {
		t.Errorf("Expected max 1.0, got %f", s.Max)
	}
	if s.P95 < s.Median || s.P95 > s.Max {
		t.Errorf("Expected p95 between median and max, got %f", s.P95)
	}
}

// TestSummarizeEmpty tests that an empty batch is rejected
func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(nil); err == nil {
		t.Error("Expected error for empty batch")
	}
}

// TestSummarizeSingle tests the single-sample degenerate case
func TestSummarizeSingle(t *testing.T) {
	s, err := Summarize([]float64{0.7})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Mean != 0.7 || s.Median != 0.7 || s.Max != 0.7 {
		t.Errorf("Expected all statistics 0.7, got %+v", s)
	}
}

// TestWindowEviction tests that the rolling window evicts oldest-first
func TestWindowEviction(t *testing.T) {
	w := NewWindow(3)
	for _, score := range []float64{0.1, 0.2, 0.3, 0.4} {
		w.Add(score)
	}

	if w.Len() != 3 {
		t.Errorf("Expected window length 3, got %d", w.Len())
	}
	if got := w.Scores(); !reflect.DeepEqual(got, []float64{0.2, 0.3, 0.4}) {
		t.Errorf("Expected [0.2 0.3 0.4] oldest first, got %v", got)
	}
}

// TestWindowPartial tests a window that has not filled yet
func TestWindowPartial(t *testing.T) {
	w := NewWindow(5)
	w.Add(0.9)
	w.Add(0.8)

	if w.Len() != 2 {
		t.Errorf("Expected window length 2, got %d", w.Len())
	}
	if got := w.Scores(); !reflect.DeepEqual(got, []float64{0.9, 0.8}) {
		t.Errorf("Expected [0.9 0.8], got %v", got)
	}

	s, err := w.Summarize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Count != 2 {
		t.Errorf("Expected summary count 2, got %d", s.Count)
	}
}
