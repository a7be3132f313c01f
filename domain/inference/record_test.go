package inference

import (
	"context"
	"reflect"
	"testing"

	"gocortex/domain/core"
)

type noopClassifier struct{}

func (noopClassifier) Compute(_ context.Context, _ ClassifierInput, _ Inference, _ bool) (*Classification, error) {
	return NewClassification(), nil
}

// TestNewRecordDefaults tests that a fresh record reports every optional
// field as absent
func TestNewRecordDefaults(t *testing.T) {
	r := NewRecord()

	if r.SequenceNumber() != 0 {
		t.Errorf("Expected sequence number 0, got %d", r.SequenceNumber())
	}
	if r.LayerInput() != nil {
		t.Errorf("Expected nil layer input, got %v", r.LayerInput())
	}
	if r.ClassifierInput() != nil {
		t.Error("Expected nil classifier input on fresh record")
	}
	if r.Classifiers() != nil {
		t.Error("Expected nil classifiers on fresh record")
	}
	if r.SDR() != nil {
		t.Errorf("Expected nil SDR, got %v", r.SDR())
	}
	if r.AnomalyScore() != 0 {
		t.Errorf("Expected anomaly score 0, got %f", r.AnomalyScore())
	}
	if r.ClassifiedFields() != nil {
		t.Error("Expected nil classified fields on fresh record")
	}
}

// TestSetGetRoundTrip tests that every setter stores exactly what the
// getter returns, with no coercion
func TestSetGetRoundTrip(t *testing.T) {
	sdr := []int{2, 17, 33}
	in := map[core.FieldName]ClassifierInput{
		"temp": {Field: "temp", Value: 21.5, BucketIndex: 4, Encoding: []int{0, 1, 1, 0}},
	}
	classifiers := Classifiers{"temp": noopClassifier{}}

	r := NewRecord().
		SetSequenceNumber(42).
		SetLayerInput("foo").
		SetClassifierInput(in).
		SetClassifiers(classifiers).
		SetSDR(sdr).
		SetAnomalyScore(0.5)

	if r.SequenceNumber() != 42 {
		t.Errorf("Expected sequence number 42, got %d", r.SequenceNumber())
	}
	if r.LayerInput() != "foo" {
		t.Errorf("Expected layer input \"foo\", got %v", r.LayerInput())
	}
	if !reflect.DeepEqual(r.ClassifierInput(), in) {
		t.Errorf("Classifier input round trip mismatch: %v", r.ClassifierInput())
	}
	if !reflect.DeepEqual(r.SDR(), sdr) {
		t.Errorf("SDR round trip mismatch: %v", r.SDR())
	}
	if r.AnomalyScore() != 0.5 {
		t.Errorf("Expected anomaly score 0.5, got %f", r.AnomalyScore())
	}
	if len(r.Classifiers()) != 1 {
		t.Errorf("Expected 1 classifier, got %d", len(r.Classifiers()))
	}
}

// TestLayerInputNestedRecord tests that a record can carry another record
// as its layer input, the way a higher layer consumes a lower layer's
// output, and hands back the identical instance
func TestLayerInputNestedRecord(t *testing.T) {
	inner := NewRecord().SetSequenceNumber(3).SetSDR([]int{4, 5})
	outer := NewRecord().SetLayerInput(inner)

	got, ok := outer.LayerInput().(*Record)
	if !ok {
		t.Fatalf("Expected nested *Record layer input, got %T", outer.LayerInput())
	}
	if got != inner {
		t.Error("Expected nested record stored by reference")
	}
	if !reflect.DeepEqual(got.SDR(), []int{4, 5}) {
		t.Errorf("Nested record SDR mismatch: %v", got.SDR())
	}
}

// TestSetterIdempotence tests that repeating a setter with the same value
// leaves the record observably unchanged
func TestSetterIdempotence(t *testing.T) {
	sdr := []int{1, 2, 3}
	r := NewRecord().SetSequenceNumber(7).SetLayerInput("bar").SetSDR(sdr).SetAnomalyScore(0.25)
	r.SetSequenceNumber(7).SetLayerInput("bar").SetSDR(sdr).SetAnomalyScore(0.25)

	if r.SequenceNumber() != 7 || r.LayerInput() != "bar" || r.AnomalyScore() != 0.25 {
		t.Error("Repeated setters changed observable state")
	}
	if !reflect.DeepEqual(r.SDR(), sdr) {
		t.Errorf("Repeated SetSDR changed SDR: %v", r.SDR())
	}
}

// TestClassificationOverwrite tests that per-field results overwrite
// rather than accumulate
func TestClassificationOverwrite(t *testing.T) {
	first := NewClassification()
	second := NewClassification()

	r := NewRecord()
	r.SetClassification("temp", first)
	r.SetClassification("temp", second)

	if got := r.Classification("temp"); got != second {
		t.Errorf("Expected second result after overwrite, got %v", got)
	}
	if fields := r.ClassifiedFields(); len(fields) != 1 {
		t.Errorf("Expected 1 classified field, got %d", len(fields))
	}
}

// TestClassificationAbsentField tests that reading an untouched field
// returns nil instead of faulting, with and without a backing mapping
func TestClassificationAbsentField(t *testing.T) {
	r := NewRecord()

	// No backing mapping at all
	if got := r.Classification("temp"); got != nil {
		t.Errorf("Expected nil for unclassified record, got %v", got)
	}

	// Mapping exists but the field does not
	r.SetClassification("temp", NewClassification())
	if got := r.Classification("humidity"); got != nil {
		t.Errorf("Expected nil for untouched field, got %v", got)
	}
}

// TestSDROverwrite tests that the record keeps only the most recent SDR
func TestSDROverwrite(t *testing.T) {
	r := NewRecord()
	r.SetSDR([]int{1, 2, 3})
	r.SetSDR([]int{9})

	if !reflect.DeepEqual(r.SDR(), []int{9}) {
		t.Errorf("Expected SDR [9], got %v", r.SDR())
	}
}

// TestCopyScenario runs the full branch-copy scenario: shared references
// where learners and results are shared, fresh mapping where isolation is
// required, sequence number reset
func TestCopyScenario(t *testing.T) {
	resultA := NewClassification()
	resultA.SetActualValues([]interface{}{21.5})
	resultA.SetStat(1, []float64{1.0})

	r := NewRecord().
		SetSequenceNumber(5).
		SetLayerInput("foo").
		SetClassifierInput(map[core.FieldName]ClassifierInput{
			"temp": {Field: "temp", Value: 21.5, BucketIndex: 0, Encoding: []int{1}},
		}).
		SetSDR([]int{2, 17, 33}).
		SetAnomalyScore(0.12)
	r.SetClassification("temp", resultA)

	c := r.Copy()

	// The copy seeds a new event: sequence number starts over at 0.
	if c.SequenceNumber() != 0 {
		t.Errorf("Expected copy sequence number 0, got %d", c.SequenceNumber())
	}
	if c.LayerInput() != "foo" {
		t.Errorf("Expected copied layer input \"foo\", got %v", c.LayerInput())
	}
	if !reflect.DeepEqual(c.SDR(), []int{2, 17, 33}) {
		t.Errorf("Expected copied SDR [2 17 33], got %v", c.SDR())
	}
	if c.AnomalyScore() != 0.12 {
		t.Errorf("Expected copied anomaly score 0.12, got %f", c.AnomalyScore())
	}
	if c.Classification("temp") != resultA {
		t.Error("Expected classification result shared by reference after copy")
	}
}

// TestCopyIsolatesClassifierInput tests that mutating the copy's
// classifier-input mapping does not touch the original's
func TestCopyIsolatesClassifierInput(t *testing.T) {
	r := NewRecord().SetClassifierInput(map[core.FieldName]ClassifierInput{
		"temp": {Field: "temp", BucketIndex: 1},
	})

	c := r.Copy()
	c.ClassifierInput()["humidity"] = ClassifierInput{Field: "humidity", BucketIndex: 9}

	if _, ok := r.ClassifierInput()["humidity"]; ok {
		t.Error("Mutating the copy's classifier input leaked into the original")
	}
	if len(c.ClassifierInput()) != 2 {
		t.Errorf("Expected 2 entries in copy, got %d", len(c.ClassifierInput()))
	}
}

// TestCopySharesClassifiers tests that the classifiers mapping is the same
// reference in original and copy: learners are shared, never duplicated
func TestCopySharesClassifiers(t *testing.T) {
	classifiers := Classifiers{"temp": noopClassifier{}}
	r := NewRecord().SetClassifiers(classifiers)

	c := r.Copy()

	if reflect.ValueOf(c.Classifiers()).Pointer() != reflect.ValueOf(r.Classifiers()).Pointer() {
		t.Error("Expected classifiers mapping shared by reference after copy")
	}

	// Mutation through the shared mapping is visible on both sides.
	classifiers["humidity"] = noopClassifier{}
	if len(c.Classifiers()) != 2 {
		t.Errorf("Expected shared classifiers mutation visible in copy, got %d entries", len(c.Classifiers()))
	}
}

// TestCopyWithoutClassifierInput pins the chosen policy for copying a
// record whose encoder never ran: the copy succeeds and absence is
// preserved as nil, not promoted to an empty mapping
func TestCopyWithoutClassifierInput(t *testing.T) {
	r := NewRecord().SetSequenceNumber(3).SetLayerInput(1.5)

	c := r.Copy()

	if c.ClassifierInput() != nil {
		t.Errorf("Expected nil classifier input in copy, got %v", c.ClassifierInput())
	}
	if c.LayerInput() != 1.5 {
		t.Errorf("Expected copied layer input 1.5, got %v", c.LayerInput())
	}
}

// TestCopyResetsSequenceNumber pins the sequence number policy on its own
func TestCopyResetsSequenceNumber(t *testing.T) {
	r := NewRecord().SetSequenceNumber(99)
	if got := r.Copy().SequenceNumber(); got != 0 {
		t.Errorf("Expected copy to reset sequence number to 0, got %d", got)
	}
}

// TestSetterPreconditions tests the fail-fast contract for malformed input
func TestSetterPreconditions(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Record)
	}{
		{"nil classifier input", func(r *Record) { r.SetClassifierInput(nil) }},
		{"nil classifiers", func(r *Record) { r.SetClassifiers(nil) }},
		{"empty classification field", func(r *Record) { r.SetClassification("", NewClassification()) }},
		{"nil classification result", func(r *Record) { r.SetClassification("temp", nil) }},
		{"negative anomaly score", func(r *Record) { r.SetAnomalyScore(-0.1) }},
		{"anomaly score above one", func(r *Record) { r.SetAnomalyScore(1.1) }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for %s", test.name)
				}
			}()
			test.call(NewRecord())
		})
	}
}
