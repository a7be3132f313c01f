package inference

import (
	"context"

	"gocortex/domain/core"
)

// ClassifierInput describes one encoded input field for a single pass: the
// field name, the raw value seen on the wire, the bucket the encoder assigned
// to it, and the encoded bit representation.
type ClassifierInput struct {
	Field       core.FieldName
	Value       interface{}
	BucketIndex int
	Encoding    []int
}

// Classifier is a stateful learner tracking the classification of one field.
// Instances are long-lived, owned by layer configuration, and shared across
// records; they are never duplicated when a record is copied.
type Classifier interface {
	// Compute runs one classification step for the given encoded field in the
	// context of the partially populated record, optionally learning from it.
	Compute(ctx context.Context, in ClassifierInput, rec Inference, learn bool) (*Classification, error)
}

// Classifiers maps input field names to the classifier tracking each field.
type Classifiers map[core.FieldName]Classifier

// Fields returns the field names with a configured classifier.
func (c Classifiers) Fields() []core.FieldName {
	fields := make([]core.FieldName, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	return fields
}
