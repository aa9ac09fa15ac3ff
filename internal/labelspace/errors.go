package labelspace

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownLabel is matched by every UnknownLabelError
	ErrUnknownLabel = errors.New("unknown label")

	// ErrNoExamples is returned when there is nothing to binarize
	ErrNoExamples = errors.New("no examples")

	// ErrLengthMismatch is returned when truth and prediction sequences differ in length
	ErrLengthMismatch = errors.New("truth and prediction lengths differ")
)

// UnknownLabelError reports a label that is not part of the label space
type UnknownLabelError struct {
	Label string
	Side  string // "truth", "prediction" or "id"
	Index int    // Row of the offending example
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown %s label %q at row %d", e.Side, e.Label, e.Index)
}

func (e *UnknownLabelError) Unwrap() error {
	return ErrUnknownLabel
}
