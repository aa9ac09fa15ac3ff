package score

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is matched by every ShapeMismatchError
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeMismatchError reports operands that cannot be scored together
type ShapeMismatchError struct {
	Op   string
	Want string
	Got  string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

func sameShape(op string, truth, pred mat.Matrix) error {
	tr, tc := truth.Dims()
	pr, pc := pred.Dims()
	if tr != pr || tc != pc {
		return &ShapeMismatchError{
			Op:   op,
			Want: fmt.Sprintf("%dx%d", tr, tc),
			Got:  fmt.Sprintf("%dx%d", pr, pc),
		}
	}
	return nil
}
