package nd

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is the kind of every ShapeError.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError reports that an operation received arrays or slices whose
// shapes cannot be combined. It indicates a bug in the caller, retrying
// will not help.
type ShapeError struct {
	Op   string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Want == nil {
		return fmt.Sprintf("%s: %s: got %v", ErrShapeMismatch, e.Op, e.Got)
	}
	return fmt.Sprintf("%s: %s: want %v, got %v", ErrShapeMismatch, e.Op, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }
