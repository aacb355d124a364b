package stage

import (
	"errors"
	"fmt"
)

// ErrStructure marks a document whose shape cannot be normalized: the top
// level is not an object, or a collection field is not a list of the
// expected element type. A missing field is never ErrStructure.
var ErrStructure = errors.New("unexpected document structure")

type ValidationError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s document: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s document: field %s: %v", e.Kind, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func structuref(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrStructure}, args...)...)
}
