package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrParse = errors.New("invalid category payload")

	errEmptyName = errors.New("empty category name")
)

func errDuplicateName(name string) error {
	return fmt.Errorf("duplicate category name %q", name)
}

// ParseError describes why a payload was rejected. Index is -1 for
// payload-level problems.
type ParseError struct {
	Payload string
	Index   int
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrParse, e.Reason)
	}
	return fmt.Sprintf("%s: element %d: %s", ErrParse, e.Index, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
