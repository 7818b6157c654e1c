package querytree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperator is returned when an operator is not allowed for a field.
	ErrInvalidOperator = errors.New("operator not allowed for field")

	// ErrInvalidValue is returned when a value is not allowed for a field.
	ErrInvalidValue = errors.New("value not allowed for field")

	// ErrInvalidLogic is returned for a logic other than AND or OR.
	ErrInvalidLogic = errors.New("invalid logic")

	// ErrInvalidEdit is returned for malformed edit requests.
	ErrInvalidEdit = errors.New("invalid edit")
)

// EditError reports a rejected edit. The tree is left unchanged.
type EditError struct {
	Op  EditOp
	Ref Ref
	ID  string // target id, empty for container-level edits
	Err error
}

func (e *EditError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s at %s (id=%s): %v", e.Op, e.Ref, e.ID, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Op, e.Ref, e.Err)
}

func (e *EditError) Unwrap() error {
	return e.Err
}
