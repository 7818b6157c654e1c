package catalog

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

var (
	// ErrUnknownField is returned when a field name is not in the catalog.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidCatalog is returned when a catalog definition is malformed.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// LoadError describes a malformed catalog file.
// It always matches ErrInvalidCatalog with errors.Is.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position, zero for YAML input
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return ErrInvalidCatalog
}
