package objstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches the requested class and id.
	ErrNotFound = errors.New("objstore: object not found")

	// ErrInvalidOperation reports a caller contract violation, such as a
	// single-object read without an id.
	ErrInvalidOperation = errors.New("objstore: invalid operation")

	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("objstore: invalid configuration")

	// ErrPermissionDenied is returned by the built-in root guard hooks.
	ErrPermissionDenied = errors.New("objstore: permission denied")
)

// ConfigurationError describes a hook descriptor rejected at load time.
type ConfigurationError struct {
	Index  int    // Position of the descriptor in the configured list
	Name   string // Descriptor name, may be empty
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("objstore: hooks[%d] (%s): %s", e.Index, e.Name, e.Reason)
	}
	return fmt.Sprintf("objstore: hooks[%d]: %s", e.Index, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidConfiguration) match any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func invalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidOperation}, args...)...)
}
