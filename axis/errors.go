package axis

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ErrProtocolMismatch is matched by every ProtocolMismatchError.
var ErrProtocolMismatch = errors.New("protocol mismatch")

// A ConfigurationError reports a component that is configured with values it
// cannot run with. It is always fatal.
type ConfigurationError struct {
	Component string
	Reason    string
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(
	component string,
	format string,
	args ...any,
) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) true.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// A ProtocolMismatchError reports a transaction whose field widths do not
// agree with the widths the receiving side is configured with.
type ProtocolMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf(
		"protocol mismatch on %s: configured width %d, got %d",
		e.Field, e.Want, e.Got,
	)
}

// Is makes errors.Is(err, ErrProtocolMismatch) true.
func (e *ProtocolMismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}
