// Package sinkerr defines the error kinds raised while resolving and
// assembling sink pipelines. Callers match them with errors.As.
package sinkerr

import (
	"errors"
	"fmt"
)

// ErrInvalidProjectionMode is wrapped by ConfigurationError when a projection
// type is not one of none, blacklist or whitelist.
var ErrInvalidProjectionMode = errors.New("invalid projection mode")

// ErrInvalidKeyProjection is wrapped by ConfigurationError when the key
// projection type and the id strategy do not select exactly one projector.
var ErrInvalidKeyProjection = errors.New("invalid key projection settings")

// ConfigurationError reports an invalid or unknown option value.
type ConfigurationError struct {
	Option      string
	Destination string // empty for global options
	Value       string
	Reason      string
	Err         error
}

func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Destination != "" {
		return fmt.Sprintf("invalid value %q for %s (destination %s): %s", e.Value, e.Option, e.Destination, msg)
	}
	if e.Option == "" {
		return fmt.Sprintf("invalid configuration: %s", msg)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Option, msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ContractViolationError reports a name that resolves to an implementation
// that cannot be constructed through, or does not satisfy, the contract of
// its role.
type ContractViolationError struct {
	Role   string // "stage", "id strategy", "write model strategy", "cdc handler"
	Name   string
	Reason string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("%s %q violates its contract: %s", e.Role, e.Name, e.Reason)
}

// CompatibilityError reports two independently valid settings that cannot be
// combined for one destination.
type CompatibilityError struct {
	Option      string
	Conflicts   string // the option it conflicts with
	Destination string
	Reason      string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("%s is incompatible with %s for destination %s: %s",
		e.Option, e.Conflicts, e.Destination, e.Reason)
}
