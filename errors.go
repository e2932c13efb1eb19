package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when the registry is asked for something its state cannot provide,
	// such as binding options while no plugin is active.
	ErrInvalidState = errors.New("invalid registry state")
	// ErrNotInvocable is returned when a plugin cannot be called with options.
	ErrNotInvocable = errors.New("plugin is not invocable")
)

// NoSuchEntryPointError indicates that a plugin name is neither registered nor resolvable
// to exactly one entry point of the registry group.
type NoSuchEntryPointError struct {
	Group string
	Name  string
	// Found is the number of entry points matching Name. It is either zero or more than one.
	Found int
}

func (e *NoSuchEntryPointError) Error() string {
	if e.Found > 1 {
		return fmt.Sprintf("%d %q entry points found in group %q, expected exactly one", e.Found, e.Name, e.Group)
	}
	return fmt.Sprintf("no %q entry point found in group %q", e.Name, e.Group)
}

// ConfigurationError carries a custom message configured for a missing entry point.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// TypeCheckError indicates that a value failed the type check of the registry on registration.
type TypeCheckError struct {
	Name  string
	Value any
	Cause error
}

func (e *TypeCheckError) Error() string {
	return fmt.Sprintf("plugin %q of type %T rejected by type check: %v", e.Name, e.Value, e.Cause)
}

func (e *TypeCheckError) Unwrap() error {
	return e.Cause
}

// LoadError indicates that an entry point could not be loaded into a plugin.
type LoadError struct {
	Group string
	Name  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load entry point %q in group %q: %v", e.Name, e.Group, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
