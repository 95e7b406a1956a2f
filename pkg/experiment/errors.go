package experiment

import "fmt"

// NotFoundError indicates an operation on an unknown experiment.
type NotFoundError struct {
	// Name is the experiment name.
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("experiment %q not found", e.Name)
}

// StateError indicates an operation invalid in the experiment's current
// lifecycle state.
type StateError struct {
	// Name is the experiment name.
	Name string

	// State is the experiment's current state.
	State State

	// Op is the rejected operation.
	Op string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("experiment %q: cannot %s in state %s", e.Name, e.Op, e.State)
}

// ConfigError indicates an invalid experiment definition.
type ConfigError struct {
	// Name is the experiment name.
	Name string

	// Reason describes what is invalid.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("experiment %q: %s", e.Name, e.Reason)
}

// UnknownVersionError indicates a metric or graduation for a version not
// part of the experiment.
type UnknownVersionError struct {
	// Name is the experiment name.
	Name string

	// Version is the unknown version.
	Version string
}

// Error implements the error interface.
func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("experiment %q: version %q is not part of the experiment", e.Name, e.Version)
}
