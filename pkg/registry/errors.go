package registry

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a lookup for an unregistered prompt or version.
type NotFoundError struct {
	// Prompt is the prompt name.
	Prompt string

	// Version is the requested version, empty for prompt-level misses.
	Version string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("prompt %q not registered", e.Prompt)
	}
	return fmt.Sprintf("prompt %q version %q not registered", e.Prompt, e.Version)
}

// MissingVariableError indicates template placeholders with no value.
type MissingVariableError struct {
	// Prompt is the prompt name.
	Prompt string

	// Version is the rendered version.
	Version string

	// Variables are the placeholders with no value, in template order.
	Variables []string
}

// Error implements the error interface.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt %q version %q: no value for variable(s) %s",
		e.Prompt, e.Version, strings.Join(e.Variables, ", "))
}
