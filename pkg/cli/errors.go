package cli

import "fmt"

// CommandError wraps a failure from one saturn subcommand with the
// command name, so cobra's top-level error output names the command
// that failed.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("saturn %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err as a CommandError for the named subcommand.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// UnsupportedFormatError is returned by NewFormatter for a format name
// it does not recognize.
type UnsupportedFormatError struct {
	Format OutputFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q", string(e.Format))
}
