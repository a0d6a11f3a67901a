package engine

import "fmt"

// FatalFileError aborts one file; the rest of the batch continues.
type FatalFileError struct {
	File string
	Err  error
}

func (e *FatalFileError) Error() string { return fmt.Sprintf("file %s: %v", e.File, e.Err) }
func (e *FatalFileError) Unwrap() error { return e.Err }

// InvariantError reports an internal inconsistency. The run produces no
// views when one is raised.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.Msg }
