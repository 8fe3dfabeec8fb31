package types

import "errors"

// Sentinel errors shared by the storage, service and API layers.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid argument")
	ErrCycle    = errors.New("move would create a cycle")
	ErrConflict = errors.New("conflict")
)
