package types

import "fmt"

// ErrValidation indicates bad caller input, rejected before the pipeline
// starts. It is the only error kind reported to callers as a failure; every
// other error class degrades the pipeline instead.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
