package domain

import "errors"

// ErrUnresolved is the soft failure outcome of a geocoding or lookup call:
// the provider returned no usable data or failed transiently. It never
// crosses the resolver boundary as anything other than this sentinel.
var ErrUnresolved = errors.New("location could not be resolved")

// ValidationError is a user-facing failure attached to a specific submission
// field, ready for the caller to render next to the offending input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
