package verify

import (
	"errors"
	"fmt"
)

// ErrDailyLimit reports that the record-search upstream refused the request
// with its rate-limit status (HTTP 429).
var ErrDailyLimit = errors.New("daily search limit exceeded")

// StatusError reports a non-200 reply from an upstream verification service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// SchemaError reports an upstream payload that no longer matches the expected
// response shape.
type SchemaError struct {
	Service string
	Cause   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: response does not match expected schema: %v", e.Service, e.Cause)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}
