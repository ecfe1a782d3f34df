package backend

import (
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a response body does not match the
// contract of the endpoint
var ErrUnexpectedShape = errors.New("unexpected response format")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
