package offers

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks input rejected before any service call.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidTransition marks a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid request status transition")
	// ErrUnknownRequest is returned when a request id is not in the local collection.
	ErrUnknownRequest = errors.New("request not in local collection")
)

// ServiceError wraps a failed call to the request or chat service.
// The local collection is never modified when one is returned.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err is, or wraps, a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
