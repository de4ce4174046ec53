package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Store and backend errors
	ErrNotFound           = fmt.Errorf("not found")
	ErrDuplicate          = fmt.Errorf("duplicate record")
	ErrConstraint         = fmt.Errorf("constraint violation")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrCourseNotFound     = fmt.Errorf("%w: course", ErrNotFound)

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrUnrecognizedVideo = fmt.Errorf("unrecognized video reference")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidFlag       = fmt.Errorf("invalid flag value")
)
