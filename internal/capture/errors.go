package capture

import "errors"

// Transport-open failure kinds. Start classifies and returns them without
// retrying; the caller decides whether to try again.
var (
	ErrNoDevice         = errors.New("trace device not found")
	ErrNoInterface      = errors.New("trace interface unavailable")
	ErrAccessDenied     = errors.New("access to trace device denied")
	ErrEndpointNotFound = errors.New("bulk trace endpoint not found")
	ErrAlreadyRunning   = errors.New("capture already running")
)
