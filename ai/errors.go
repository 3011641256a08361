package ai

import "errors"

// Errors shared by embedding service implementations. Implementations wrap
// these with detail; callers classify with errors.Is.
var (
	// ErrServiceUnavailable indicates the embedding service could not be
	// reached or started at all.
	ErrServiceUnavailable = errors.New("embedding service unavailable")

	// ErrServiceFailed indicates the service ran but reported a failure or
	// exited abnormally.
	ErrServiceFailed = errors.New("embedding service failed")

	// ErrMalformedResponse indicates the service produced output that could
	// not be decoded.
	ErrMalformedResponse = errors.New("malformed embedding service response")
)
