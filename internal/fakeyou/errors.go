package fakeyou

import (
	"errors"
	"fmt"
)

// Errors returned by the client. Wrapped causes keep the sentinel matchable
// with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials supplied")
	ErrUndefinedResponse  = errors.New("undefined HTTP response")
	ErrTooManyRequests    = errors.New("denied due to too many requests")
	ErrImproperResponse   = errors.New("improper response structure")
	ErrJobFailed          = errors.New("job failed")
	ErrIO                 = errors.New("file read/write error")
	ErrRequest            = errors.New("error making request")
	ErrSerialization      = errors.New("error serializing JSON")
	ErrPollLimit          = errors.New("job did not finish within the poll limit")
)

func requestError(err error) error {
	return fmt.Errorf("%w: %w", ErrRequest, err)
}

func serializationError(err error) error {
	return fmt.Errorf("%w: %w", ErrSerialization, err)
}

func improper(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrImproperResponse, fmt.Sprintf(format, args...))
}
