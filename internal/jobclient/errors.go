package jobclient

import (
	"errors"
	"fmt"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
)

// TransportError reports a failed exchange with the job server: the request
// never completed, the server answered with a non-2xx status and no usable
// body, or the body could not be decoded.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("jobclient: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("jobclient: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ValidationError is returned when the server rejected a submission in-band.
// Code is the error code shown on the home view.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return "jobclient: submission rejected"
	}
	return fmt.Sprintf("jobclient: submission rejected (code %s)", e.Code)
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }
