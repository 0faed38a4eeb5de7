// Package transport holds http.RoundTripper decorators used by the job client.
package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/james-jasvin/Emotion-Recognizer/internal/infra"
)

// HeaderRequestID is the header correlating client logs with server logs.
const HeaderRequestID = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RequestID stamps every outgoing request with an X-Request-ID unless the
// caller already set one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	next = orDefault(next)
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(HeaderRequestID) != "" {
			return next.RoundTrip(req)
		}
		clone := req.Clone(req.Context())
		clone.Header.Set(HeaderRequestID, uuid.NewString())
		return next.RoundTrip(clone)
	})
}

// Logging writes one debug line per request with the outcome and latency.
// Failures are logged at warn level; deciding what to do about them is left
// to the caller.
func Logging(next http.RoundTripper, logger *infra.Logger) http.RoundTripper {
	next = orDefault(next)
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		elapsed := time.Since(start)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("request_id", req.Header.Get(HeaderRequestID)).
				Dur("duration", elapsed).
				Msg("transport: request failed")
			return nil, err
		}
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Dur("duration", elapsed).
			Msg("transport: request completed")
		return resp, nil
	})
}

// Chain wraps base with request ids on the outside so logged requests carry them.
func Chain(base http.RoundTripper, logger *infra.Logger) http.RoundTripper {
	return RequestID(Logging(base, logger))
}

func orDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
