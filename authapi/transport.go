package authapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

const requestIDHeader = "X-Request-ID"

// BreakerSettings configures the circuit breaker in front of the Auth API.
type BreakerSettings struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// FailureRatio trips the breaker once this share of requests has failed.
	FailureRatio float64

	// MinRequests is the number of requests needed before FailureRatio is evaluated.
	MinRequests uint32

	// Timeout is how long the breaker stays open before letting a trial request through.
	Timeout time.Duration
}

// DefaultBreakerSettings returns the defaults used when no config is supplied.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "auth-api",
		FailureRatio: 0.5,
		MinRequests:  5,
		Timeout:      30 * time.Second,
	}
}

// errServerFailure marks a 5xx answer as a breaker failure while keeping the response.
var errServerFailure = errors.New("auth api server failure")

// callerDoneError wraps a transport error raised after the request's own context
// was cancelled or timed out. The breaker does not count it as a failure.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

// breakerTransport counts transport errors and 5xx answers against a circuit
// breaker and fails fast while it is open. Requests abandoned by their caller
// are not counted. It never retries.
type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerTransport(next http.RoundTripper, s BreakerSettings) *breakerTransport {
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		IsSuccessful: func(err error) bool {
			var done *callerDoneError
			return err == nil || errors.As(err, &done)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	return &breakerTransport{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(requestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, uuid.New().String())
	}

	var resp *http.Response
	_, err := t.breaker.Execute(func() (*http.Response, error) {
		r, err := t.next.RoundTrip(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, &callerDoneError{err: err}
			}
			return nil, err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return r, errServerFailure
		}
		return r, nil
	})

	switch {
	case errors.Is(err, errServerFailure):
		return resp, nil
	case isBreakerRejection(err):
		return nil, fmt.Errorf("%w (%v)", ErrCircuitOpen, err)
	case errors.As(err, new(*callerDoneError)):
		return nil, errors.Unwrap(err)
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// State returns the current breaker state.
func (t *breakerTransport) State() gobreaker.State {
	return t.breaker.State()
}

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
