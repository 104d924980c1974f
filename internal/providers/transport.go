// Package providers contains typed clients over the external market-data
// providers. Every operation fails soft: on timeout, auth failure, network
// error or malformed payload it returns the absent sentinel for its type
// (nil slice, nil pointer, zeroed struct) and never propagates an error.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pumpfun-radar/internal/observability"
)

// statusError is an HTTP status carried as an error so callers can react
// to 401/429 (key rotation) and 404 (normal "unknown").
type statusError struct {
	code    int
	snippet string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.snippet)
}

// rotatable reports whether the status should advance the key ring.
func (e *statusError) rotatable() bool {
	return e.code == http.StatusUnauthorized || e.code == http.StatusTooManyRequests
}

// transport is the shared HTTP layer for one provider: per-call timeout,
// token-bucket rate limit, circuit breaker and structured status logging.
type transport struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
}

func newTransport(name string, timeout time.Duration, rps float64, burst int, logger *log.Logger) *transport {
	if logger == nil {
		logger = log.Default()
	}
	return &transport{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// 404 is a normal "unknown" answer, not an outage.
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var se *statusError
				return errors.As(err, &se) && se.code == http.StatusNotFound
			},
		}),
		logger: logger,
	}
}

// getJSON performs a GET and decodes the body into out. A non-2xx status
// is returned as *statusError; 404 decodes nothing and returns the status
// error without tripping the breaker.
func (t *transport) getJSON(ctx context.Context, op, url string, header http.Header, out interface{}) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, t.doGet(ctx, url, header, out)
	})

	kind := ""
	if err != nil {
		kind = classifyError(err)
	}
	observability.RecordProviderCall(t.name, op, time.Since(start).Seconds(), kind)
	return err
}

func (t *transport) doGet(ctx context.Context, url string, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, snippet: snippet(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal payload (%s): %w", snippet(body), err)
		}
	}
	return nil
}

// classifyError maps an error to a metric label.
func classifyError(err error) string {
	var se *statusError
	switch {
	case errors.As(err, &se) && se.rotatable():
		return "rate_limited"
	case errors.As(err, &se) && se.code == http.StatusNotFound:
		return "not_found"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "network"
	}
}

// snippet returns a short payload excerpt for log lines.
func snippet(b []byte) string {
	const max = 120
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
