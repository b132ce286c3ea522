package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Checker probes target URLs before a link is created. Probes retry with
// exponential backoff and stop early when the circuit opens, so a flaky
// upstream cannot stall link creation for everyone.
type Checker struct {
	client *http.Client
	cb     *CircuitBreaker
}

func NewChecker(timeout time.Duration, maxFailures int, cbInterval time.Duration) *Checker {
	return &Checker{
		client: &http.Client{Timeout: timeout},
		cb:     NewCircuitBreaker(maxFailures, cbInterval),
	}
}

// Check reports nil when the target answers a HEAD (or, for servers that
// reject HEAD, a GET) with a non-5xx status.
func (c *Checker) Check(ctx context.Context, target string) error {
	resp, err := c.attemptWithRetry(ctx, func(method string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, method, target, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return nil
}

func (c *Checker) attemptWithRetry(ctx context.Context, reqFactory func(method string) (*http.Request, error)) (*http.Response, error) {
	if err := c.cb.CheckBeforeRequest(); err != nil {
		slog.Error("Probe blocked by circuit breaker", slog.String("error", err.Error()))
		return nil, err
	}

	const maxRetries = 2
	const baseDelay = 100 * time.Millisecond
	const maxJitterMs = 100

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	var response *http.Response

	method := http.MethodHead
	for i := 0; i <= maxRetries; i++ {
		req, err := reqFactory(method)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}

		response, err = c.client.Do(req)
		lastErr = err

		if err == nil {
			if response.StatusCode < 500 && response.StatusCode != http.StatusMethodNotAllowed {
				c.cb.OnSuccess()
				return response, nil
			}
			if response.StatusCode == http.StatusMethodNotAllowed {
				method = http.MethodGet
			}
		}

		if i == maxRetries {
			break
		}

		backoff := baseDelay * time.Duration(math.Pow(2, float64(i)))
		jitter := time.Duration(r.Intn(maxJitterMs)) * time.Millisecond
		sleepDuration := backoff + jitter

		if response != nil {
			response.Body.Close()
		}

		slog.Warn("Probe failed, retrying",
			slog.Int("attempt", i+1),
			slog.String("sleep_duration", sleepDuration.String()),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepDuration):
		}
	}

	c.cb.OnFailure()

	if lastErr != nil {
		return nil, fmt.Errorf("all probes failed, last network error: %w", lastErr)
	}

	return nil, fmt.Errorf("all probes failed, last status: %s", response.Status)
}
