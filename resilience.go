// Package httpcache provides a http.RoundTripper implementation that works as
// a mostly RFC 7234 compliant cache for HTTP responses.
package httpcache

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// ResilienceConfig holds the configuration for resilience policies wrapped
// around an OriginExecutor. Resilience features are disabled by default and
// must be explicitly enabled.
type ResilienceConfig struct {
	// RetryPolicy configures retry behavior using failsafe-go.
	// If nil, retry is disabled.
	RetryPolicy retrypolicy.RetryPolicy[*http.Response]

	// CircuitBreaker configures circuit breaker behavior using failsafe-go.
	// If nil, circuit breaking is disabled.
	CircuitBreaker circuitbreaker.CircuitBreaker[*http.Response]
}

// RetryPolicyBuilder creates a pre-configured retry policy builder for
// origin requests. Default configuration retries network errors and 5xx
// status codes, up to 3 times, with exponential backoff from 100ms to 10s.
func RetryPolicyBuilder() retrypolicy.Builder[*http.Response] {
	return retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(r *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode >= 500
		}).
		WithMaxRetries(3).
		WithBackoff(100*time.Millisecond, 10*time.Second)
}

// CircuitBreakerBuilder creates a pre-configured circuit breaker builder for
// origin requests. Default configuration opens after 5 consecutive
// failures, half-opens after 60s, and closes after 2 consecutive successes.
func CircuitBreakerBuilder() circuitbreaker.Builder[*http.Response] {
	return circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(r *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode >= 500
		}).
		WithFailureThreshold(5).
		WithSuccessThreshold(2).
		WithDelay(60 * time.Second)
}

// ResilientExecutor wraps an OriginExecutor with failsafe-go retry and
// circuit-breaker policies, so a flaky or overloaded origin degrades
// gracefully instead of taking down every request through the cache.
type ResilientExecutor struct {
	Next       OriginExecutor
	Resilience ResilienceConfig
}

func (e ResilientExecutor) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	var policies []failsafe.Policy[*http.Response]
	if e.Resilience.RetryPolicy != nil {
		policies = append(policies, e.Resilience.RetryPolicy)
	}
	if e.Resilience.CircuitBreaker != nil {
		policies = append(policies, e.Resilience.CircuitBreaker)
	}
	if len(policies) == 0 {
		return e.Next.Execute(ctx, req)
	}

	return failsafe.With(policies...).Get(func() (*http.Response, error) {
		return e.Next.Execute(ctx, req)
	})
}
