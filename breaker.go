package hsds

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewBreakerConfig returns a factory that creates one circuit breaker per
// endpoint. The breaker trips once an endpoint has served at least three
// requests in the current interval with a failure ratio of 0.6 or more.
// Only transport-level failures and 5xx responses count as failures; 4xx
// responses are caller errors and leave the breaker closed.
func NewBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(endpoint string) *gobreaker.CircuitBreaker[[]byte] {
	return func(endpoint string) *gobreaker.CircuitBreaker[[]byte] {
		settings := gobreaker.Settings{
			Name:        endpoint,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[[]byte](settings)
	}
}
