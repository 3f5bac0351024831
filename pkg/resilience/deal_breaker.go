// Package resilience provides fault tolerance for upstream source fetches.
package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"deal_server/pkg/logger"
)

// BreakerRegistry keeps one circuit breaker per upstream source. A feed that
// keeps failing trips its own breaker without affecting the other sources.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates an empty breaker registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// For returns the breaker for the given source, creating it on first use.
func (r *BreakerRegistry) For(sourceID string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[sourceID]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        sourceID,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithSource(name).Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	r.breakers[sourceID] = cb
	return cb
}

// Execute runs fn through the source's breaker.
func (r *BreakerRegistry) Execute(sourceID string, fn func() (interface{}, error)) (interface{}, error) {
	return r.For(sourceID).Execute(fn)
}

// States returns the current breaker state per source.
func (r *BreakerRegistry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string, len(r.breakers))
	for id, cb := range r.breakers {
		states[id] = cb.State().String()
	}
	return states
}
