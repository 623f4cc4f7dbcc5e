package embedding

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
)

// CircuitBreakerEmbedder wraps any Embedder with a gobreaker circuit so a
// flaky embedding backend degrades instead of cascading failures into every
// add_memory / sleep cycle that wants a vector (spec.md §1: embedder failure
// "is survivable"). internal/llm's clients already guard their own HTTP
// calls with a hand-rolled breaker (internal/llm/circuit_breaker.go); this
// wrapper adds a second, coarser breaker at the bridge boundary so *any*
// Embedder implementation — not just the HTTP ones — gets the same
// survivability guarantee.
type CircuitBreakerEmbedder struct {
	inner   Embedder
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerEmbedder wraps inner with a gobreaker circuit: after 3
// consecutive failures the circuit opens for the given backend's next few
// calls, which fail fast instead of blocking on a dead endpoint.
func NewCircuitBreakerEmbedder(inner Embedder) *CircuitBreakerEmbedder {
	settings := gobreaker.Settings{
		Name:        "embedding-bridge",
		MaxRequests: 2,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &CircuitBreakerEmbedder{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (c *CircuitBreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: circuit breaker: %w", err)
	}
	vec, _ := result.([]float32)
	return vec, nil
}

func (c *CircuitBreakerEmbedder) GetModel() string {
	return c.inner.GetModel()
}

var _ Embedder = (*CircuitBreakerEmbedder)(nil)
