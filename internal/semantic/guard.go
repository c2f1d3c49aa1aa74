// Package semantic wraps a storage.SemanticSearcher with the protections an
// external search backend needs: a circuit breaker against cascading
// failures and a rate limit on outbound queries.
package semantic

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/quillstone/recall/internal/storage"
	"github.com/quillstone/recall/pkg/types"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejects
// requests to prevent cascading failures.
var ErrCircuitOpen = errors.New("semantic search circuit breaker is open")

// GuardConfig holds the configuration for the guarded searcher.
type GuardConfig struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 3
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning
	// to half-open. Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes required
	// in half-open state to close the circuit again. Default: 2
	HalfOpenMaxSuccesses uint32

	// QueriesPerSecond is the rate limit on searches. Zero disables
	// limiting.
	QueriesPerSecond float64

	// Burst is the rate limiter burst size. Default: 1 when limiting is
	// enabled.
	Burst int
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxSuccesses == 0 {
		c.HalfOpenMaxSuccesses = 2
	}
	if c.QueriesPerSecond > 0 && c.Burst == 0 {
		c.Burst = 1
	}
	return c
}

// Guard decorates a SemanticSearcher with a circuit breaker and a rate
// limiter. The orchestrator already degrades gracefully on semantic errors,
// so a tripped breaker simply means empty semantic results for a while
// instead of repeated slow failures against a struggling backend.
type Guard struct {
	inner   storage.SemanticSearcher
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// Ensure *Guard implements storage.SemanticSearcher at compile time.
var _ storage.SemanticSearcher = (*Guard)(nil)

// NewGuard wraps the given searcher.
func NewGuard(inner storage.SemanticSearcher, config GuardConfig) *Guard {
	config = config.withDefaults()

	settings := gobreaker.Settings{
		Name:        "SemanticSearch",
		MaxRequests: config.HalfOpenMaxSuccesses,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
	}

	g := &Guard{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
	if config.QueriesPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(config.QueriesPerSecond), config.Burst)
	}
	return g
}

// Search waits for rate-limit headroom, then runs the wrapped search through
// the circuit breaker.
func (g *Guard) Search(ctx context.Context, userID string, query string, kinds []types.EntityKind, limit int, minSimilarity float64) ([]types.SemanticMatch, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Search(ctx, userID, query, kinds, limit, minSimilarity)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	matches, ok := result.([]types.SemanticMatch)
	if !ok {
		return []types.SemanticMatch{}, nil
	}
	return matches, nil
}
