package breaker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "orderflow/internal/errors"
	"orderflow/internal/metrics"
)

// Operation names guarded by the registry.
const (
	OpFetchCart     = "fetch-cart"
	OpClearCart     = "clear-cart"
	OpValidateToken = "validate-token"
)

type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens a circuit.
	FailureThreshold uint32
	// Cooldown is how long an open circuit short-circuits before allowing one trial call.
	Cooldown time.Duration
}

// Registry owns one circuit breaker per operation name. Breakers are created
// on first use and shared by every request targeting that operation.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	settings Settings
	logger   *zap.Logger
}

func NewRegistry(settings Settings, logger *zap.Logger) *Registry {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	return &Registry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		settings: settings,
		logger:   logger,
	}
}

// Register creates the named breakers up front so their state is exported
// before the first call.
func (r *Registry) Register(names ...string) {
	for _, name := range names {
		r.breaker(name)
	}
}

func (r *Registry) breaker(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	threshold := r.settings.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     r.settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			r.logger.Warn("circuit breaker state changed",
				zap.String("circuit", cbName),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	r.breakers[name] = cb
	return cb
}

// State returns "closed", "open" or "half-open".
func (r *Registry) State(name string) string {
	return r.breaker(name).State().String()
}

// Snapshot returns the current state of every known breaker.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = r.State(name)
	}
	return out
}

// Execute runs call through the breaker for name. When the call fails with an
// error the breaker counts, or the breaker short-circuits it, fallback decides
// the result. A 4xx from the downstream is returned as is: the dependency
// answered, it just said no.
func Execute[T any](
	ctx context.Context,
	r *Registry,
	name string,
	call func(ctx context.Context) (T, error),
	fallback func(ctx context.Context, err error) (T, error),
) (T, error) {
	var zero T

	result, err := r.breaker(name).Execute(func() (interface{}, error) {
		return call(ctx)
	})
	if err == nil {
		return result.(T), nil
	}

	if _, ok := apperrors.IsRemoteRejectedError(err); ok {
		return zero, err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerShortCircuits.WithLabelValues(name).Inc()
		r.logger.Warn("circuit open, using fallback", zap.String("circuit", name))
	} else {
		metrics.CircuitBreakerFailures.WithLabelValues(name).Inc()
	}

	if fallback == nil {
		return zero, err
	}
	return fallback(ctx, err)
}

// isSuccessful decides what the breaker counts as a failure. Rejections and
// callers walking away say nothing about the downstream's health.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if _, ok := apperrors.IsRemoteRejectedError(err); ok {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
