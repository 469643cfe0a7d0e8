// Package circuitbreaker provides circuit breaker functionality using sony/gobreaker.
package circuitbreaker

import (
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
)

// State represents the circuit breaker state.
type State = gobreaker.State

// States
const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Manager manages one circuit breaker per upstream endpoint. The breakers
// never retry; they only fail fast while the provider is down.
type Manager struct {
	cfg      config.CircuitBreakerConfig
	breakers map[string]*gobreaker.CircuitBreaker[any]
	mu       sync.RWMutex
}

// NewManager creates a new circuit breaker manager.
func NewManager(cfg config.CircuitBreakerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Get returns or creates the circuit breaker for the given upstream name.
func (m *Manager) Get(name string) *gobreaker.CircuitBreaker[any] {
	m.mu.RLock()
	cb, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, exists = m.breakers[name]; exists {
		return cb
	}

	cb = m.createBreaker(name)
	m.breakers[name] = cb
	return cb
}

func (m *Manager) createBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: m.cfg.MaxRequests,
		Interval:    m.cfg.Interval,
		Timeout:     m.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(m.cfg.FailureThreshold)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				logger.String("upstream", name),
				logger.String("from", stateToString(from)),
				logger.String("to", stateToString(to)),
			)
		},
	})
}

// Execute executes fn with circuit breaker protection. When the manager is
// disabled by configuration, fn runs directly. A breaker that refuses the
// call surfaces as ServiceUnavailable rather than leaking gobreaker errors.
func (m *Manager) Execute(name string, fn func() (any, error)) (any, error) {
	if !m.cfg.Enabled {
		return fn()
	}

	result, err := m.Get(name).Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, errors.New(errors.CodeUnavailable, "upstream temporarily unavailable", errors.ErrServiceUnavailable).
			WithDetail("upstream", name)
	}
	return result, err
}

// ExecuteTyped executes a typed function with circuit breaker protection.
func ExecuteTyped[T any](m *Manager, name string, fn func() (T, error)) (T, error) {
	result, err := m.Execute(name, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// State returns the current state of a circuit breaker.
func (m *Manager) State(name string) gobreaker.State {
	return m.Get(name).State()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
