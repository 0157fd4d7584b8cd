package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards calls to the image-embedding sidecar. After FailureThreshold
// consecutive failures image search and indexing fail fast with
// ErrCircuitOpen for OpenTimeout; then a single trial call decides whether
// the circuit closes again or re-opens.

// CBState represents the current circuit breaker state.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the guarded function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that trip the circuit
	SuccessThreshold int           // successful trials needed to close it again
	OpenTimeout      time.Duration // time spent open before a trial call
}

// DefaultCBConfig returns the defaults used for the embedding service.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "embedding",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// EmbeddingCBConfig applies the EMBEDDING_CB_* settings over the defaults.
func EmbeddingCBConfig(cfg *config.Config) CircuitBreakerConfig {
	c := DefaultCBConfig()
	if cfg.EmbeddingCBFailures > 0 {
		c.FailureThreshold = cfg.EmbeddingCBFailures
	}
	if cfg.EmbeddingCBOpenSeconds > 0 {
		c.OpenTimeout = time.Duration(cfg.EmbeddingCBOpenSeconds) * time.Second
	}
	return c
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu           sync.Mutex
	state        CBState
	failures     int
	successes    int
	openedAt     time.Time
	trialRunning bool
	now          func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State returns the current state, moving an expired open circuit to half-open.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Execute runs fn unless the circuit is open. While half-open only one trial
// runs at a time; concurrent callers get ErrCircuitOpen. A failure caused by
// the caller's own context being cancelled is not held against the service.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	trial, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trialRunning = false
	}
	switch {
	case err == nil:
		cb.onSuccess()
	case ctx.Err() != nil:
		// client went away; no verdict on the service
	default:
		cb.onFailure()
	}
	return err
}

func (cb *CircuitBreaker) admit() (trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	switch cb.state {
	case CBOpen:
		return false, ErrCircuitOpen
	case CBHalfOpen:
		if cb.trialRunning {
			return false, ErrCircuitOpen
		}
		cb.trialRunning = true
		return true, nil
	}
	return false, nil
}

// refresh must be called under lock.
func (cb *CircuitBreaker) refresh() {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transition(CBHalfOpen)
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	switch cb.state {
	case CBClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(CBOpen)
		}
	case CBHalfOpen:
		cb.transition(CBOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(CBClosed)
		}
	}
}

func (cb *CircuitBreaker) transition(to CBState) {
	from := cb.state
	cb.state = to
	cb.successes = 0
	switch to {
	case CBOpen:
		cb.openedAt = cb.now()
		cb.failures = 0
	case CBClosed:
		cb.failures = 0
	}

	evt := log.Info()
	if to == CBOpen {
		evt = log.Warn()
	}
	evt.Str("breaker", cb.cfg.Name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
}
