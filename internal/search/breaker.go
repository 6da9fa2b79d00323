package search

import (
	"sync"
	"time"

	"shownames/internal/config"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker stops calling the forum after consecutive search failures and
// lets a few trial requests through once the recovery timeout has passed.
type Breaker struct {
	enabled         bool
	threshold       int
	recovery        time.Duration
	halfOpenMax     int
	state           breakerState
	failures        int
	halfOpenSuccess int
	openedAt        time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewBreaker creates a Breaker. A nil or disabled config yields a breaker
// that always allows.
func NewBreaker(cfg *config.CircuitBreakerConfig) *Breaker {
	b := &Breaker{
		threshold:   config.DefaultFailureThreshold,
		recovery:    time.Duration(config.DefaultRecoveryTimeout) * time.Millisecond,
		halfOpenMax: config.DefaultHalfOpenMaxRequests,
		now:         time.Now,
	}
	if cfg == nil || !cfg.Enabled {
		return b
	}
	b.enabled = true
	if cfg.FailureThreshold > 0 {
		b.threshold = cfg.FailureThreshold
	}
	if cfg.RecoveryTimeout > 0 {
		b.recovery = cfg.GetRecoveryTimeoutDuration()
	}
	if cfg.HalfOpenMaxRequests > 0 {
		b.halfOpenMax = cfg.HalfOpenMaxRequests
	}
	return b
}

// Allow returns ErrCircuitOpen if a search must not be attempted now
func (b *Breaker) Allow() error {
	if !b.enabled {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.recovery {
			return ErrCircuitOpen
		}
		b.state = breakerHalfOpen
		b.halfOpenSuccess = 0
	case breakerHalfOpen:
		if b.halfOpenSuccess >= b.halfOpenMax {
			return ErrCircuitOpen
		}
	}
	return nil
}

// Record feeds the outcome of a search back into the breaker
func (b *Breaker) Record(err error) {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		switch b.state {
		case breakerHalfOpen:
			b.halfOpenSuccess++
			if b.halfOpenSuccess >= b.halfOpenMax {
				b.state = breakerClosed
				b.failures = 0
			}
		case breakerClosed:
			b.failures = 0
		}
		return
	}

	switch b.state {
	case breakerClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.state = breakerOpen
			b.openedAt = b.now()
		}
	case breakerHalfOpen:
		b.state = breakerOpen
		b.openedAt = b.now()
		b.halfOpenSuccess = 0
	}
}
