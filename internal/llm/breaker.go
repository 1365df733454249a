package llm

import (
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned without touching the upstream when the breaker
// is rejecting calls.
var ErrBreakerOpen = fmt.Errorf("llm: circuit breaker open")

// CircuitBreaker guards the upstream model with the usual three states:
// consecutive failures trip it open, a cooldown later a single half-open
// probe decides whether it closes again.
type CircuitBreaker struct {
	failureThreshold int
	cooldown         time.Duration
	log              *logger.Logger

	mu           sync.Mutex
	state        BreakerState
	failures     int
	openedAt     time.Time
	probeInUse   bool
	transitions  int
	lastFailure  time.Time
	totalTripped int
}

func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, baseLog *logger.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		log:              baseLog.With("component", "CircuitBreaker"),
	}
}

// Allow reports whether a call may proceed. In HALF_OPEN only one probe is
// admitted at a time.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.setState(BreakerHalfOpen)
			b.probeInUse = true
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.probeInUse {
			return false
		}
		b.probeInUse = true
		return true
	}
	return false
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probeInUse = false
	if b.state != BreakerClosed {
		b.setState(BreakerClosed)
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	b.probeInUse = false

	switch b.state {
	case BreakerHalfOpen:
		b.open()
	case BreakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.open()
		}
	}
}

func (b *CircuitBreaker) open() {
	b.openedAt = time.Now()
	b.totalTripped++
	b.setState(BreakerOpen)
}

func (b *CircuitBreaker) setState(next BreakerState) {
	if b.state == next {
		return
	}
	b.log.Info("Circuit breaker transition", "from", b.state.String(), "to", next.String())
	b.state = next
	b.transitions++
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot exposes breaker internals for the health surface.
func (b *CircuitBreaker) Snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]any{
		"state":             b.state.String(),
		"failures":          b.failures,
		"failure_threshold": b.failureThreshold,
		"cooldown_seconds":  int(b.cooldown.Seconds()),
		"transitions":       b.transitions,
		"times_tripped":     b.totalTripped,
	}
	if !b.lastFailure.IsZero() {
		out["last_failure"] = b.lastFailure.UTC().Format(time.RFC3339)
	}
	return out
}
