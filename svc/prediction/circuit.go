package prediction

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{"closed", "open", "half-open"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreaker guards the prediction service. A streak of failures opens
// it for the cooldown; after that, probe calls decide whether it closes.
// Safe for concurrent use.
type CircuitBreaker struct {
	mu sync.Mutex

	tripAfter  int
	closeAfter int
	cooldown   time.Duration
	now        func() time.Time
	onChange   func(from, to CircuitState)

	state    CircuitState
	streak   int // failures while closed, successes while half-open
	openedAt time.Time
}

// NewCircuitBreaker returns a closed breaker. Non-positive arguments fall
// back to 5 failures, 2 successes and 30 seconds.
func NewCircuitBreaker(tripAfter, closeAfter int, cooldown time.Duration) *CircuitBreaker {
	if tripAfter <= 0 {
		tripAfter = 5
	}
	if closeAfter <= 0 {
		closeAfter = 2
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{tripAfter: tripAfter, closeAfter: closeAfter, cooldown: cooldown, now: time.Now}
}

// OnStateChange registers fn to run after every transition. fn runs with the
// breaker unlocked and must not block.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Allow returns ErrCircuitOpen while the breaker is open and the cooldown has
// not passed. The first call after the cooldown moves it to half-open.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	if cb.state != CircuitOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Sub(cb.openedAt) <= cb.cooldown {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	notify := cb.moveLocked(CircuitHalfOpen)
	cb.mu.Unlock()
	notify()
	return nil
}

// Done records the outcome of a call that Allow let through.
func (cb *CircuitBreaker) Done(ok bool) {
	cb.mu.Lock()
	notify := func() {}
	switch {
	case ok && cb.state == CircuitClosed:
		cb.streak = 0
	case ok && cb.state == CircuitHalfOpen:
		if cb.streak++; cb.streak >= cb.closeAfter {
			notify = cb.moveLocked(CircuitClosed)
		}
	case !ok && cb.state == CircuitClosed:
		if cb.streak++; cb.streak >= cb.tripAfter {
			notify = cb.moveLocked(CircuitOpen)
		}
	case !ok && cb.state == CircuitHalfOpen:
		notify = cb.moveLocked(CircuitOpen)
	}
	cb.mu.Unlock()
	notify()
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// moveLocked switches state and returns the hook call to make once unlocked.
func (cb *CircuitBreaker) moveLocked(to CircuitState) func() {
	from := cb.state
	cb.state, cb.streak = to, 0
	if to == CircuitOpen {
		cb.openedAt = cb.now()
	}
	if fn := cb.onChange; fn != nil && from != to {
		return func() { fn(from, to) }
	}
	return func() {}
}
