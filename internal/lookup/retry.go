package lookup

import (
	"time"

	"vodsieve/internal/tmdb"
)

type retryState int

const (
	stateIdle retryState = iota
	stateAttempting
	stateSucceeded
	stateTransientFailure
	stateWaiting
	statePermanentFailure
	stateExhausted
)

func (s retryState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAttempting:
		return "attempting"
	case stateSucceeded:
		return "succeeded"
	case stateTransientFailure:
		return "transient_failure"
	case stateWaiting:
		return "waiting"
	case statePermanentFailure:
		return "permanent_failure"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// retryMachine tracks one request through
// Idle -> Attempting -> {Succeeded | TransientFailure -> Waiting -> Attempting | PermanentFailure | Exhausted}.
type retryMachine struct {
	policy   Backoff
	state    retryState
	attempts int
	delay    time.Duration
	lastErr  error
	class    tmdb.Class
}

func newRetryMachine(policy Backoff) *retryMachine {
	return &retryMachine{policy: policy, state: stateIdle}
}

// begin moves Idle or Waiting to Attempting.
func (m *retryMachine) begin() {
	if m.state != stateIdle && m.state != stateWaiting {
		return
	}
	m.state = stateAttempting
	m.attempts++
}

// record applies the outcome of the current attempt. After a transient
// failure with attempts remaining the machine is Waiting and wait() holds the
// delay before the next attempt.
func (m *retryMachine) record(err error, class tmdb.Class, hint time.Duration) {
	if m.state != stateAttempting {
		return
	}
	if err == nil {
		m.state = stateSucceeded
		m.lastErr = nil
		return
	}
	m.lastErr = err
	m.class = class
	if class == tmdb.Permanent {
		m.state = statePermanentFailure
		return
	}
	m.state = stateTransientFailure
	if m.attempts >= m.policy.attempts() {
		m.state = stateExhausted
		return
	}
	m.delay = m.policy.Delay(m.attempts, hint)
	m.state = stateWaiting
}

func (m *retryMachine) wait() time.Duration { return m.delay }

func (m *retryMachine) finished() bool {
	switch m.state {
	case stateSucceeded, statePermanentFailure, stateExhausted:
		return true
	default:
		return false
	}
}

func (m *retryMachine) failure(op string) error {
	if m.lastErr == nil {
		return nil
	}
	return &LookupError{
		Class:     m.class,
		Op:        op,
		Attempts:  m.attempts,
		Exhausted: m.state == stateExhausted,
		Err:       m.lastErr,
	}
}
