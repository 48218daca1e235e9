package timer

import (
	"errors"
	"fmt"
)

// State represents the current state of the session timer
type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
	StatePaused  State = "PAUSED"
	StateExpired State = "EXPIRED"
)

var (
	ErrNotIdle         = errors.New("timer can only be configured while idle")
	ErrInvalidDuration = errors.New("timer duration must be positive")
)

// Cue is the expiry signal. Play is invoked once per expiry and must not
// block; Stop cancels a cue that is still playing.
type Cue interface {
	Play()
	Stop()
}

// Snapshot is a read-only view of the timer
type Snapshot struct {
	State            State  `json:"state"`
	InitialSeconds   int    `json:"initial_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	IsRunning        bool   `json:"is_running"`
	IsPaused         bool   `json:"is_paused"`
	Display          string `json:"display"`
}

// Timer is the countdown state machine. It is not safe for concurrent use;
// Countdown adds locking and the tick driver.
type Timer struct {
	state     State
	initial   int
	remaining int
	cue       Cue
}

// New creates an idle timer armed with seconds. A nil cue is allowed.
func New(seconds int, cue Cue) *Timer {
	if seconds <= 0 {
		seconds = DefaultMinutes * 60
	}
	return &Timer{
		state:     StateIdle,
		initial:   seconds,
		remaining: seconds,
		cue:       cue,
	}
}

// Configure sets the duration. Only legal while idle.
func (t *Timer) Configure(seconds int) error {
	if t.state != StateIdle {
		return fmt.Errorf("configure %ds in state %s: %w", seconds, t.state, ErrNotIdle)
	}
	if seconds <= 0 {
		return fmt.Errorf("configure %ds: %w", seconds, ErrInvalidDuration)
	}
	t.initial = seconds
	t.remaining = seconds
	return nil
}

// Arm resets the timer and configures it with a new duration
func (t *Timer) Arm(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("arm %ds: %w", seconds, ErrInvalidDuration)
	}
	t.Reset()
	return t.Configure(seconds)
}

// Start begins counting down from the configured duration (IDLE -> RUNNING).
// An expired timer is re-armed to its duration first. Running and paused
// timers are left alone.
func (t *Timer) Start() bool {
	switch t.state {
	case StateIdle:
		t.remaining = t.initial
	case StateExpired:
		t.stopCue()
		t.remaining = t.initial
	default:
		return false
	}
	t.state = StateRunning
	return true
}

// Pause suspends the countdown (RUNNING -> PAUSED)
func (t *Timer) Pause() bool {
	if t.state != StateRunning {
		return false
	}
	t.state = StatePaused
	return true
}

// Resume continues a paused countdown (PAUSED -> RUNNING)
func (t *Timer) Resume() bool {
	if t.state != StatePaused {
		return false
	}
	t.state = StateRunning
	return true
}

// Reset returns to IDLE with the full duration and silences the cue
func (t *Timer) Reset() {
	t.stopCue()
	t.state = StateIdle
	t.remaining = t.initial
}

// Tick advances a running timer by one second. It reports true when this
// tick caused the expiry.
func (t *Timer) Tick() bool {
	if t.state != StateRunning {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining > 0 {
		return false
	}

	t.state = StateExpired
	if t.cue != nil {
		t.cue.Play()
	}
	return true
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) Running() bool {
	return t.state == StateRunning
}

func (t *Timer) Snapshot() Snapshot {
	return Snapshot{
		State:            t.state,
		InitialSeconds:   t.initial,
		RemainingSeconds: t.remaining,
		IsRunning:        t.state == StateRunning,
		IsPaused:         t.state == StatePaused,
		Display:          Format(t.remaining),
	}
}

func (t *Timer) stopCue() {
	if t.cue != nil {
		t.cue.Stop()
	}
}

// Format renders seconds as MM:SS, clamping negatives to zero
func Format(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}
