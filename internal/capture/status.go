package capture

import (
	"errors"
	"fmt"
)

// State is a step of the camera acquisition lifecycle:
//
//	Idle -> Requesting -> Retrying(n) -> Active | Failed
//
// An active camera fails when playback stops. Stop returns any state to Idle,
// and a failed camera may be requested again.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateRetrying   State = "retrying"
	StateActive     State = "active"
	StateFailed     State = "failed"
)

// ErrInvalidTransition is returned for a state change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid camera state transition")

var transitions = map[State][]State{
	StateIdle:       {StateIdle, StateRequesting, StateFailed},
	StateRequesting: {StateIdle, StateRetrying, StateActive, StateFailed},
	StateRetrying:   {StateIdle, StateRetrying, StateActive, StateFailed},
	StateActive:     {StateIdle, StateFailed},
	StateFailed:     {StateIdle, StateRequesting, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Status is the observable camera state shown to the user.
type Status struct {
	State       State  `json:"state"`
	IsActive    bool   `json:"isActive"`
	IsSupported bool   `json:"isSupported"`
	Error       string `json:"error,omitempty"`
	Attempt     int    `json:"attempt,omitempty"`
}

func newStatus(supported bool) Status {
	return Status{State: StateIdle, IsSupported: supported}
}

func (s Status) moveTo(next State) (Status, error) {
	if !canTransition(s.State, next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, next)
	}
	s.State = next
	s.IsActive = next == StateActive
	s.Attempt = 0
	return s, nil
}

func (s Status) requesting() (Status, error) {
	next, err := s.moveTo(StateRequesting)
	if err == nil {
		next.Error = ""
	}
	return next, err
}

func (s Status) retrying(attempt int) (Status, error) {
	next, err := s.moveTo(StateRetrying)
	if err == nil {
		next.Attempt = attempt
	}
	return next, err
}

func (s Status) activated() (Status, error) {
	next, err := s.moveTo(StateActive)
	if err == nil {
		next.Error = ""
	}
	return next, err
}

func (s Status) failed(message string) (Status, error) {
	next, err := s.moveTo(StateFailed)
	if err == nil {
		next.Error = message
	}
	return next, err
}

func (s Status) idle() (Status, error) {
	next, err := s.moveTo(StateIdle)
	if err == nil {
		next.Error = ""
	}
	return next, err
}

// withError annotates the current state without changing it.
func (s Status) withError(message string) Status {
	s.Error = message
	return s
}
