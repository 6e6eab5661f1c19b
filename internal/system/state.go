package system

import (
	"errors"
	"fmt"
)

// SystemState is the lifecycle phase reported in the system status.
type SystemState string

const (
	StateInitializing SystemState = "INITIALIZING"
	StateRunning      SystemState = "RUNNING"
	StateStopping     SystemState = "STOPPING"
	StateStopped      SystemState = "STOPPED"
	StateError        SystemState = "ERROR"
)

func (s SystemState) String() string {
	return string(s)
}

var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists the phases reachable from each phase. A failed start
// leaves the system in StateError, from where it can only be shut down or
// started again.
var transitions = map[SystemState][]SystemState{
	StateStopped:      {StateInitializing},
	StateInitializing: {StateRunning, StateStopping, StateError},
	StateRunning:      {StateStopping, StateError},
	StateStopping:     {StateStopped, StateError},
	StateError:        {StateInitializing, StateStopping, StateStopped},
}

func ValidateTransition(from, to SystemState) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
