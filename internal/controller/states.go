package controller

import "time"

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StateError   State = "error"
)

type Status struct {
	State           State     `json:"state"`
	Page            uint8     `json:"page"`
	Pressed         uint8     `json:"pressed"`
	LastSwitch      uint8     `json:"last_switch,omitempty"`
	LastKind        string    `json:"last_kind,omitempty"`
	SwitchEvents    int       `json:"switch_events"`
	Commands        int       `json:"commands"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}
