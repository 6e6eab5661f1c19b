package dispatch

import "sync"

type parameterKey struct {
	device uint8
	index  uint16
}

// State holds what the controller last sent to each device: the selected
// patch and the raw parameter values. Devices do not report back, so this is
// the only record of their current state.
type State struct {
	mu         sync.RWMutex
	patches    map[uint8]uint16
	parameters map[parameterKey]uint8
}

func NewState() *State {
	return &State{
		patches:    make(map[uint8]uint16),
		parameters: make(map[parameterKey]uint8),
	}
}

// Patch returns the last patch selected on device.
func (s *State) Patch(device uint8) (uint16, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patch, ok := s.patches[device]
	return patch, ok
}

func (s *State) SetPatch(device uint8, patch uint16) {
	s.mu.Lock()
	s.patches[device] = patch
	s.mu.Unlock()
}

// ParameterValue returns the raw value last sent for a parameter, 0 if none.
func (s *State) ParameterValue(device uint8, index uint16) uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parameters[parameterKey{device, index}]
}

func (s *State) SetParameterValue(device uint8, index uint16, value uint8) {
	s.mu.Lock()
	s.parameters[parameterKey{device, index}] = value
	s.mu.Unlock()
}

// Forget drops everything recorded for device, for instance after it was
// detected again and may have been changed by hand.
func (s *State) Forget(device uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.patches, device)
	for key := range s.parameters {
		if key.device == device {
			delete(s.parameters, key)
		}
	}
}
