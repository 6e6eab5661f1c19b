package system

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/config"
	"github.com/KevinKickass/OpenStompCore/internal/matrix"
	"github.com/KevinKickass/OpenStompCore/internal/transport"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

type fakeMIDI struct {
	mu        sync.Mutex
	sent      []midi.Message
	listeners map[string]func(midi.Message)
}

func newFakeMIDI() *fakeMIDI {
	return &fakeMIDI{listeners: make(map[string]func(midi.Message))}
}

func (f *fakeMIDI) open(name string) (transport.SendFunc, error) {
	return func(msg midi.Message) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, append(midi.Message(nil), msg...))
		return nil
	}, nil
}

func (f *fakeMIDI) listen(name string, fn func(midi.Message)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[name] = fn
	return func() {}, nil
}

func (f *fakeMIDI) received(want midi.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.sent {
		if bytes.Equal(msg, want) {
			return true
		}
	}
	return false
}

func (f *fakeMIDI) deliver(name string, msg midi.Message) {
	f.mu.Lock()
	fn := f.listeners[name]
	f.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ShutdownTimeout: time.Second},
		Matrix: config.MatrixConfig{
			Backend:          config.BackendSimulated,
			RowPins:          []uint8{5, 6},
			ColumnPins:       []uint8{17, 27},
			Debounce:         5 * time.Millisecond,
			PollInterval:     time.Millisecond,
			EdgePollInterval: time.Millisecond,
		},
		MIDI: config.MIDIConfig{
			Outputs:        config.PortsConfig{USB: "out"},
			Inputs:         config.PortsConfig{USB: "in"},
			DetectInterval: time.Second,
			DetectTimeout:  5 * time.Second,
		},
	}
}

func testSetup() *types.Setup {
	usb := types.PortUSB
	return &types.Setup{
		Devices: []types.DeviceSetup{{Model: "zms70", Port: &usb}},
		Pages: []types.PageSetup{{
			ID:   0,
			Name: "Default",
			Switches: map[uint8][]types.Command{
				1: {{Opcode: types.OpcodePatchSelect, Device: 0, Value1: 5}},
			},
		}},
	}
}

func TestLifecycleManager_PressSelectsPatch(t *testing.T) {
	fake := newFakeMIDI()
	lm, err := NewLifecycleManagerFromSetup(testConfig(), testSetup(), zap.NewNop(), WithMIDI(fake.open, fake.listen))
	if err != nil {
		t.Fatalf("NewLifecycleManagerFromSetup() error = %v", err)
	}

	if err := lm.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer lm.Shutdown(context.Background())

	if got := lm.GetCurrentStatus().State; got != "RUNNING" {
		t.Errorf("State = %s, want RUNNING", got)
	}

	sim := lm.Simulator()
	if sim == nil {
		t.Fatal("Simulator() = nil on simulated backend")
	}
	if err := sim.PressSwitch(1); err != nil {
		t.Fatalf("PressSwitch() error = %v", err)
	}

	want := midi.ProgramChange(0, 5)
	waitFor(t, "program change", func() bool { return fake.received(want) })

	if patch, ok := lm.Dispatcher().State().Patch(0); !ok || patch != 5 {
		t.Errorf("Patch(0) = %d, %v, want 5, true", patch, ok)
	}

	if err := sim.ReleaseSwitch(1); err != nil {
		t.Fatalf("ReleaseSwitch() error = %v", err)
	}
	waitFor(t, "release", func() bool { return lm.Controller().Status().LastKind == string(types.SwitchReleased) })
}

func TestLifecycleManager_DetectsDevice(t *testing.T) {
	fake := newFakeMIDI()
	lm, err := NewLifecycleManagerFromSetup(testConfig(), testSetup(), zap.NewNop(), WithMIDI(fake.open, fake.listen))
	if err != nil {
		t.Fatalf("NewLifecycleManagerFromSetup() error = %v", err)
	}

	if err := lm.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer lm.Shutdown(context.Background())

	device, _ := lm.Registry().Get(0)
	if device.Detected() {
		t.Fatal("device detected before any reply")
	}

	lm.Dispatcher().State().SetPatch(0, 3)
	fake.deliver("in", midi.SysEx([]byte{0x7E, 0x00, 0x06, 0x02, 0x52, 0x61, 0x00, 0x00, 0x00, 0x00}))

	waitFor(t, "detection", device.Detected)
	waitFor(t, "patch state reset", func() bool {
		_, ok := lm.Dispatcher().State().Patch(0)
		return !ok
	})
	if got := lm.GetCurrentStatus().ConnectedDevices; got != 1 {
		t.Errorf("ConnectedDevices = %d, want 1", got)
	}
}

func TestLifecycleManager_Shutdown(t *testing.T) {
	fake := newFakeMIDI()
	lm, err := NewLifecycleManagerFromSetup(testConfig(), testSetup(), zap.NewNop(), WithMIDI(fake.open, fake.listen))
	if err != nil {
		t.Fatalf("NewLifecycleManagerFromSetup() error = %v", err)
	}
	if err := lm.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := lm.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case <-lm.Done():
	default:
		t.Error("Done() not closed after Shutdown")
	}
	if got := lm.GetCurrentStatus().State; got != "STOPPED" {
		t.Errorf("State = %s, want STOPPED", got)
	}

	// a second shutdown is a no-op
	if err := lm.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestNewLifecycleManager_SetupErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Setup.Path = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewLifecycleManager(cfg, zap.NewNop()); err == nil {
		t.Error("missing setup file accepted")
	}

	path := filepath.Join(t.TempDir(), "setup.yaml")
	doc := "devices: []\npages:\n  - id: 0\n    name: a\n  - id: 0\n    name: b\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Setup.Path = path
	if _, err := NewLifecycleManager(cfg, zap.NewNop()); err == nil {
		t.Error("duplicate page ids accepted")
	}
}

func TestLifecycleManager_HardwareFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Matrix.Backend = config.BackendRPIO

	fake := newFakeMIDI()
	broken := func(config.MatrixConfig, *zap.Logger) (matrix.Lines, func() error, error) {
		return nil, nil, os.ErrPermission
	}
	lm, err := NewLifecycleManagerFromSetup(cfg, testSetup(), zap.NewNop(),
		WithMIDI(fake.open, fake.listen), WithHardware(broken))
	if err != nil {
		t.Fatalf("NewLifecycleManagerFromSetup() error = %v", err)
	}

	if err := lm.Start(); err == nil {
		t.Fatal("Start() succeeded without hardware")
	}
	status := lm.GetCurrentStatus()
	if status.State != "ERROR" || status.Error == "" {
		t.Errorf("status = %+v, want ERROR with message", status)
	}
	if lm.Simulator() != nil {
		t.Error("Simulator() on hardware backend")
	}
	lm.Shutdown(context.Background())
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to SystemState
		valid    bool
	}{
		{StateStopped, StateInitializing, true},
		{StateInitializing, StateRunning, true},
		{StateRunning, StateStopping, true},
		{StateStopping, StateStopped, true},
		{StateStopped, StateRunning, false},
		{StateRunning, StateInitializing, false},
	}

	for _, tt := range tests {
		err := ValidateTransition(tt.from, tt.to)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateTransition(%s, %s) error = %v, want valid %v", tt.from, tt.to, err, tt.valid)
		}
	}
}

func TestValidateTransition_UnknownState(t *testing.T) {
	err := ValidateTransition(SystemState("PAUSED"), StateRunning)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ValidateTransition(PAUSED) error = %v, want ErrInvalidTransition", err)
	}
}
