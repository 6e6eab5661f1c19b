package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap/zaptest"
)

type fakeOutputs struct {
	opened map[string]int
	sent   map[string][]midi.Message
	fail   map[string]bool
}

func newFakeOutputs() *fakeOutputs {
	return &fakeOutputs{
		opened: make(map[string]int),
		sent:   make(map[string][]midi.Message),
		fail:   make(map[string]bool),
	}
}

func (f *fakeOutputs) open(name string) (SendFunc, error) {
	if name == "missing" {
		return nil, fmt.Errorf("output port not found: %s", name)
	}
	f.opened[name]++
	return func(msg midi.Message) error {
		if f.fail[name] {
			return errors.New("device unplugged")
		}
		f.sent[name] = append(f.sent[name], msg)
		return nil
	}, nil
}

func TestPorts_SendRoutesByPort(t *testing.T) {
	outs := newFakeOutputs()
	p := NewPorts(map[types.MIDIPort]string{
		types.PortUSB:   "zoom",
		types.PortMIDI1: "din",
	}, outs.open, zaptest.NewLogger(t))

	pc := midi.ProgramChange(0, 4)
	if err := p.Send(types.PortUSB, pc, pc); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := p.Send(types.PortUSB, pc); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(outs.sent["zoom"]) != 3 || len(outs.sent["din"]) != 0 {
		t.Errorf("sent = %d to zoom, %d to din, want 3 and 0", len(outs.sent["zoom"]), len(outs.sent["din"]))
	}
	if outs.opened["zoom"] != 1 {
		t.Errorf("zoom opened %d times, want 1", outs.opened["zoom"])
	}
}

func TestPorts_SendAll(t *testing.T) {
	outs := newFakeOutputs()
	p := NewPorts(map[types.MIDIPort]string{
		types.PortUSB:   "zoom",
		types.PortMIDI3: "din",
	}, outs.open, zaptest.NewLogger(t))

	if err := p.Send(types.PortAll, midi.ProgramChange(0, 1)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(outs.sent["zoom"]) != 1 || len(outs.sent["din"]) != 1 {
		t.Errorf("sent = %v, want one message per port", outs.sent)
	}

	connected := p.Connected()
	if len(connected) != 2 || connected[0] != types.PortUSB || connected[1] != types.PortMIDI3 {
		t.Errorf("Connected() = %v", connected)
	}
}

func TestPorts_NotConnected(t *testing.T) {
	p := NewPorts(map[types.MIDIPort]string{types.PortMIDI2: "missing"}, newFakeOutputs().open, zaptest.NewLogger(t))

	err := p.Send(types.PortMIDI1, midi.ProgramChange(0, 1))
	if !errors.Is(err, ErrPortNotConnected) {
		t.Errorf("Send() to unconfigured port error = %v, want ErrPortNotConnected", err)
	}

	if err := p.Send(types.PortMIDI2, midi.ProgramChange(0, 1)); err == nil {
		t.Error("Send() to a missing system port succeeded")
	}

	if err := p.Send(types.PortMIDI1); err != nil {
		t.Errorf("Send() without messages error = %v", err)
	}
}

func TestPorts_ReopenAfterFailure(t *testing.T) {
	outs := newFakeOutputs()
	p := NewPorts(map[types.MIDIPort]string{types.PortUSB: "zoom"}, outs.open, zaptest.NewLogger(t))

	outs.fail["zoom"] = true
	if err := p.Send(types.PortUSB, midi.ProgramChange(0, 1)); err == nil {
		t.Fatal("Send() succeeded on a failing port")
	}

	outs.fail["zoom"] = false
	if err := p.Send(types.PortUSB, midi.ProgramChange(0, 1)); err != nil {
		t.Fatalf("Send() after recovery error = %v", err)
	}
	if outs.opened["zoom"] != 2 {
		t.Errorf("zoom opened %d times, want 2", outs.opened["zoom"])
	}
}

func TestInputs_Start(t *testing.T) {
	listeners := make(map[string]func(midi.Message))
	stopped := 0

	listen := func(name string, fn func(midi.Message)) (func(), error) {
		if name == "missing" {
			return nil, errors.New("input port not found")
		}
		listeners[name] = fn
		return func() { stopped++ }, nil
	}

	in := NewInputs(map[types.MIDIPort]string{
		types.PortUSB:   "zoom",
		types.PortMIDI1: "missing",
	}, listen, zaptest.NewLogger(t))

	var got []types.MIDIPort
	if n := in.Start(func(port types.MIDIPort, msg midi.Message) { got = append(got, port) }); n != 1 {
		t.Fatalf("Start() = %d, want 1", n)
	}

	listeners["zoom"](midi.ProgramChange(0, 1))
	if len(got) != 1 || got[0] != types.PortUSB {
		t.Errorf("handler got %v, want [USB]", got)
	}

	in.Stop()
	if stopped != 1 {
		t.Errorf("stopped = %d, want 1", stopped)
	}
}
