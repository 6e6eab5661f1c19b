package editor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/transport"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap/zaptest"
)

func newTestLink(t *testing.T) (*Link, *devices.Registry) {
	t.Helper()

	registry, err := devices.NewRegistry([]types.DeviceSetup{
		{Model: "zms70"},
		{Model: "generic"},
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return NewLink(registry, zaptest.NewLogger(t)), registry
}

func TestLink_DeviceCount(t *testing.T) {
	l, _ := newTestLink(t)

	reply, err := l.HandleFrame(DeviceCountRequest())
	if err != nil {
		t.Fatalf("HandleFrame() error = %v", err)
	}
	if reply.Command != CmdDeviceCount || len(reply.Payload) != 1 || reply.Payload[0] != 2 {
		t.Errorf("reply = %+v, want device count 2", reply)
	}
}

func TestLink_ReadAndApplySettings(t *testing.T) {
	l, registry := newTestLink(t)

	reply, err := l.HandleFrame(SettingsRequest(0))
	if err != nil {
		t.Fatalf("HandleFrame() error = %v", err)
	}
	if reply.Command != CmdSettings || len(reply.Payload) != devices.RecordLength {
		t.Fatalf("reply = %+v, want a settings record", reply)
	}

	record := append([]byte(nil), reply.Payload...)
	record[1] = 9

	ack, err := l.HandleFrame(ApplySettingsRequest(0, record))
	if err != nil {
		t.Fatalf("HandleFrame() error = %v", err)
	}
	if ack.Command != CmdAck || ack.Payload[0] != AckOK {
		t.Errorf("ack = %+v, want OK", ack)
	}

	zoom, _ := registry.Get(0)
	if zoom.Settings().Channel != 9 {
		t.Errorf("Channel = %d, want 9", zoom.Settings().Channel)
	}
}

func TestLink_Errors(t *testing.T) {
	l, _ := newTestLink(t)

	if _, err := l.HandleFrame(SettingsRequest(7)); !errors.Is(err, devices.ErrDeviceNotFound) {
		t.Errorf("unknown device error = %v, want ErrDeviceNotFound", err)
	}

	ack, err := l.HandleFrame(ApplySettingsRequest(0, []byte{1, 2}))
	if err != nil {
		t.Fatalf("HandleFrame() error = %v", err)
	}
	if ack.Payload[0] != AckError {
		t.Errorf("short record ack = %d, want error", ack.Payload[0])
	}

	if _, err := l.HandleFrame(&Frame{Command: 0x40}); err == nil {
		t.Error("unknown command succeeded")
	}
}

func TestLink_StartServesRequests(t *testing.T) {
	l, _ := newTestLink(t)

	var receive func(midi.Message)
	stopped := false
	listen := func(name string, fn func(midi.Message)) (func(), error) {
		if name != "editor in" {
			t.Errorf("listen on %q", name)
		}
		receive = fn
		return func() { stopped = true }, nil
	}

	var replies []midi.Message
	open := func(name string) (transport.SendFunc, error) {
		return func(msg midi.Message) error {
			replies = append(replies, msg)
			return nil
		}, nil
	}

	if err := l.Start("editor in", "editor out", listen, open); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	receive(midi.ProgramChange(0, 1))
	receive(DeviceCountRequest().Encode())

	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
	want := (&Frame{Command: CmdDeviceCount, Payload: []byte{2}}).Encode()
	if !bytes.Equal(replies[0], want) {
		t.Errorf("reply = % X, want % X", []byte(replies[0]), []byte(want))
	}

	l.Stop()
	if !stopped {
		t.Error("listener not stopped")
	}
}
