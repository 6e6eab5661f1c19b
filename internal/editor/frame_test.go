package editor

import (
	"bytes"
	"errors"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestFrame_EncodeSplitsPayload(t *testing.T) {
	f := &Frame{Command: CmdSettings, Device: 2, Payload: []byte{0x05, 0xD2}}

	want := []byte{0xF0, 0x7D, 0x04, 0x02, 0x00, 0x05, 0x01, 0x52, 0xF7}
	if got := []byte(f.Encode()); !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

func TestDecodeFrame_RoundTrip(t *testing.T) {
	record := []byte{1, 16, 4, 0, 0, 1, 210, 205, 0, 7, 2}
	f := ApplySettingsRequest(3, record)

	got, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if got.Command != CmdApplySettings || got.Device != 3 {
		t.Errorf("header = %02X/%d, want %02X/3", got.Command, got.Device, CmdApplySettings)
	}
	if !bytes.Equal(got.Payload, record) {
		t.Errorf("payload = %v, want %v", got.Payload, record)
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want error
	}{
		{"program change", midi.ProgramChange(0, 1), ErrNotEditorFrame},
		{"other manufacturer", midi.SysEx([]byte{0x52, 0x00, 0x61, 0x50}), ErrNotEditorFrame},
		{"empty sysex", midi.SysEx(nil), ErrNotEditorFrame},
		{"no device byte", midi.SysEx([]byte{0x7D, 0x01}), ErrFrameTooShort},
		{"odd payload", midi.SysEx([]byte{0x7D, 0x05, 0x00, 0x01}), ErrOddPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tt.want)
			}
		})
	}
}
