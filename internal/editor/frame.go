package editor

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Editor frames are SysEx messages for the non-commercial manufacturer id:
//
//	F0 7D <command> <device> <payload...> F7
//
// Every payload byte is split into two 7-bit bytes, high bit first, so the
// full 0..255 range survives the 7-bit SysEx data.
const ManufacturerID = 0x7D

// Editor commands
const (
	CmdRequestDeviceCount = 0x01
	CmdDeviceCount        = 0x02
	CmdRequestSettings    = 0x03
	CmdSettings           = 0x04
	CmdApplySettings      = 0x05
	CmdAck                = 0x06
)

// Ack status bytes
const (
	AckOK    = 0x00
	AckError = 0x01
)

var (
	ErrFrameTooShort  = errors.New("frame too short")
	ErrNotEditorFrame = errors.New("not an editor frame")
	ErrOddPayload     = errors.New("payload has odd length")
)

type Frame struct {
	Command uint8
	Device  uint8
	Payload []byte
}

// Encode builds the SysEx message of the frame.
func (f *Frame) Encode() midi.Message {
	data := make([]byte, 0, 3+2*len(f.Payload))
	data = append(data, ManufacturerID, f.Command&0x7F, f.Device&0x7F)
	data = append(data, split(f.Payload)...)
	return midi.SysEx(data)
}

// DecodeFrame parses a received SysEx message.
func DecodeFrame(msg midi.Message) (*Frame, error) {
	var data []byte
	if !msg.GetSysEx(&data) {
		return nil, ErrNotEditorFrame
	}
	if len(data) < 1 || data[0] != ManufacturerID {
		return nil, ErrNotEditorFrame
	}
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}

	payload, err := join(data[3:])
	if err != nil {
		return nil, err
	}

	return &Frame{
		Command: data[1],
		Device:  data[2],
		Payload: payload,
	}, nil
}

func split(payload []byte) []byte {
	out := make([]byte, 0, 2*len(payload))
	for _, b := range payload {
		out = append(out, b>>7, b&0x7F)
	}
	return out
}

func join(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddPayload, len(data))
	}
	out := make([]byte, len(data)/2)
	for i := range out {
		out[i] = data[2*i]<<7 | data[2*i+1]&0x7F
	}
	return out, nil
}

// DeviceCountRequest asks for the number of devices.
func DeviceCountRequest() *Frame {
	return &Frame{Command: CmdRequestDeviceCount}
}

// SettingsRequest asks for the settings record of a device.
func SettingsRequest(device uint8) *Frame {
	return &Frame{Command: CmdRequestSettings, Device: device}
}

// ApplySettingsRequest carries a settings record to apply to a device.
func ApplySettingsRequest(device uint8, record []byte) *Frame {
	return &Frame{Command: CmdApplySettings, Device: device, Payload: record}
}
