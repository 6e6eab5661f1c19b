package drivers

import (
	"strconv"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
)

const (
	zms70PatchMin    = 0
	zms70PatchMax    = 49
	zms70MIDIChannel = 1
	zms70Parameters  = 6

	zoomManufacturerID = 0x52
	zms70ModelID       = 0x61

	zoomEditorModeOn  = 0x50
	zoomParameterEdit = 0x31
)

// ZoomMS70 drives a Zoom MS-70CDR. Its six parameters are the on/off switches
// of the effect slots.
type ZoomMS70 struct{}

func (d *ZoomMS70) Defaults() Defaults {
	return Defaults{
		Name:     "ZMS70",
		FullName: "Zoom MS70-cdr",
		PatchMin: zms70PatchMin,
		PatchMax: zms70PatchMax,
		Channel:  zms70MIDIChannel,
		Enabled:  types.DeviceDetect,
		Colour:   types.ColourGreen,
		AlwaysOn: true,
		Pages:    [types.DevicePages]types.PageID{types.PageZoomPatchBank},
	}
}

func (d *ZoomMS70) CheckCommandEnabled(op types.Opcode) bool {
	switch op {
	case types.OpcodePatchSelect,
		types.OpcodeParameter,
		types.OpcodePatchBank,
		types.OpcodeBankUp,
		types.OpcodeBankDown,
		types.OpcodeNextPatch,
		types.OpcodePrevPatch,
		types.OpcodeOpenPageDevice,
		types.OpcodeOpenNextPageOfDevice:
		return true
	}
	return false
}

// FormatPatchLabel writes (patch+1)/10 followed by (patch+1)%10 without
// padding, so patch 0 reads "01" and patch 99 reads "100".
func (d *ZoomMS70) FormatPatchLabel(patch uint16) string {
	n := int(patch) + 1
	return strconv.Itoa(n/10) + strconv.Itoa(n%10)
}

func (d *ZoomMS70) ParameterCount() uint16 {
	return zms70Parameters
}

func (d *ZoomMS70) ParameterName(index uint16) string {
	if index < d.ParameterCount() {
		return "FX" + strconv.Itoa(int(index)+1) + " SW"
	}
	return Unknown
}

func (d *ZoomMS70) ParameterState(index uint16, value uint8) string {
	if index < d.ParameterCount() {
		if value == 1 {
			return "ON"
		}
		return "OFF"
	}
	return Unknown
}

func (d *ZoomMS70) MaxValue(index uint16) uint8 {
	if index < d.ParameterCount() {
		return 1
	}
	return 0
}

func (d *ZoomMS70) PatchChange(channel uint8, patch uint16) []midi.Message {
	return []midi.Message{midi.ProgramChange(midiChannel(channel), uint8(patch&0x7F))}
}

// ParameterChange switches editor mode on and then sets the on/off state of
// effect slot index.
func (d *ZoomMS70) ParameterChange(channel uint8, index uint16, value uint8) []midi.Message {
	if index >= d.ParameterCount() {
		return nil
	}
	return []midi.Message{
		midi.SysEx([]byte{zoomManufacturerID, 0x00, zms70ModelID, zoomEditorModeOn}),
		midi.SysEx([]byte{zoomManufacturerID, 0x00, zms70ModelID, zoomParameterEdit,
			uint8(index), 0x00, value & 0x7F, 0x00}),
	}
}

// MatchIdentity accepts F0 7E <dev> 06 02 52 61 ... F7.
func (d *ZoomMS70) MatchIdentity(msg midi.Message) bool {
	var data []byte
	if !msg.GetSysEx(&data) {
		return false
	}
	return len(data) >= 6 &&
		data[0] == universalNonRealtime &&
		data[2] == generalInformation &&
		data[3] == identityReply &&
		data[4] == zoomManufacturerID &&
		data[5] == zms70ModelID
}
