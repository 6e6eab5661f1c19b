package drivers

import (
	"fmt"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
)

// Generic drives any device that changes patches on Program Change and has
// no addressable parameters.
type Generic struct{}

func (d *Generic) Defaults() Defaults {
	return Defaults{
		Name:     "GM",
		FullName: "Generic MIDI device",
		PatchMin: 0,
		PatchMax: 127,
		Channel:  1,
		Enabled:  types.DeviceOff,
		Colour:   types.ColourWhite,
		Pages:    [types.DevicePages]types.PageID{types.PageCurrentPatchBank},
	}
}

func (d *Generic) CheckCommandEnabled(op types.Opcode) bool {
	switch op {
	case types.OpcodePatchSelect,
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

// FormatPatchLabel numbers patches from 001 like most program change lists do.
func (d *Generic) FormatPatchLabel(patch uint16) string {
	return fmt.Sprintf("%03d", int(patch)+1)
}

func (d *Generic) ParameterCount() uint16 { return 0 }

func (d *Generic) ParameterName(index uint16) string { return Unknown }

func (d *Generic) ParameterState(index uint16, value uint8) string { return Unknown }

func (d *Generic) MaxValue(index uint16) uint8 { return 0 }

func (d *Generic) PatchChange(channel uint8, patch uint16) []midi.Message {
	return []midi.Message{midi.ProgramChange(midiChannel(channel), uint8(patch&0x7F))}
}

func (d *Generic) ParameterChange(channel uint8, index uint16, value uint8) []midi.Message {
	return nil
}

func (d *Generic) MatchIdentity(msg midi.Message) bool {
	return false
}
