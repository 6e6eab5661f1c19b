package drivers

import (
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
)

// Unknown is returned for labels and states of parameters a driver does not have.
const Unknown = "?"

// Defaults is the identity and default configuration of a device model. The
// registry copies it into the Device record once, at construction.
type Defaults struct {
	Name     string // short name shown on the display
	FullName string
	PatchMin uint16
	PatchMax uint16
	Channel  uint8 // 1-16
	Enabled  types.EnabledState
	Colour   types.Colour
	AlwaysOn bool
	Pages    [types.DevicePages]types.PageID
}

// Driver translates the abstract command vocabulary into one device model's
// protocol and display conventions. Implementations are stateless: every
// method except Defaults is a pure function of its arguments, and out-of-range
// input yields a sentinel, never an error.
type Driver interface {
	// Defaults returns the identity metadata of the model
	Defaults() Defaults

	// CheckCommandEnabled reports whether the model supports op
	CheckCommandEnabled(op types.Opcode) bool

	// FormatPatchLabel renders a zero-based patch index the way the device displays it
	FormatPatchLabel(patch uint16) string

	ParameterCount() uint16

	// ParameterName returns Unknown for index >= ParameterCount()
	ParameterName(index uint16) string

	// ParameterState returns Unknown for index >= ParameterCount()
	ParameterState(index uint16, value uint8) string

	// MaxValue returns 0 for index >= ParameterCount()
	MaxValue(index uint16) uint8

	// PatchChange encodes a patch change on the given 1-based MIDI channel
	PatchChange(channel uint8, patch uint16) []midi.Message

	// ParameterChange encodes a parameter change on the given 1-based MIDI channel.
	// It returns nil for unknown parameters.
	ParameterChange(channel uint8, index uint16, value uint8) []midi.Message

	// MatchIdentity reports whether msg is this model's reply to a universal identity request
	MatchIdentity(msg midi.Message) bool
}

// ParameterDescriptor is derived from a driver on demand and never stored.
type ParameterDescriptor struct {
	Index    uint16 `json:"index"`
	Name     string `json:"name"`
	MaxValue uint8  `json:"max_value"`
	Value    uint8  `json:"value"`
	State    string `json:"state"`
}

// Describe lists every parameter of d with its current raw value as reported by value.
func Describe(d Driver, value func(index uint16) uint8) []ParameterDescriptor {
	count := d.ParameterCount()
	descriptors := make([]ParameterDescriptor, 0, count)
	for i := uint16(0); i < count; i++ {
		v := value(i)
		descriptors = append(descriptors, ParameterDescriptor{
			Index:    i,
			Name:     d.ParameterName(i),
			MaxValue: d.MaxValue(i),
			Value:    v,
			State:    d.ParameterState(i, v),
		})
	}
	return descriptors
}

// midiChannel converts a 1-based channel to the 0-based value on the wire.
// Anything outside 1-16 falls back to channel 1.
func midiChannel(channel uint8) uint8 {
	if channel < 1 || channel > 16 {
		return 0
	}
	return channel - 1
}
