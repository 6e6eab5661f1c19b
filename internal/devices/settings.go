package devices

import (
	"fmt"

	"github.com/KevinKickass/OpenStompCore/internal/types"
)

// RecordLength is the size of the settings record exchanged with the editor.
const RecordLength = 11

// Offsets 3 and 4 are not used by any menu item. Their bytes are kept as
// received so a record always reads back the way it was applied.
var reservedOffsets = [...]int{3, 4}

var ErrRecordLength = fmt.Errorf("settings record must be %d bytes", RecordLength)

// Settings are the user editable fields of a device.
type Settings struct {
	Enabled  types.EnabledState              `json:"enabled"`
	Channel  uint8                           `json:"midi_channel"`
	Port     types.MIDIPort                  `json:"midi_port"`
	Colour   types.Colour                    `json:"colour"`
	AlwaysOn bool                            `json:"always_on"`
	Pages    [types.DevicePages]types.PageID `json:"pages"`

	reserved [len(reservedOffsets)]uint8
}

type SettingType string

const (
	SettingOption SettingType = "option"
	SettingValue  SettingType = "value"
)

// SettingField describes one item of the device menu and where it lives in
// the settings record.
type SettingField struct {
	Key     string      `json:"key"`
	Name    string      `json:"name"`
	Type    SettingType `json:"type"`
	Min     uint8       `json:"min"`
	Max     uint8       `json:"max"`
	Offset  int         `json:"offset"`
	Options []string    `json:"options,omitempty"`

	get func(*Settings) uint8
	set func(*Settings, uint8)
}

var (
	enabledOptions = []string{"OFF", "ON", "DETECT"}
	onOffOptions   = []string{"OFF", "ON"}
	portOptions    = []string{"USB MIDI", "MIDI 1", "MIDI2/RRC", "MIDI 3", "ALL PORTS"}
	colourOptions  = []string{"OFF", "GREEN", "RED", "BLUE", "ORANGE", "CYAN", "WHITE", "YELLOW", "PURPLE", "PINK"}
)

func pageField(slot int) SettingField {
	return SettingField{
		Key:    fmt.Sprintf("device_page_%d", slot+1),
		Name:   fmt.Sprintf("Device page #%d", slot+1),
		Type:   SettingOption,
		Min:    0,
		Max:    uint8(types.LastFixedPage),
		Offset: 6 + slot,
		get:    func(s *Settings) uint8 { return uint8(s.Pages[slot]) },
		set:    func(s *Settings, v uint8) { s.Pages[slot] = types.PageID(v) },
	}
}

// deviceMenu is in display order; Offset gives the position in the record.
var deviceMenu = []SettingField{
	{
		Key: "enabled", Name: "Enabled", Type: SettingOption,
		Min: 0, Max: uint8(types.DeviceDetect), Offset: 10, Options: enabledOptions,
		get: func(s *Settings) uint8 { return uint8(s.Enabled) },
		set: func(s *Settings, v uint8) { s.Enabled = types.EnabledState(v) },
	},
	{
		Key: "midi_channel", Name: "Midi channel", Type: SettingValue,
		Min: 1, Max: 16, Offset: 1,
		get: func(s *Settings) uint8 { return s.Channel },
		set: func(s *Settings, v uint8) { s.Channel = v },
	},
	{
		Key: "midi_port", Name: "Midi port", Type: SettingOption,
		Min: 0, Max: types.NumberOfMIDIPorts, Offset: 2, Options: portOptions,
		get: func(s *Settings) uint8 { return uint8(s.Port) },
		set: func(s *Settings, v uint8) { s.Port = types.MIDIPort(v) },
	},
	{
		Key: "colour", Name: "Colour", Type: SettingOption,
		Min: 0, Max: types.NumberOfSelectableColours - 1, Offset: 0, Options: colourOptions,
		get: func(s *Settings) uint8 { return uint8(s.Colour) },
		set: func(s *Settings, v uint8) { s.Colour = types.Colour(v) },
	},
	{
		Key: "always_on", Name: "Is always on", Type: SettingOption,
		Min: 0, Max: 1, Offset: 5, Options: onOffOptions,
		get: func(s *Settings) uint8 {
			if s.AlwaysOn {
				return 1
			}
			return 0
		},
		set: func(s *Settings, v uint8) { s.AlwaysOn = v == 1 },
	},
	pageField(0),
	pageField(1),
	pageField(2),
	pageField(3),
}

// Menu returns a copy of the device menu schema.
func Menu() []SettingField {
	menu := make([]SettingField, len(deviceMenu))
	copy(menu, deviceMenu)
	return menu
}

func clamp(v, min, max uint8) uint8 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Normalize clamps every field of s into its menu range.
func (s Settings) Normalize() Settings {
	for _, f := range deviceMenu {
		f.set(&s, clamp(f.get(&s), f.Min, f.Max))
	}
	return s
}

// EncodeSettings lays s out as a settings record.
func EncodeSettings(s Settings) []byte {
	record := make([]byte, RecordLength)
	for _, f := range deviceMenu {
		record[f.Offset] = f.get(&s)
	}
	for i, offset := range reservedOffsets {
		record[offset] = s.reserved[i]
	}
	return record
}

// DecodeSettings reads a settings record. Values outside a field's range are
// clamped to the nearest bound.
func DecodeSettings(record []byte) (Settings, error) {
	if len(record) != RecordLength {
		return Settings{}, fmt.Errorf("%w, got %d", ErrRecordLength, len(record))
	}

	var s Settings
	for _, f := range deviceMenu {
		f.set(&s, clamp(record[f.Offset], f.Min, f.Max))
	}
	for i, offset := range reservedOffsets {
		s.reserved[i] = record[offset]
	}
	return s, nil
}
