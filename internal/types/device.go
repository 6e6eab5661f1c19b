package types

import (
	"fmt"
	"strconv"
)

// EnabledState is the "Enabled" option of a device.
type EnabledState uint8

const (
	DeviceOff    EnabledState = 0
	DeviceOn     EnabledState = 1
	DeviceDetect EnabledState = 2
)

func (e EnabledState) String() string {
	switch e {
	case DeviceOff:
		return "OFF"
	case DeviceOn:
		return "ON"
	case DeviceDetect:
		return "DETECT"
	default:
		return fmt.Sprintf("EnabledState(%d)", uint8(e))
	}
}

// MIDIPort selects the physical MIDI port a device is connected to.
type MIDIPort uint8

const (
	PortUSB   MIDIPort = 0
	PortMIDI1 MIDIPort = 1
	PortMIDI2 MIDIPort = 2 // shared with RRC
	PortMIDI3 MIDIPort = 3
	PortAll   MIDIPort = 4

	NumberOfMIDIPorts = 4
)

var portNames = [...]string{"USB MIDI", "MIDI 1", "MIDI2/RRC", "MIDI 3", "ALL PORTS"}

func (p MIDIPort) String() string {
	if int(p) < len(portNames) {
		return portNames[p]
	}
	return fmt.Sprintf("MIDIPort(%d)", uint8(p))
}

// Colour is an index into the LED palette.
type Colour uint8

const (
	ColourOff Colour = iota
	ColourGreen
	ColourRed
	ColourBlue
	ColourOrange
	ColourCyan
	ColourWhite
	ColourYellow
	ColourPurple
	ColourPink

	NumberOfSelectableColours = 10
)

var colourNames = [...]string{"OFF", "GREEN", "RED", "BLUE", "ORANGE", "CYAN", "WHITE", "YELLOW", "PURPLE", "PINK"}

func (c Colour) String() string {
	if int(c) < len(colourNames) {
		return colourNames[c]
	}
	return fmt.Sprintf("Colour(%d)", uint8(c))
}

// PageID identifies a page of switch assignments. User pages are numbered
// from 1, fixed pages start at FirstFixedPage.
type PageID uint8

// MarshalJSON keeps page lists as JSON arrays rather than base64 strings.
func (id PageID) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id), 10), nil
}

const (
	PageDefault PageID = 0

	FirstFixedPage          PageID = 201
	PageMenu                PageID = 201
	PageCurrentDirectSelect PageID = 202
	PageDeviceMode          PageID = 203
	PagePageMode            PageID = 204
	PageCurrentPatchBank    PageID = 205
	PageCurrentParameter    PageID = 206
	PageCurrentAssign       PageID = 207
	PageZoomPatchBank       PageID = 208
	PageSnapscenes          PageID = 209
	PageLooper              PageID = 210
	LastFixedPage           PageID = PageLooper
)

// DevicePages is the number of page slots per device.
const DevicePages = 4

// SwitchKind tells presses from releases.
type SwitchKind string

const (
	SwitchPressed  SwitchKind = "pressed"
	SwitchReleased SwitchKind = "released"
)

// SwitchEvent is one debounced transition of the switch matrix. ID is
// row*numCols+col+1; 0 means no switch.
type SwitchEvent struct {
	ID   uint8      `json:"id"`
	Kind SwitchKind `json:"kind"`
}
