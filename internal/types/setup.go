package types

// Setup is the content of the setup file: the devices connected to the
// controller, in registry order, and the page layouts.
type Setup struct {
	Devices []DeviceSetup `json:"devices" yaml:"devices"`
	Pages   []PageSetup   `json:"pages" yaml:"pages"`
}

// DeviceSetup selects a driver model and optionally overrides its default
// settings. Nil fields keep the driver default.
type DeviceSetup struct {
	Model    string        `json:"model" yaml:"model"`
	Enabled  *EnabledState `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Channel  *uint8        `json:"midi_channel,omitempty" yaml:"midi_channel,omitempty"`
	Port     *MIDIPort     `json:"midi_port,omitempty" yaml:"midi_port,omitempty"`
	Colour   *Colour       `json:"colour,omitempty" yaml:"colour,omitempty"`
	AlwaysOn *bool         `json:"always_on,omitempty" yaml:"always_on,omitempty"`
	Pages    []PageID      `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// PageSetup maps switch ids to the commands they trigger on one page.
type PageSetup struct {
	ID       PageID              `json:"id" yaml:"id"`
	Name     string              `json:"name" yaml:"name"`
	Switches map[uint8][]Command `json:"switches" yaml:"switches"`
}
