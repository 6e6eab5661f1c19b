package devices

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/drivers"
	"github.com/KevinKickass/OpenStompCore/internal/types"
)

// Device is one external unit connected to the controller. The identity
// fields are copied from the driver once and never change; the settings are
// replaced by the config-apply path and read by dispatch under mu.
type Device struct {
	ID       uint8
	Model    string
	Name     string
	FullName string
	PatchMin uint16
	PatchMax uint16

	driver drivers.Driver

	mu       sync.RWMutex
	settings Settings
	bank     uint16
	lastSeen time.Time
	detected bool
}

func newDevice(id uint8, model string, driver drivers.Driver) *Device {
	def := driver.Defaults()

	return &Device{
		ID:       id,
		Model:    model,
		Name:     def.Name,
		FullName: def.FullName,
		PatchMin: def.PatchMin,
		PatchMax: def.PatchMax,
		driver:   driver,
		settings: Settings{
			Enabled:  def.Enabled,
			Channel:  def.Channel,
			Port:     types.PortAll,
			Colour:   def.Colour,
			AlwaysOn: def.AlwaysOn,
			Pages:    def.Pages,
		}.Normalize(),
	}
}

func (d *Device) Driver() drivers.Driver {
	return d.driver
}

// Settings returns a snapshot of the editable fields.
func (d *Device) Settings() Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

func (d *Device) setSettings(s Settings) {
	d.mu.Lock()
	d.settings = s
	d.mu.Unlock()
}

func (d *Device) Enabled() types.EnabledState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings.Enabled
}

// Bank returns the bank currently shown for the device.
func (d *Device) Bank() uint16 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bank
}

func (d *Device) SetBank(bank uint16) {
	d.mu.Lock()
	d.bank = bank
	d.mu.Unlock()
}

// ClampPatch limits patch to the device's patch range.
func (d *Device) ClampPatch(patch int) uint16 {
	if patch < int(d.PatchMin) {
		return d.PatchMin
	}
	if patch > int(d.PatchMax) {
		return d.PatchMax
	}
	return uint16(patch)
}

// MarkSeen records an identity reply received at t.
func (d *Device) MarkSeen(t time.Time) {
	d.mu.Lock()
	d.lastSeen = t
	d.detected = true
	d.mu.Unlock()
}

// Expire forgets a detection older than timeout. It reports whether the
// device was detected before and is not anymore.
func (d *Device) Expire(now time.Time, timeout time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.detected && now.Sub(d.lastSeen) > timeout {
		d.detected = false
		return true
	}
	return false
}

func (d *Device) Detected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.detected
}

// Connected reports whether the device is switched on or has been detected.
func (d *Device) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch d.settings.Enabled {
	case types.DeviceOn:
		return true
	case types.DeviceDetect:
		return d.detected
	default:
		return false
	}
}
