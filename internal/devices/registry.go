package devices

import (
	"errors"
	"fmt"
	"math"

	"github.com/KevinKickass/OpenStompCore/internal/drivers"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"go.uber.org/zap"
)

var ErrDeviceNotFound = errors.New("device not found")

// Registry owns every Device and its driver. The set of devices is fixed
// when the registry is built; ids are the positions in the setup file.
type Registry struct {
	devices []*Device
	logger  *zap.Logger
}

// NewRegistry creates one device per setup entry, in order.
func NewRegistry(setups []types.DeviceSetup, logger *zap.Logger) (*Registry, error) {
	if len(setups) > math.MaxUint8 {
		return nil, fmt.Errorf("too many devices: %d", len(setups))
	}

	r := &Registry{
		devices: make([]*Device, 0, len(setups)),
		logger:  logger,
	}

	for i, setup := range setups {
		driver, err := drivers.New(setup.Model)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}

		device := newDevice(uint8(i), setup.Model, driver)
		device.setSettings(applyOverrides(device.Settings(), setup))
		r.devices = append(r.devices, device)

		s := device.Settings()
		logger.Info("Device registered",
			zap.Uint8("id", device.ID),
			zap.String("device", device.Name),
			zap.String("enabled", s.Enabled.String()),
			zap.Uint8("channel", s.Channel),
			zap.String("port", s.Port.String()))
	}

	return r, nil
}

func applyOverrides(s Settings, setup types.DeviceSetup) Settings {
	if setup.Enabled != nil {
		s.Enabled = *setup.Enabled
	}
	if setup.Channel != nil {
		s.Channel = *setup.Channel
	}
	if setup.Port != nil {
		s.Port = *setup.Port
	}
	if setup.Colour != nil {
		s.Colour = *setup.Colour
	}
	if setup.AlwaysOn != nil {
		s.AlwaysOn = *setup.AlwaysOn
	}
	if setup.Pages != nil {
		s.Pages = [types.DevicePages]types.PageID{}
		copy(s.Pages[:], setup.Pages)
	}
	return s.Normalize()
}

// Get returns the device with the given id
func (r *Registry) Get(id uint8) (*Device, bool) {
	if int(id) >= len(r.devices) {
		return nil, false
	}
	return r.devices[id], true
}

// Len returns the number of devices
func (r *Registry) Len() int {
	return len(r.devices)
}

// List returns all devices in id order
func (r *Registry) List() []*Device {
	devices := make([]*Device, len(r.devices))
	copy(devices, r.devices)
	return devices
}

// ForEachEnabled calls fn for every device that is not switched off, in id order.
func (r *Registry) ForEachEnabled(fn func(*Device)) {
	for _, device := range r.devices {
		if device.Enabled() == types.DeviceOff {
			continue
		}
		fn(device)
	}
}

// ReadSettings returns the settings record of a device.
func (r *Registry) ReadSettings(id uint8) ([]byte, error) {
	device, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	return EncodeSettings(device.Settings()), nil
}

// ApplySettings replaces the editable fields of a device with the content of
// a settings record.
func (r *Registry) ApplySettings(id uint8, record []byte) error {
	device, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}

	settings, err := DecodeSettings(record)
	if err != nil {
		return fmt.Errorf("device %d: %w", id, err)
	}

	previous := device.Settings()
	device.setSettings(settings)

	if previous != settings {
		r.logger.Info("Device settings applied",
			zap.Uint8("id", id),
			zap.String("device", device.Name),
			zap.String("enabled", settings.Enabled.String()),
			zap.Uint8("channel", settings.Channel),
			zap.String("port", settings.Port.String()))
	}

	return nil
}
