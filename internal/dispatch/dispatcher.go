package dispatch

import (
	"fmt"

	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// DefaultBankSize is used when a bank command carries no bank size.
const DefaultBankSize = 10

// Output sends MIDI messages to the devices on a port.
type Output interface {
	Send(port types.MIDIPort, msgs ...midi.Message) error
}

// Devices resolves a device id.
type Devices interface {
	Get(id uint8) (*devices.Device, bool)
}

// Pages changes the page shown on the controller.
type Pages interface {
	OpenDevicePage(devicePages [types.DevicePages]types.PageID, slot uint16) bool
	OpenNextDevicePage(devicePages [types.DevicePages]types.PageID) bool
	Current() types.PageID
}

// Action describes what a dispatched command did. Dropped is set, with the
// reason, when the command had no effect.
type Action struct {
	Opcode     types.Opcode `json:"opcode"`
	Device     uint8        `json:"device"`
	DeviceName string       `json:"device_name,omitempty"`
	Dropped    string       `json:"dropped,omitempty"`

	Patch      *uint16 `json:"patch,omitempty"`
	PatchLabel string  `json:"patch_label,omitempty"`
	Bank       *uint16 `json:"bank,omitempty"`
	Parameter  *uint16 `json:"parameter,omitempty"`
	Value      uint8   `json:"value,omitempty"`
	State      string  `json:"state,omitempty"`
	Page       *uint8  `json:"page,omitempty"`
	Messages   int     `json:"messages"`
}

// Dispatcher translates commands into device protocol messages. The command
// vocabulary is the same for every device; the device's driver decides which
// opcodes apply and how they are encoded.
type Dispatcher struct {
	devices Devices
	output  Output
	pages   Pages
	state   *State
	logger  *zap.Logger

	onAction func(Action)
}

func NewDispatcher(devices Devices, output Output, pages Pages, state *State, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		output:  output,
		pages:   pages,
		state:   state,
		logger:  logger,
	}
}

// OnAction registers a callback for every dispatched command, dropped ones
// included. It must be set before the first Dispatch.
func (d *Dispatcher) OnAction(fn func(Action)) {
	d.onAction = fn
}

func (d *Dispatcher) State() *State {
	return d.state
}

// Dispatch executes one command. Commands for unknown or switched off
// devices, and opcodes the device's driver does not support, are dropped
// without an error. The error is only set when the transport failed.
func (d *Dispatcher) Dispatch(cmd types.Command) (Action, error) {
	action, err := d.dispatch(cmd)

	if action.Dropped != "" {
		d.logger.Debug("Command dropped",
			zap.String("opcode", string(cmd.Opcode)),
			zap.Uint8("device", cmd.Device),
			zap.String("reason", action.Dropped))
	}
	if err != nil {
		d.logger.Warn("Command not delivered",
			zap.String("opcode", string(cmd.Opcode)),
			zap.Uint8("device", cmd.Device),
			zap.Error(err))
	}

	if d.onAction != nil {
		d.onAction(action)
	}
	return action, err
}

func (d *Dispatcher) dispatch(cmd types.Command) (Action, error) {
	action := Action{Opcode: cmd.Opcode, Device: cmd.Device}

	device, ok := d.devices.Get(cmd.Device)
	if !ok {
		action.Dropped = "unknown device"
		return action, nil
	}
	action.DeviceName = device.Name

	settings := device.Settings()
	if settings.Enabled == types.DeviceOff {
		action.Dropped = "device off"
		return action, nil
	}

	driver := device.Driver()
	if !driver.CheckCommandEnabled(cmd.Opcode) {
		action.Dropped = "opcode not supported"
		return action, nil
	}

	switch cmd.Opcode {
	case types.OpcodePatchSelect:
		return d.selectPatch(action, device, settings, int(cmd.Value1))

	case types.OpcodePatchBank:
		size := bankSize(cmd.Value2)
		patch := int(device.PatchMin) + int(device.Bank())*size + int(cmd.Value1) - 1
		return d.selectPatch(action, device, settings, patch)

	case types.OpcodeNextPatch, types.OpcodePrevPatch:
		current, ok := d.state.Patch(device.ID)
		if !ok {
			current = device.PatchMin
		}
		step := 1
		if cmd.Opcode == types.OpcodePrevPatch {
			step = -1
		}
		return d.selectPatch(action, device, settings, int(current)+step)

	case types.OpcodeBankUp, types.OpcodeBankDown:
		size := bankSize(cmd.Value1)
		last := (int(device.PatchMax) - int(device.PatchMin)) / size
		bank := int(device.Bank())
		if cmd.Opcode == types.OpcodeBankUp {
			bank++
		} else {
			bank--
		}
		bank = min(max(bank, 0), last)
		device.SetBank(uint16(bank))

		b := uint16(bank)
		action.Bank = &b
		return action, nil

	case types.OpcodeParameter:
		return d.stepParameter(action, device, settings, cmd.Value1)

	case types.OpcodeOpenPageDevice:
		if !d.pages.OpenDevicePage(settings.Pages, cmd.Value1) {
			action.Dropped = "no page in slot"
			return action, nil
		}
		return d.withPage(action), nil

	case types.OpcodeOpenNextPageOfDevice:
		if !d.pages.OpenNextDevicePage(settings.Pages) {
			action.Dropped = "device has no pages"
			return action, nil
		}
		return d.withPage(action), nil
	}

	action.Dropped = "no action for opcode"
	return action, nil
}

func (d *Dispatcher) selectPatch(action Action, device *devices.Device, settings devices.Settings, patch int) (Action, error) {
	clamped := device.ClampPatch(patch)
	driver := device.Driver()

	action.Patch = &clamped
	action.PatchLabel = driver.FormatPatchLabel(clamped)

	msgs := driver.PatchChange(settings.Channel, clamped)
	action.Messages = len(msgs)
	if err := d.output.Send(settings.Port, msgs...); err != nil {
		return action, fmt.Errorf("patch change to %s: %w", device.Name, err)
	}

	d.state.SetPatch(device.ID, clamped)
	return action, nil
}

// stepParameter moves a parameter to its next raw value, wrapping from
// MaxValue back to 0. On/off parameters flip.
func (d *Dispatcher) stepParameter(action Action, device *devices.Device, settings devices.Settings, index uint16) (Action, error) {
	driver := device.Driver()
	if index >= driver.ParameterCount() {
		action.Dropped = "unknown parameter"
		return action, nil
	}

	current := d.state.ParameterValue(device.ID, index)
	next := uint8((int(current) + 1) % (int(driver.MaxValue(index)) + 1))

	msgs := driver.ParameterChange(settings.Channel, index, next)
	if len(msgs) == 0 {
		action.Dropped = "parameter has no encoding"
		return action, nil
	}

	action.Parameter = &index
	action.Value = next
	action.State = driver.ParameterState(index, next)
	action.Messages = len(msgs)

	if err := d.output.Send(settings.Port, msgs...); err != nil {
		return action, fmt.Errorf("parameter change to %s: %w", device.Name, err)
	}

	d.state.SetParameterValue(device.ID, index, next)
	return action, nil
}

func (d *Dispatcher) withPage(action Action) Action {
	p := uint8(d.pages.Current())
	action.Page = &p
	return action
}

func bankSize(size uint16) int {
	if size == 0 {
		return DefaultBankSize
	}
	return int(size)
}
