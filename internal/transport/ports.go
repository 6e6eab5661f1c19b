package transport

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
	"go.uber.org/zap"
)

var ErrPortNotConnected = errors.New("midi port not connected")

// SendFunc sends one message on an opened output.
type SendFunc func(msg midi.Message) error

// OpenFunc opens the system output port with the given name.
type OpenFunc func(name string) (SendFunc, error)

// ListenFunc starts listening on the system input port with the given name.
type ListenFunc func(name string, fn func(msg midi.Message)) (stop func(), err error)

// Ports routes messages from the controller's MIDI ports to system ports.
// Outputs are opened lazily and kept open; a failed send closes the cached
// sender so the next send tries to reopen the port.
type Ports struct {
	names  map[types.MIDIPort]string
	open   OpenFunc
	logger *zap.Logger

	mu      sync.Mutex
	senders map[types.MIDIPort]SendFunc
}

func NewPorts(names map[types.MIDIPort]string, open OpenFunc, logger *zap.Logger) *Ports {
	if open == nil {
		open = OpenOutPort
	}
	return &Ports{
		names:   names,
		open:    open,
		logger:  logger,
		senders: make(map[types.MIDIPort]SendFunc),
	}
}

// Send writes msgs to port. PortAll writes to every connected port.
func (p *Ports) Send(port types.MIDIPort, msgs ...midi.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if port != types.PortAll {
		return p.sendTo(port, msgs)
	}

	var errs []error
	for _, target := range p.Connected() {
		if err := p.sendTo(target, msgs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Connected returns the ports with a configured system port, in order.
func (p *Ports) Connected() []types.MIDIPort {
	ports := make([]types.MIDIPort, 0, len(p.names))
	for port := range p.names {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// Name returns the system port name behind port.
func (p *Ports) Name(port types.MIDIPort) (string, bool) {
	name, ok := p.names[port]
	return name, ok
}

func (p *Ports) sendTo(port types.MIDIPort, msgs []midi.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	send, err := p.sender(port)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if err := send(msg); err != nil {
			delete(p.senders, port)
			return fmt.Errorf("failed to send to %s: %w", port, err)
		}
	}
	return nil
}

func (p *Ports) sender(port types.MIDIPort) (SendFunc, error) {
	if send, ok := p.senders[port]; ok {
		return send, nil
	}

	name, ok := p.names[port]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPortNotConnected, port)
	}

	send, err := p.open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", port, err)
	}

	p.logger.Info("MIDI output opened",
		zap.String("port", port.String()),
		zap.String("name", name))

	p.senders[port] = send
	return send, nil
}

// OpenOutPort opens a system output port through the registered MIDI driver.
func OpenOutPort(name string) (SendFunc, error) {
	out := findOutPort(name)
	if out == nil {
		return nil, fmt.Errorf("output port not found: %s", name)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	return send, nil
}

// ListenInPort listens on a system input port. SysEx messages are delivered.
func ListenInPort(name string, fn func(msg midi.Message)) (func(), error) {
	in := findInPort(name)
	if in == nil {
		return nil, fmt.Errorf("input port not found: %s", name)
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		fn(msg)
	}, midi.UseSysEx())
	if err != nil {
		return nil, fmt.Errorf("failed to start listening: %w", err)
	}
	return stop, nil
}

// ListOutPorts returns the names of available MIDI output ports
func ListOutPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// ListInPorts returns the names of available MIDI input ports
func ListInPorts() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// Close shuts down the MIDI driver.
func Close() {
	midi.CloseDriver()
}

func findOutPort(name string) drivers.Out {
	for _, out := range midi.GetOutPorts() {
		if out.String() == name {
			return out
		}
	}
	return nil
}

func findInPort(name string) drivers.In {
	for _, in := range midi.GetInPorts() {
		if in.String() == name {
			return in
		}
	}
	return nil
}
