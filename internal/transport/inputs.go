package transport

import (
	"sync"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// Handler receives messages from a controller input port.
type Handler func(port types.MIDIPort, msg midi.Message)

// Inputs listens on the system input ports connected to the controller's
// MIDI ports and hands every message to one handler.
type Inputs struct {
	names  map[types.MIDIPort]string
	listen ListenFunc
	logger *zap.Logger

	mu    sync.Mutex
	stops []func()
}

func NewInputs(names map[types.MIDIPort]string, listen ListenFunc, logger *zap.Logger) *Inputs {
	if listen == nil {
		listen = ListenInPort
	}
	return &Inputs{
		names:  names,
		listen: listen,
		logger: logger,
	}
}

// Start listens on every configured port. Ports that cannot be opened are
// logged and skipped; it returns the number of ports listening.
func (in *Inputs) Start(handler Handler) int {
	in.mu.Lock()
	defer in.mu.Unlock()

	for port, name := range in.names {
		port := port // per-iteration copy; go.mod targets go1.21 loop semantics
		stop, err := in.listen(name, func(msg midi.Message) {
			handler(port, msg)
		})
		if err != nil {
			in.logger.Warn("MIDI input not available",
				zap.String("port", port.String()),
				zap.String("name", name),
				zap.Error(err))
			continue
		}

		in.stops = append(in.stops, stop)
		in.logger.Info("MIDI input opened",
			zap.String("port", port.String()),
			zap.String("name", name))
	}

	return len(in.stops)
}

func (in *Inputs) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, stop := range in.stops {
		stop()
	}
	in.stops = nil
}
