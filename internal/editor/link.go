package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/KevinKickass/OpenStompCore/internal/transport"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// Settings is the part of the device registry the editor reads and writes.
type Settings interface {
	Len() int
	ReadSettings(id uint8) ([]byte, error)
	ApplySettings(id uint8, record []byte) error
}

// Link answers editor requests arriving on a MIDI input and replies on a
// MIDI output.
type Link struct {
	settings Settings
	logger   *zap.Logger

	mu   sync.Mutex
	stop func()
	send transport.SendFunc
}

func NewLink(settings Settings, logger *zap.Logger) *Link {
	return &Link{
		settings: settings,
		logger:   logger,
	}
}

// HandleFrame executes one editor request and returns the reply frame.
func (l *Link) HandleFrame(frame *Frame) (*Frame, error) {
	switch frame.Command {
	case CmdRequestDeviceCount:
		return &Frame{Command: CmdDeviceCount, Payload: []byte{uint8(l.settings.Len())}}, nil

	case CmdRequestSettings:
		record, err := l.settings.ReadSettings(frame.Device)
		if err != nil {
			return nil, err
		}
		return &Frame{Command: CmdSettings, Device: frame.Device, Payload: record}, nil

	case CmdApplySettings:
		status := uint8(AckOK)
		if err := l.settings.ApplySettings(frame.Device, frame.Payload); err != nil {
			l.logger.Warn("Editor settings rejected",
				zap.Uint8("device", frame.Device),
				zap.Error(err))
			status = AckError
		}
		return &Frame{Command: CmdAck, Device: frame.Device, Payload: []byte{status}}, nil

	default:
		return nil, fmt.Errorf("unknown editor command 0x%02X", frame.Command)
	}
}

// Receive decodes a message from the editor input and sends the reply.
// Messages that are not editor frames are ignored.
func (l *Link) Receive(msg midi.Message) {
	frame, err := DecodeFrame(msg)
	if errors.Is(err, ErrNotEditorFrame) {
		return
	}
	if err != nil {
		l.logger.Warn("Invalid editor frame", zap.Error(err))
		return
	}

	reply, err := l.HandleFrame(frame)
	if err != nil {
		l.logger.Warn("Editor request failed",
			zap.Uint8("command", frame.Command),
			zap.Uint8("device", frame.Device),
			zap.Error(err))
		return
	}

	l.mu.Lock()
	send := l.send
	l.mu.Unlock()

	if send == nil {
		return
	}
	if err := send(reply.Encode()); err != nil {
		l.logger.Warn("Editor reply not sent", zap.Error(err))
	}
}

// Start opens the editor ports and begins serving requests.
func (l *Link) Start(inName, outName string, listen transport.ListenFunc, open transport.OpenFunc) error {
	if listen == nil {
		listen = transport.ListenInPort
	}
	if open == nil {
		open = transport.OpenOutPort
	}

	send, err := open(outName)
	if err != nil {
		return fmt.Errorf("editor output: %w", err)
	}

	l.mu.Lock()
	l.send = send
	l.mu.Unlock()

	stop, err := listen(inName, l.Receive)
	if err != nil {
		return fmt.Errorf("editor input: %w", err)
	}

	l.mu.Lock()
	l.stop = stop
	l.mu.Unlock()

	l.logger.Info("Editor link started",
		zap.String("in", inName),
		zap.String("out", outName))
	return nil
}

func (l *Link) Stop() {
	l.mu.Lock()
	stop := l.stop
	l.stop = nil
	l.send = nil
	l.mu.Unlock()

	if stop != nil {
		stop()
		l.logger.Info("Editor link stopped")
	}
}
