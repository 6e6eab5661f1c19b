package detect

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenStompCore/internal/devices"
	"github.com/KevinKickass/OpenStompCore/internal/drivers"
	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// Output sends MIDI messages on a controller port.
type Output interface {
	Send(port types.MIDIPort, msgs ...midi.Message) error
}

// ChangeFunc is called when a device is detected or lost.
type ChangeFunc func(device *devices.Device, detected bool)

// Detector periodically asks every connected device for its identity. Devices
// set to DETECT are considered present while their replies keep arriving
// within the timeout.
type Detector struct {
	registry *devices.Registry
	output   Output
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
	onChange ChangeFunc

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewDetector(registry *devices.Registry, output Output, interval, timeout time.Duration, logger *zap.Logger) *Detector {
	return &Detector{
		registry: registry,
		output:   output,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// OnChange registers the callback for detection changes. Set it before Start.
func (d *Detector) OnChange(fn ChangeFunc) {
	d.onChange = fn
}

// Start starts the periodic sweep
func (d *Detector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	d.running = true
	d.wg.Add(1)

	go d.sweepLoop()

	d.logger.Info("Device detection started",
		zap.Duration("interval", d.interval),
		zap.Duration("timeout", d.timeout))

	return nil
}

// Stop stops the periodic sweep
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	d.logger.Info("Device detection stopped")
}

func (d *Detector) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Detector) sweepLoop() {
	defer d.wg.Done()

	d.Sweep()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}

// Sweep expires devices whose last reply is too old and sends a new
// identity request to all ports.
func (d *Detector) Sweep() {
	now := d.now()

	probing := false
	d.registry.ForEachEnabled(func(device *devices.Device) {
		if device.Enabled() != types.DeviceDetect {
			return
		}
		probing = true

		if device.Expire(now, d.timeout) {
			d.logger.Info("Device lost",
				zap.Uint8("id", device.ID),
				zap.String("device", device.Name))
			d.notify(device, false)
		}
	})

	if !probing {
		return
	}

	if err := d.output.Send(types.PortAll, midi.Message(drivers.IdentityRequest())); err != nil {
		d.logger.Debug("Identity request not sent", zap.Error(err))
	}
}

// Observe offers a received message to the drivers of all devices waiting
// for detection on that port.
func (d *Detector) Observe(port types.MIDIPort, msg midi.Message) {
	now := d.now()
	d.registry.ForEachEnabled(func(device *devices.Device) {
		settings := device.Settings()
		if settings.Enabled != types.DeviceDetect {
			return
		}
		if settings.Port != types.PortAll && settings.Port != port {
			return
		}
		if !device.Driver().MatchIdentity(msg) {
			return
		}

		wasDetected := device.Detected()
		device.MarkSeen(now)

		if !wasDetected {
			d.logger.Info("Device detected",
				zap.Uint8("id", device.ID),
				zap.String("device", device.Name),
				zap.String("port", port.String()))
			d.notify(device, true)
		}
	})
}

func (d *Detector) notify(device *devices.Device, detected bool) {
	if d.onChange != nil {
		d.onChange(device, detected)
	}
}
