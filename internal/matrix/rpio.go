package matrix

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"go.uber.org/zap"
)

// RPIOLines drives the matrix through the Raspberry Pi GPIO registers. The
// edge detect registers are sampled every interval and a detected edge calls
// the pin's notification from the sampling goroutine.
type RPIOLines struct {
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watchers map[Pin]func()

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// OpenRPIO maps the GPIO registers and starts edge sampling.
func OpenRPIO(interval time.Duration, logger *zap.Logger) (*RPIOLines, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open gpio: %w", err)
	}

	l := &RPIOLines{
		interval: interval,
		logger:   logger,
		watchers: make(map[Pin]func()),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.sampleLoop()

	logger.Info("GPIO edge sampling started", zap.Duration("interval", interval))
	return l, nil
}

func (l *RPIOLines) ConfigureOutput(pin Pin) error {
	rpio.Pin(pin).Output()
	return nil
}

func (l *RPIOLines) ConfigureInputPullUp(pin Pin) error {
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	return nil
}

func (l *RPIOLines) SetPin(pin Pin, high bool) error {
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

func (l *RPIOLines) ReadPin(pin Pin) bool {
	return rpio.Pin(pin).Read() == rpio.High
}

func (l *RPIOLines) Watch(pin Pin, notify func()) error {
	p := rpio.Pin(pin)
	p.Detect(rpio.AnyEdge)
	// Clear an edge latched before the watch was armed.
	p.EdgeDetected()

	l.mu.Lock()
	l.watchers[pin] = notify
	l.mu.Unlock()
	return nil
}

func (l *RPIOLines) Unwatch(pin Pin) error {
	l.mu.Lock()
	delete(l.watchers, pin)
	l.mu.Unlock()

	rpio.Pin(pin).Detect(rpio.NoEdge)
	return nil
}

func (l *RPIOLines) sampleLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.sample()
		}
	}
}

func (l *RPIOLines) sample() {
	l.mu.Lock()
	var fire []func()
	for pin, notify := range l.watchers {
		if rpio.Pin(pin).EdgeDetected() {
			fire = append(fire, notify)
		}
	}
	l.mu.Unlock()

	for _, notify := range fire {
		notify()
	}
}

// Close stops edge sampling, disarms all pins and unmaps the registers.
func (l *RPIOLines) Close() error {
	close(l.stopChan)
	l.wg.Wait()

	l.mu.Lock()
	for pin := range l.watchers {
		rpio.Pin(pin).Detect(rpio.NoEdge)
	}
	l.watchers = make(map[Pin]func())
	l.mu.Unlock()

	l.logger.Info("GPIO edge sampling stopped")
	return rpio.Close()
}
