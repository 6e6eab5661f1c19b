package matrix

import (
	"fmt"
	"sync"
)

// SimulatedLines models the electrical behaviour of a switch matrix without
// hardware: a pulled-up input reads low when a closed switch connects it to
// an output driven low. Watched pins notify on every level change, the way a
// pin-change interrupt would. It backs the simulated matrix backend and the
// scanner tests.
type SimulatedLines struct {
	mu      sync.Mutex
	rows    []Pin
	columns []Pin

	output   map[Pin]bool // pin is configured as output
	high     map[Pin]bool // driven level of outputs
	closed   map[[2]int]bool
	watchers map[Pin]func()
	levels   map[Pin]bool
}

func NewSimulatedLines(rows, columns []Pin) *SimulatedLines {
	return &SimulatedLines{
		rows:     append([]Pin(nil), rows...),
		columns:  append([]Pin(nil), columns...),
		output:   make(map[Pin]bool),
		high:     make(map[Pin]bool),
		closed:   make(map[[2]int]bool),
		watchers: make(map[Pin]func()),
		levels:   make(map[Pin]bool),
	}
}

func (l *SimulatedLines) ConfigureOutput(pin Pin) error {
	l.mutate(func() { l.output[pin] = true })
	return nil
}

func (l *SimulatedLines) ConfigureInputPullUp(pin Pin) error {
	l.mutate(func() { l.output[pin] = false })
	return nil
}

func (l *SimulatedLines) SetPin(pin Pin, high bool) error {
	l.mutate(func() { l.high[pin] = high })
	return nil
}

func (l *SimulatedLines) ReadPin(pin Pin) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level(pin)
}

func (l *SimulatedLines) Watch(pin Pin, notify func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers[pin] = notify
	l.levels[pin] = l.level(pin)
	return nil
}

func (l *SimulatedLines) Unwatch(pin Pin) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.watchers, pin)
	delete(l.levels, pin)
	return nil
}

// Press closes the switch at row, col.
func (l *SimulatedLines) Press(row, col int) {
	l.mutate(func() { l.closed[[2]int{row, col}] = true })
}

// Release opens the switch at row, col.
func (l *SimulatedLines) Release(row, col int) {
	l.mutate(func() { delete(l.closed, [2]int{row, col}) })
}

// PressSwitch closes the switch with the given 1-based id.
func (l *SimulatedLines) PressSwitch(id uint8) error {
	row, col, err := l.position(id)
	if err != nil {
		return err
	}
	l.Press(row, col)
	return nil
}

// ReleaseSwitch opens the switch with the given 1-based id.
func (l *SimulatedLines) ReleaseSwitch(id uint8) error {
	row, col, err := l.position(id)
	if err != nil {
		return err
	}
	l.Release(row, col)
	return nil
}

func (l *SimulatedLines) position(id uint8) (int, int, error) {
	numCols := len(l.columns)
	if id == 0 || int(id) > len(l.rows)*numCols {
		return 0, 0, fmt.Errorf("switch %d outside %dx%d matrix", id, len(l.rows), numCols)
	}
	return (int(id) - 1) / numCols, (int(id) - 1) % numCols, nil
}

// mutate applies change and then fires the notifications of every watched
// pin whose level changed, outside the lock.
func (l *SimulatedLines) mutate(change func()) {
	l.mu.Lock()
	change()

	var fire []func()
	for pin, notify := range l.watchers {
		level := l.level(pin)
		if level != l.levels[pin] {
			l.levels[pin] = level
			fire = append(fire, notify)
		}
	}
	l.mu.Unlock()

	for _, notify := range fire {
		notify()
	}
}

func (l *SimulatedLines) level(pin Pin) bool {
	if l.output[pin] {
		return l.high[pin]
	}

	for r, row := range l.rows {
		for c, col := range l.columns {
			if !l.closed[[2]int{r, c}] {
				continue
			}
			var other Pin
			switch pin {
			case row:
				other = col
			case col:
				other = row
			default:
				continue
			}
			if l.output[other] && !l.high[other] {
				return false
			}
		}
	}
	return true
}
