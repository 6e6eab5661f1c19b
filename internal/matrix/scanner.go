package matrix

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Scanner reads a switch matrix with one edge notification per column. While
// idle all rows are driven low and the columns wait for a level change, so
// nothing runs until a switch moves. Poll then scans only the column that
// changed.
//
// A burst of transitions inside the debounce window is coalesced: only the
// state found when the window has passed is reported, and there is no queue
// of pending events.
type Scanner struct {
	rows     []Pin
	columns  []Pin
	debounce time.Duration
	lines    Lines
	logger   *zap.Logger
	now      func() time.Time

	mailbox    Mailbox
	lastChange time.Time
	state      uint8
	released   uint8
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock replaces time.Now. The clock must be monotonic.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// WithLogger sets the logger used for hardware errors.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

func NewScanner(lines Lines, rows, columns []Pin, debounce time.Duration, opts ...Option) (*Scanner, error) {
	if len(rows) == 0 || len(columns) == 0 {
		return nil, errors.New("matrix needs at least one row and one column")
	}
	if len(rows)*len(columns) > 254 {
		return nil, fmt.Errorf("matrix of %dx%d switches exceeds 254 ids", len(rows), len(columns))
	}

	s := &Scanner{
		rows:     append([]Pin(nil), rows...),
		columns:  append([]Pin(nil), columns...),
		debounce: debounce,
		lines:    lines,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize puts the matrix in the idle state and arms every column.
func (s *Scanner) Initialize() error {
	for _, col := range s.columns {
		if err := s.lines.ConfigureInputPullUp(col); err != nil {
			return fmt.Errorf("column %d: %w", col, err)
		}
	}

	if err := s.idle(); err != nil {
		return err
	}

	for i := range s.columns {
		if err := s.arm(i); err != nil {
			return err
		}
	}

	// Arming may itself report a change while the lines settle.
	s.mailbox.Take()
	s.lastChange = s.now()
	s.state = 0
	s.released = 0

	s.logger.Info("Switch matrix initialized",
		zap.Int("rows", len(s.rows)),
		zap.Int("columns", len(s.columns)),
		zap.Duration("debounce", s.debounce))

	return nil
}

// idle drives all rows low so a closing switch pulls its column low.
func (s *Scanner) idle() error {
	for _, row := range s.rows {
		if err := s.lines.ConfigureOutput(row); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		if err := s.lines.SetPin(row, false); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
	}
	return nil
}

func (s *Scanner) arm(index int) error {
	column := uint8(index + 1)
	if err := s.lines.Watch(s.columns[index], func() { s.mailbox.Post(column) }); err != nil {
		return fmt.Errorf("column %d: %w", s.columns[index], err)
	}
	return nil
}

// Poll resolves a pending column change once the debounce window has passed.
// It returns true when the reported state changed.
func (s *Scanner) Poll() bool {
	if s.now().Sub(s.lastChange) <= s.debounce {
		return false
	}

	column := s.mailbox.Take()
	if column == 0 || int(column) > len(s.columns) {
		return false
	}

	newState := s.resolve(int(column) - 1)
	s.lastChange = s.now()

	if newState == s.state {
		return false
	}

	if newState == 0 {
		s.released = s.state
	} else {
		s.released = 0
	}
	s.state = newState
	return true
}

// resolve scans one column and returns the id of the pressed switch in it,
// or 0. When several rows are closed the last one scanned wins.
func (s *Scanner) resolve(c int) uint8 {
	col := s.columns[c]
	numCols := len(s.columns)

	for _, row := range s.rows {
		s.check(s.lines.SetPin(row, true), "release row", row)
		s.check(s.lines.ConfigureInputPullUp(row), "row to input", row)
	}

	s.check(s.lines.Unwatch(col), "disarm column", col)
	s.check(s.lines.ConfigureOutput(col), "column to output", col)
	s.check(s.lines.SetPin(col, false), "drive column", col)

	var newState uint8
	for r, row := range s.rows {
		if !s.lines.ReadPin(row) {
			newState = uint8(r*numCols + c + 1)
		}
	}

	s.check(s.lines.SetPin(col, true), "release column", col)
	s.check(s.lines.ConfigureInputPullUp(col), "column to input", col)

	if err := s.idle(); err != nil {
		s.logger.Warn("Failed to return matrix to idle", zap.Error(err))
	}

	// Reconfiguring the rows toggles other columns too; whatever they posted
	// is noise from the scan itself.
	s.mailbox.Take()
	if err := s.arm(c); err != nil {
		s.logger.Warn("Failed to re-arm column", zap.Error(err))
	}

	return newState
}

func (s *Scanner) check(err error, op string, pin Pin) {
	if err != nil {
		s.logger.Warn("Switch matrix line error",
			zap.String("op", op),
			zap.Uint8("pin", uint8(pin)),
			zap.Error(err))
	}
}

// Pressed returns the id of the switch currently held, 0 if none.
func (s *Scanner) Pressed() uint8 {
	return s.state
}

// Released returns the id of the switch let go by the last change, or 0 when
// the last change was a press.
func (s *Scanner) Released() uint8 {
	return s.released
}

// NumSwitches returns the number of switch ids the matrix can report.
func (s *Scanner) NumSwitches() int {
	return len(s.rows) * len(s.columns)
}
