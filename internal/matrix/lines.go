package matrix

// Pin identifies a hardware line.
type Pin uint8

// Lines is the hardware boundary of the scanner: the row and column lines of
// the switch matrix. Implementations exist for Raspberry Pi GPIO and for a
// simulated matrix.
type Lines interface {
	// ConfigureOutput makes pin an output
	ConfigureOutput(pin Pin) error

	// ConfigureInputPullUp makes pin an input with pull-up resistor
	ConfigureInputPullUp(pin Pin) error

	// SetPin drives an output high (true) or low (false)
	SetPin(pin Pin, high bool) error

	// ReadPin returns true when the pin reads high
	ReadPin(pin Pin) bool

	// Watch arms a level change notification on pin. notify runs outside the
	// scanner's goroutine and must not block.
	Watch(pin Pin, notify func()) error

	// Unwatch disarms the notification on pin
	Unwatch(pin Pin) error
}
