package matrix

import "sync/atomic"

// Mailbox is the single slot shared between the edge notifications and Poll.
// Notifications only post, Poll only takes; Take reads and clears in one
// atomic step so a notification is either seen or left for the next take,
// never torn.
type Mailbox struct {
	column atomic.Uint32
}

// Post records a 1-based column. A later post overwrites an earlier one.
func (m *Mailbox) Post(column uint8) {
	m.column.Store(uint32(column))
}

// Take returns the posted column, or 0, and clears the slot.
func (m *Mailbox) Take() uint8 {
	return uint8(m.column.Swap(0))
}

// Peek returns the posted column without clearing it.
func (m *Mailbox) Peek() uint8 {
	return uint8(m.column.Load())
}
