package matrix

import (
	"sync"
	"testing"
)

func TestMailbox_TakeClears(t *testing.T) {
	var m Mailbox

	if got := m.Take(); got != 0 {
		t.Errorf("Take() on empty mailbox = %d, want 0", got)
	}

	m.Post(3)
	if got := m.Peek(); got != 3 {
		t.Errorf("Peek() = %d, want 3", got)
	}
	if got := m.Take(); got != 3 {
		t.Errorf("Take() = %d, want 3", got)
	}
	if got := m.Take(); got != 0 {
		t.Errorf("second Take() = %d, want 0", got)
	}
}

func TestMailbox_LaterPostWins(t *testing.T) {
	var m Mailbox

	m.Post(1)
	m.Post(4)
	if got := m.Take(); got != 4 {
		t.Errorf("Take() = %d, want 4", got)
	}
}

func TestMailbox_ConcurrentPostAndTake(t *testing.T) {
	var m Mailbox
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Post(uint8(i%5 + 1))
		}
	}()

	seen := 0
	for i := 0; i < 1000; i++ {
		if v := m.Take(); v != 0 {
			if v > 5 {
				t.Fatalf("Take() = %d, outside posted range", v)
			}
			seen++
		}
	}
	wg.Wait()

	// Whatever the interleaving, the final post is either taken or still there.
	if m.Take() == 0 && seen == 0 {
		t.Error("no post was ever observed")
	}
}
