package pages

import (
	"sync"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"go.uber.org/zap"
)

// Navigator tracks the page currently shown on the controller.
type Navigator struct {
	book   *Book
	logger *zap.Logger

	mu      sync.RWMutex
	current types.PageID
}

func NewNavigator(book *Book, logger *zap.Logger) *Navigator {
	return &Navigator{
		book:    book,
		logger:  logger,
		current: types.PageDefault,
	}
}

func (n *Navigator) Current() types.PageID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Open switches to page id. Unknown pages are ignored.
func (n *Navigator) Open(id types.PageID) bool {
	if _, ok := n.book.Page(id); !ok {
		n.logger.Debug("Page not defined", zap.Uint8("page", uint8(id)))
		return false
	}

	n.mu.Lock()
	previous := n.current
	n.current = id
	n.mu.Unlock()

	if previous != id {
		n.logger.Info("Page opened", zap.Uint8("page", uint8(id)))
	}
	return true
}

// Commands returns the commands of a switch on the current page.
func (n *Navigator) Commands(switchID uint8) []types.Command {
	return n.book.Lookup(n.Current(), switchID)
}

// OpenDevicePage opens the page a device has in slot (1-based). An empty
// slot leaves the current page.
func (n *Navigator) OpenDevicePage(devicePages [types.DevicePages]types.PageID, slot uint16) bool {
	if slot < 1 || int(slot) > types.DevicePages {
		return false
	}
	id := devicePages[slot-1]
	if id == types.PageDefault {
		return false
	}
	return n.Open(id)
}

// OpenNextDevicePage cycles through the assigned pages of a device, starting
// after the current page. When the current page is not one of the device's
// pages the first assigned page opens.
func (n *Navigator) OpenNextDevicePage(devicePages [types.DevicePages]types.PageID) bool {
	next, ok := NextPage(devicePages, n.Current())
	if !ok {
		return false
	}
	return n.Open(next)
}

// NextPage returns the assigned page following current in devicePages.
func NextPage(devicePages [types.DevicePages]types.PageID, current types.PageID) (types.PageID, bool) {
	start := -1
	for i, id := range devicePages {
		if id != types.PageDefault && id == current {
			start = i
			break
		}
	}

	for step := 1; step <= types.DevicePages; step++ {
		i := (start + step) % types.DevicePages
		if devicePages[i] != types.PageDefault {
			return devicePages[i], true
		}
	}
	return types.PageDefault, false
}
