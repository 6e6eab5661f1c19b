package pages

import (
	"fmt"
	"sort"

	"github.com/KevinKickass/OpenStompCore/internal/types"
)

// Page is the switch layout of one page.
type Page struct {
	ID       types.PageID
	Name     string
	switches map[uint8][]types.Command
}

// Commands returns the commands assigned to a switch on this page.
func (p *Page) Commands(switchID uint8) []types.Command {
	if p == nil {
		return nil
	}
	return p.switches[switchID]
}

// Switches returns the ids of the switches with an assignment, in order.
func (p *Page) Switches() []uint8 {
	ids := make([]uint8, 0, len(p.switches))
	for id := range p.switches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Book holds every page layout of the setup. It is built once and only read
// afterwards.
type Book struct {
	pages map[types.PageID]*Page
}

// NewBook indexes the page layouts of a setup. Page ids must be unique and
// every command must use a known opcode.
func NewBook(setups []types.PageSetup) (*Book, error) {
	b := &Book{pages: make(map[types.PageID]*Page, len(setups))}

	for _, setup := range setups {
		if setup.ID > types.LastFixedPage {
			return nil, fmt.Errorf("page %d: id above %d", setup.ID, types.LastFixedPage)
		}
		if _, exists := b.pages[setup.ID]; exists {
			return nil, fmt.Errorf("page %d: duplicate id", setup.ID)
		}

		page := &Page{
			ID:       setup.ID,
			Name:     setup.Name,
			switches: make(map[uint8][]types.Command, len(setup.Switches)),
		}
		for id, commands := range setup.Switches {
			if id == 0 {
				return nil, fmt.Errorf("page %d: switch id 0 is reserved", setup.ID)
			}
			for _, cmd := range commands {
				if !cmd.Opcode.Valid() {
					return nil, fmt.Errorf("page %d switch %d: unknown opcode %q", setup.ID, id, cmd.Opcode)
				}
			}
			page.switches[id] = append([]types.Command(nil), commands...)
		}
		b.pages[setup.ID] = page
	}

	return b, nil
}

// Page returns the layout with the given id.
func (b *Book) Page(id types.PageID) (*Page, bool) {
	p, ok := b.pages[id]
	return p, ok
}

// IDs returns all page ids in order.
func (b *Book) IDs() []types.PageID {
	ids := make([]types.PageID, 0, len(b.pages))
	for id := range b.pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lookup returns the commands of a switch on page id. A switch without an
// assignment on that page falls back to the default page.
func (b *Book) Lookup(id types.PageID, switchID uint8) []types.Command {
	if p, ok := b.pages[id]; ok {
		if commands := p.Commands(switchID); len(commands) > 0 {
			return commands
		}
	}
	if id == types.PageDefault {
		return nil
	}
	return b.pages[types.PageDefault].Commands(switchID)
}
