// Package menu implements the context menus the workspace shows for files.
// Plugins append items while handling a file menu event; the host renders
// the titles and invokes the click callback of the chosen item.
package menu

import (
	"errors"
	"fmt"
)

// ErrNoSuchItem is returned when clicking an index that does not exist.
var ErrNoSuchItem = errors.New("menu item not found")

// Item is a single context menu entry.
type Item struct {
	title   string
	icon    string
	section string
	onClick func() error
}

// SetTitle sets the label shown to the user.
func (i *Item) SetTitle(title string) *Item {
	i.title = title
	return i
}

// SetIcon sets the icon identifier.
func (i *Item) SetIcon(icon string) *Item {
	i.icon = icon
	return i
}

// SetSection groups the item with others of the same section.
func (i *Item) SetSection(section string) *Item {
	i.section = section
	return i
}

// OnClick sets the callback run when the item is chosen.
func (i *Item) OnClick(fn func() error) *Item {
	i.onClick = fn
	return i
}

// Title returns the item label.
func (i *Item) Title() string { return i.title }

// Icon returns the item icon.
func (i *Item) Icon() string { return i.icon }

// Section returns the item section.
func (i *Item) Section() string { return i.section }

// Menu is an ordered list of items.
type Menu struct {
	items []*Item
}

// New creates an empty menu.
func New() *Menu {
	return &Menu{}
}

// AddItem appends an item configured by build.
func (m *Menu) AddItem(build func(*Item)) *Menu {
	item := &Item{}
	if build != nil {
		build(item)
	}
	m.items = append(m.items, item)
	return m
}

// Items returns the menu items in insertion order.
func (m *Menu) Items() []*Item {
	out := make([]*Item, len(m.items))
	copy(out, m.items)
	return out
}

// Len returns the number of items.
func (m *Menu) Len() int {
	return len(m.items)
}

// Find returns the first item with the given title.
func (m *Menu) Find(title string) (*Item, bool) {
	for _, item := range m.items {
		if item.title == title {
			return item, true
		}
	}
	return nil, false
}

// Click runs the callback of the item at index.
func (m *Menu) Click(index int) error {
	if index < 0 || index >= len(m.items) {
		return fmt.Errorf("%w: index %d", ErrNoSuchItem, index)
	}
	item := m.items[index]
	if item.onClick == nil {
		return nil
	}
	return item.onClick()
}
