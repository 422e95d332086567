package menu

import (
	"errors"
	"testing"
)

func TestMenu_AddAndClick(t *testing.T) {
	m := New()

	clicked := 0
	m.AddItem(func(item *Item) {
		item.SetTitle("Enable default source view").
			SetIcon("code").
			OnClick(func() error {
				clicked++
				return nil
			})
	})
	m.AddItem(func(item *Item) { item.SetTitle("Rename") })

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	item, ok := m.Find("Enable default source view")
	if !ok || item.Icon() != "code" {
		t.Fatalf("Find() = %v, %v", item, ok)
	}

	if err := m.Click(0); err != nil {
		t.Fatalf("Click(0) error = %v", err)
	}
	if clicked != 1 {
		t.Errorf("clicked = %d, want 1", clicked)
	}

	// Items without a callback are a no-op.
	if err := m.Click(1); err != nil {
		t.Errorf("Click(1) error = %v", err)
	}
}

func TestMenu_ClickOutOfRange(t *testing.T) {
	m := New()
	if err := m.Click(0); !errors.Is(err, ErrNoSuchItem) {
		t.Errorf("Click(0) error = %v, want ErrNoSuchItem", err)
	}
	if err := m.Click(-1); !errors.Is(err, ErrNoSuchItem) {
		t.Errorf("Click(-1) error = %v, want ErrNoSuchItem", err)
	}
}

func TestMenu_ClickPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	m := New().AddItem(func(item *Item) {
		item.OnClick(func() error { return boom })
	})

	if err := m.Click(0); !errors.Is(err, boom) {
		t.Errorf("Click() error = %v, want boom", err)
	}
}

func TestMenu_ItemsIsCopy(t *testing.T) {
	m := New().AddItem(func(item *Item) { item.SetTitle("a").SetSection("view") })
	items := m.Items()
	items[0] = nil

	if m.Items()[0] == nil {
		t.Error("Items() exposed internal slice")
	}
	if m.Items()[0].Section() != "view" {
		t.Errorf("Section() = %q", m.Items()[0].Section())
	}
}
