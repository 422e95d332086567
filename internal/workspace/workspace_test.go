package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/keystorm-sourceview/internal/event"
	"github.com/dshills/keystorm-sourceview/internal/loop"
	"github.com/dshills/keystorm-sourceview/internal/menu"
)

func setupWorkspace(t *testing.T) (*Workspace, *event.Bus, *loop.Loop) {
	t.Helper()
	bus := event.NewBus()
	lp := loop.New()
	return New(bus, lp), bus, lp
}

func TestNewDocument(t *testing.T) {
	tests := []struct {
		path     string
		wantPath string
		wantName string
		wantExt  string
	}{
		{"notes/a.md", "notes/a.md", "a.md", "md"},
		{"notes\\b.md", "notes/b.md", "b.md", "md"},
		{"./notes/../c.txt", "c.txt", "c.txt", "txt"},
		{"README", "README", "README", ""},
		{"", "", "Untitled", ""},
	}

	for _, tt := range tests {
		doc := NewDocument(tt.path)
		if doc.Path != tt.wantPath || doc.Name != tt.wantName || doc.Extension != tt.wantExt {
			t.Errorf("NewDocument(%q) = %+v", tt.path, doc)
		}
	}

	if got := NewDocument("notes/a.md").Basename(); got != "a" {
		t.Errorf("Basename() = %q", got)
	}
}

func TestWorkspace_OpenPublishesAndDefersConstruction(t *testing.T) {
	ws, bus, lp := setupWorkspace(t)

	var opened []FileOpen
	_, _ = bus.Subscribe(TopicFileOpen, event.AsHandler[FileOpen](func(_ context.Context, e event.Event[FileOpen]) error {
		opened = append(opened, e.Payload)
		return nil
	}))

	leaf, err := ws.Open(context.Background(), "notes/a.md")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if len(opened) != 1 || opened[0].File == nil || opened[0].File.Path != "notes/a.md" || opened[0].LeafID != leaf.ID() {
		t.Fatalf("unexpected open events %+v", opened)
	}

	// The leaf is not ready until the loop runs its construction task.
	if leaf.Ready() {
		t.Fatal("leaf ready before loop drained")
	}
	if err := leaf.SetViewState(ViewState{Mode: ModeSource}); !errors.Is(err, ErrViewNotReady) {
		t.Errorf("SetViewState() before ready error = %v", err)
	}

	lp.Drain()
	if !leaf.Ready() {
		t.Fatal("leaf not ready after drain")
	}

	state := leaf.ViewState()
	if state.Type != TypeMarkdown || state.Mode != ModePreview || state.Source {
		t.Errorf("unexpected initial state %+v", state)
	}
}

func TestWorkspace_OpenEmptyPath(t *testing.T) {
	ws, _, _ := setupWorkspace(t)
	if _, err := ws.Open(context.Background(), ""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Open(\"\") error = %v", err)
	}
}

func TestWorkspace_SplitAndViewsOfType(t *testing.T) {
	ws, _, lp := setupWorkspace(t)
	ctx := context.Background()

	if _, err := ws.Split(ctx); !errors.Is(err, ErrNoActiveLeaf) {
		t.Errorf("Split() with no leaf error = %v", err)
	}

	a, _ := ws.Open(ctx, "notes/a.md")
	a2, err := ws.Split(ctx)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	_, _ = ws.Open(ctx, "src/main.go")
	lp.Drain()

	md := ws.ViewsOfType(TypeMarkdown)
	if len(md) != 2 || md[0].ID() != a.ID() || md[1].ID() != a2.ID() {
		t.Errorf("ViewsOfType(markdown) = %v", md)
	}
	if got := len(ws.ViewsOfType(TypeText)); got != 1 {
		t.Errorf("ViewsOfType(text) = %d views", got)
	}

	doc, ok := ws.ActiveDocument()
	if !ok || doc.Path != "src/main.go" {
		t.Errorf("ActiveDocument() = %+v, %v", doc, ok)
	}
}

func TestWorkspace_ActivateAndClose(t *testing.T) {
	ws, bus, lp := setupWorkspace(t)
	ctx := context.Background()

	a, _ := ws.Open(ctx, "notes/a.md")
	b, _ := ws.Open(ctx, "notes/b.md")
	lp.Drain()

	var last FileOpen
	_, _ = bus.Subscribe(TopicFileOpen, event.AsHandler[FileOpen](func(_ context.Context, e event.Event[FileOpen]) error {
		last = e.Payload
		return nil
	}))

	if err := ws.Activate(ctx, a.ID()); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if last.LeafID != a.ID() {
		t.Errorf("activate event leaf = %q", last.LeafID)
	}
	if err := ws.Activate(ctx, "missing"); !errors.Is(err, ErrLeafNotFound) {
		t.Errorf("Activate(missing) error = %v", err)
	}

	if err := ws.Close(ctx, a.ID()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if last.LeafID != b.ID() {
		t.Errorf("after closing active leaf, active = %q want %q", last.LeafID, b.ID())
	}
	if err := a.SetViewState(ViewState{}); !errors.Is(err, ErrViewClosed) {
		t.Errorf("SetViewState() on closed leaf error = %v", err)
	}

	if err := ws.Close(ctx, b.ID()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if last.File != nil || last.LeafID != "" {
		t.Errorf("expected empty open event, got %+v", last)
	}
	if _, ok := ws.ActiveView(); ok {
		t.Error("expected no active view")
	}
}

func TestWorkspace_RenameAndDelete(t *testing.T) {
	ws, bus, lp := setupWorkspace(t)
	ctx := context.Background()

	a, _ := ws.Open(ctx, "notes/a.md")
	_, _ = ws.Open(ctx, "notes/b.md")
	lp.Drain()

	var renamed []FileRenamed
	var deleted []FileDeleted
	_, _ = bus.Subscribe(TopicFileRenamed, event.AsHandler[FileRenamed](func(_ context.Context, e event.Event[FileRenamed]) error {
		renamed = append(renamed, e.Payload)
		return nil
	}))
	_, _ = bus.Subscribe(TopicFileDeleted, event.AsHandler[FileDeleted](func(_ context.Context, e event.Event[FileDeleted]) error {
		deleted = append(deleted, e.Payload)
		return nil
	}))

	if err := ws.Rename(ctx, "notes/a.md", "notes/b.md"); !errors.Is(err, ErrFileExists) {
		t.Errorf("Rename onto open file error = %v", err)
	}
	if err := ws.Rename(ctx, "notes/a.md", "archive/a.md"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if a.Document().Path != "archive/a.md" {
		t.Errorf("leaf document = %+v", a.Document())
	}
	if len(renamed) != 1 || renamed[0].OldPath != "notes/a.md" || renamed[0].File.Path != "archive/a.md" {
		t.Errorf("renamed events = %+v", renamed)
	}

	if err := ws.Delete(ctx, "archive/a.md"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(ws.Leaves()) != 1 {
		t.Errorf("expected 1 leaf after delete, got %d", len(ws.Leaves()))
	}
	if len(deleted) != 1 || deleted[0].File.Path != "archive/a.md" {
		t.Errorf("deleted events = %+v", deleted)
	}
}

func TestWorkspace_FileMenu(t *testing.T) {
	ws, bus, _ := setupWorkspace(t)

	_, _ = bus.Subscribe(TopicFileMenu, event.AsHandler[FileMenu](func(_ context.Context, e event.Event[FileMenu]) error {
		e.Payload.Menu.AddItem(func(item *menu.Item) {
			item.SetTitle("Open " + e.Payload.File.Name)
		})
		return nil
	}))

	m, err := ws.FileMenu(context.Background(), "notes/a.md")
	if err != nil {
		t.Fatalf("FileMenu() error = %v", err)
	}
	if _, ok := m.Find("Open a.md"); !ok {
		t.Errorf("menu items = %v", m.Items())
	}
}

func TestLeaf_SetViewStateKeepsType(t *testing.T) {
	leaf := newLeaf(NewDocument("notes/a.md"))
	leaf.markReady()

	if err := leaf.SetViewState(ViewState{Type: TypeText, Mode: ModeSource, Source: true}); err != nil {
		t.Fatalf("SetViewState() error = %v", err)
	}
	state := leaf.ViewState()
	if state.Type != TypeMarkdown || !state.IsRawSource() {
		t.Errorf("state = %+v", state)
	}
	if leaf.Writes() != 1 {
		t.Errorf("Writes() = %d", leaf.Writes())
	}
}
