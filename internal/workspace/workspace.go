// Package workspace is the editor host the source view plugin runs against:
// it tracks open documents and the leaves (panes or tabs) showing them,
// which leaf is active, and announces changes on the event bus.
//
// Opening a leaf completes asynchronously: the leaf only accepts view state
// once the loop has run the construction task queued by Open. Plugins that
// react to TopicFileOpen must therefore defer their work onto the loop.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/keystorm-sourceview/internal/event"
	"github.com/dshills/keystorm-sourceview/internal/logging"
	"github.com/dshills/keystorm-sourceview/internal/loop"
	"github.com/dshills/keystorm-sourceview/internal/menu"
)

const eventSource = "workspace"

var (
	// ErrEmptyPath is returned when opening a document without a path.
	ErrEmptyPath = errors.New("empty path")

	// ErrNoActiveLeaf is returned when an operation needs an active leaf.
	ErrNoActiveLeaf = errors.New("no active leaf")

	// ErrLeafNotFound is returned for unknown leaf IDs.
	ErrLeafNotFound = errors.New("leaf not found")

	// ErrFileExists is returned when renaming onto an open file.
	ErrFileExists = errors.New("file already open")
)

// Workspace manages leaves and the active leaf.
type Workspace struct {
	mu     sync.RWMutex
	leaves []*Leaf
	active *Leaf

	bus    *event.Bus
	loop   *loop.Loop
	logger *logging.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// New creates an empty workspace publishing on bus and scheduling view
// construction on lp.
func New(bus *event.Bus, lp *loop.Loop, opts ...Option) *Workspace {
	w := &Workspace{
		bus:    bus,
		loop:   lp,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("workspace")
	return w
}

// Bus returns the event bus the workspace publishes on.
func (w *Workspace) Bus() *event.Bus {
	return w.bus
}

// Open shows path in a new leaf and makes it active.
func (w *Workspace) Open(ctx context.Context, p string) (*Leaf, error) {
	doc := NewDocument(p)
	if doc.IsZero() {
		return nil, ErrEmptyPath
	}

	leaf := newLeaf(doc)
	w.mu.Lock()
	w.leaves = append(w.leaves, leaf)
	w.active = leaf
	w.mu.Unlock()

	w.logger.Debug("opened %s in leaf %s", doc.Path, leaf.ID())
	w.construct(leaf)
	return leaf, w.publishOpen(ctx, leaf)
}

// Split opens the active document in an additional leaf and focuses it.
func (w *Workspace) Split(ctx context.Context) (*Leaf, error) {
	w.mu.RLock()
	active := w.active
	w.mu.RUnlock()
	if active == nil {
		return nil, ErrNoActiveLeaf
	}

	leaf := newLeaf(active.Document())
	// A split copies the presentation of the leaf it was split from.
	leaf.state = active.ViewState()

	w.mu.Lock()
	w.leaves = append(w.leaves, leaf)
	w.active = leaf
	w.mu.Unlock()

	w.construct(leaf)
	return leaf, w.publishOpen(ctx, leaf)
}

// Activate focuses an existing leaf.
func (w *Workspace) Activate(ctx context.Context, leafID string) error {
	w.mu.Lock()
	leaf := w.find(leafID)
	if leaf == nil {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLeafNotFound, leafID)
	}
	w.active = leaf
	w.mu.Unlock()

	return w.publishOpen(ctx, leaf)
}

// Close closes a leaf. When the active leaf closes, the most recently opened
// remaining leaf becomes active.
func (w *Workspace) Close(ctx context.Context, leafID string) error {
	w.mu.Lock()
	idx := w.index(leafID)
	if idx < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLeafNotFound, leafID)
	}
	leaf := w.leaves[idx]
	w.leaves = append(w.leaves[:idx], w.leaves[idx+1:]...)
	leaf.markClosed()

	wasActive := w.active == leaf
	if wasActive {
		w.active = nil
		if n := len(w.leaves); n > 0 {
			w.active = w.leaves[n-1]
		}
	}
	next := w.active
	w.mu.Unlock()

	if !wasActive {
		return nil
	}
	return w.publishOpen(ctx, next)
}

// Rename moves a file. Leaves showing it follow the new path.
func (w *Workspace) Rename(ctx context.Context, oldPath, newPath string) error {
	from, to := NewDocument(oldPath), NewDocument(newPath)
	if from.IsZero() || to.IsZero() {
		return ErrEmptyPath
	}

	w.mu.Lock()
	for _, leaf := range w.leaves {
		if leaf.Document().Path == to.Path {
			w.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrFileExists, to.Path)
		}
	}
	for _, leaf := range w.leaves {
		if leaf.Document().Path == from.Path {
			leaf.setDocument(to)
		}
	}
	w.mu.Unlock()

	ev := event.NewEvent(TopicFileRenamed, FileRenamed{File: to, OldPath: from.Path}, eventSource)
	return w.bus.Publish(ctx, ev)
}

// Delete removes a file, closing every leaf that shows it.
func (w *Workspace) Delete(ctx context.Context, p string) error {
	doc := NewDocument(p)
	if doc.IsZero() {
		return ErrEmptyPath
	}

	var ids []string
	w.mu.RLock()
	for _, leaf := range w.leaves {
		if leaf.Document().Path == doc.Path {
			ids = append(ids, leaf.ID())
		}
	}
	w.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := w.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	ev := event.NewEvent(TopicFileDeleted, FileDeleted{File: doc}, eventSource)
	errs = append(errs, w.bus.Publish(ctx, ev))
	return errors.Join(errs...)
}

// FileMenu builds the context menu for a file by letting subscribers add items.
func (w *Workspace) FileMenu(ctx context.Context, p string) (*menu.Menu, error) {
	doc := NewDocument(p)
	if doc.IsZero() {
		return nil, ErrEmptyPath
	}

	m := menu.New()
	ev := event.NewEvent(TopicFileMenu, FileMenu{Menu: m, File: doc}, eventSource)
	return m, w.bus.Publish(ctx, ev)
}

// ActiveDocument returns the document of the active leaf.
func (w *Workspace) ActiveDocument() (Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return Document{}, false
	}
	return w.active.Document(), true
}

// ActiveView returns the active leaf.
func (w *Workspace) ActiveView() (View, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return nil, false
	}
	return w.active, true
}

// ActiveLeaf returns the active leaf as its concrete type.
func (w *Workspace) ActiveLeaf() (*Leaf, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active, w.active != nil
}

// ViewsOfType returns every open view of the given type in open order.
func (w *Workspace) ViewsOfType(viewType string) []View {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var views []View
	for _, leaf := range w.leaves {
		if leaf.ViewState().Type == viewType {
			views = append(views, leaf)
		}
	}
	return views
}

// Leaves returns all open leaves in open order.
func (w *Workspace) Leaves() []*Leaf {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*Leaf, len(w.leaves))
	copy(out, w.leaves)
	return out
}

// Leaf returns the leaf with the given ID.
func (w *Workspace) Leaf(id string) (*Leaf, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	leaf := w.find(id)
	return leaf, leaf != nil
}

func (w *Workspace) construct(leaf *Leaf) {
	if w.loop == nil {
		leaf.markReady()
		return
	}
	if err := w.loop.Post(leaf.markReady); err != nil {
		w.logger.Warn("loop closed, constructing leaf %s inline", leaf.ID())
		leaf.markReady()
	}
}

func (w *Workspace) publishOpen(ctx context.Context, leaf *Leaf) error {
	payload := FileOpen{}
	if leaf != nil {
		doc := leaf.Document()
		payload.File = &doc
		payload.LeafID = leaf.ID()
	}
	return w.bus.Publish(ctx, event.NewEvent(TopicFileOpen, payload, eventSource))
}

func (w *Workspace) find(id string) *Leaf {
	if i := w.index(id); i >= 0 {
		return w.leaves[i]
	}
	return nil
}

func (w *Workspace) index(id string) int {
	for i, leaf := range w.leaves {
		if leaf.ID() == id {
			return i
		}
	}
	return -1
}
