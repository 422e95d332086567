package workspace

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// View types.
const (
	// TypeMarkdown is the view type used for markdown documents.
	TypeMarkdown = "markdown"

	// TypeText is the view type used for every other document.
	TypeText = "text"
)

// Mode is the presentation mode of a view.
type Mode string

const (
	// ModeSource is the editable mode. Whether formatting is rendered inline
	// or shown raw is selected by ViewState.Source.
	ModeSource Mode = "source"

	// ModePreview is the read-only rendered mode.
	ModePreview Mode = "preview"
)

// ViewState is the persisted presentation state of a view.
type ViewState struct {
	// Type is the view type (TypeMarkdown, TypeText).
	Type string

	// Mode is the presentation mode.
	Mode Mode

	// Source selects raw source editing when Mode is ModeSource; false means
	// formatting is rendered while editing.
	Source bool
}

// IsRawSource reports whether the view shows raw, unformatted source.
func (s ViewState) IsRawSource() bool {
	return s.Mode == ModeSource && s.Source
}

var (
	// ErrViewNotReady is returned when a view's state is written before the
	// host has finished constructing it.
	ErrViewNotReady = errors.New("view is not ready")

	// ErrViewClosed is returned when writing to a closed view.
	ErrViewClosed = errors.New("view is closed")
)

// View is an open presentation of a document.
type View interface {
	// ID uniquely identifies the view.
	ID() string

	// Document returns the document shown by the view.
	Document() Document

	// ViewState returns a copy of the current state.
	ViewState() ViewState

	// SetViewState replaces the state.
	SetViewState(state ViewState) error
}

// Leaf is the workspace's View implementation: one pane or tab.
type Leaf struct {
	mu     sync.RWMutex
	id     string
	doc    Document
	state  ViewState
	ready  bool
	closed bool
	writes int
}

func newLeaf(doc Document) *Leaf {
	return &Leaf{
		id:  uuid.NewString(),
		doc: doc,
		state: ViewState{
			Type: viewTypeFor(doc),
			Mode: ModePreview,
		},
	}
}

func viewTypeFor(doc Document) string {
	if strings.EqualFold(doc.Extension, "md") {
		return TypeMarkdown
	}
	return TypeText
}

// ID returns the leaf identifier.
func (l *Leaf) ID() string {
	return l.id
}

// Document returns the document shown in the leaf.
func (l *Leaf) Document() Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc
}

// ViewState returns a copy of the leaf state.
func (l *Leaf) ViewState() ViewState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// SetViewState replaces the leaf state. The view type cannot be changed.
func (l *Leaf) SetViewState(state ViewState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrViewClosed
	}
	if !l.ready {
		return ErrViewNotReady
	}
	state.Type = l.state.Type
	l.state = state
	l.writes++
	return nil
}

// Ready reports whether the host has finished constructing the leaf.
func (l *Leaf) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Writes returns how many times SetViewState succeeded.
func (l *Leaf) Writes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writes
}

func (l *Leaf) markReady() {
	l.mu.Lock()
	l.ready = true
	l.mu.Unlock()
}

func (l *Leaf) markClosed() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *Leaf) setDocument(doc Document) {
	l.mu.Lock()
	l.doc = doc
	l.mu.Unlock()
}
