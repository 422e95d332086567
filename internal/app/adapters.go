package app

import (
	"context"
	"fmt"

	"github.com/dshills/keystorm-sourceview/internal/command"
	"github.com/dshills/keystorm-sourceview/internal/plugin/api"
	"github.com/dshills/keystorm-sourceview/internal/sourceview"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

// Compile-time interface checks.
var (
	_ api.SourceViewProvider = (*SourceViewAdapter)(nil)
	_ api.CommandProvider    = (*command.Registry)(nil)
)

// SourceViewAdapter adapts the tracker and workspace to
// api.SourceViewProvider.
type SourceViewAdapter struct {
	tracker *sourceview.Tracker
	ws      *workspace.Workspace
}

// NewSourceViewAdapter creates a new source view adapter.
func NewSourceViewAdapter(tracker *sourceview.Tracker, ws *workspace.Workspace) *SourceViewAdapter {
	return &SourceViewAdapter{tracker: tracker, ws: ws}
}

// Toggle flips the preference of path, or of the active document when path
// is empty.
func (a *SourceViewAdapter) Toggle(path string) (bool, error) {
	doc, err := a.document(path)
	if err != nil {
		return false, err
	}
	return a.tracker.Toggle(context.Background(), doc)
}

// IsSourcePreferred reports whether path opens in source view.
func (a *SourceViewAdapter) IsSourcePreferred(path string) bool {
	return a.tracker.IsSourcePreferred(path)
}

// Paths returns the tracked paths.
func (a *SourceViewAdapter) Paths() []string {
	return a.tracker.Paths()
}

// Apply re-applies the stored preference of path to its open views.
func (a *SourceViewAdapter) Apply(path string) (int, error) {
	doc, err := a.document(path)
	if err != nil {
		return 0, err
	}
	if !a.tracker.IsManaged(doc) {
		return 0, fmt.Errorf("%w: %s", sourceview.ErrNotManaged, doc.Path)
	}
	return a.tracker.Apply(doc.Path), nil
}

func (a *SourceViewAdapter) document(path string) (workspace.Document, error) {
	if path != "" {
		return workspace.NewDocument(path), nil
	}
	doc, ok := a.ws.ActiveDocument()
	if !ok {
		return workspace.Document{}, sourceview.ErrNoActiveDocument
	}
	return doc, nil
}
