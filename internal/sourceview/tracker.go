package sourceview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/keystorm-sourceview/internal/logging"
	"github.com/dshills/keystorm-sourceview/internal/notice"
	"github.com/dshills/keystorm-sourceview/internal/store"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

// DefaultExtension is the managed document extension.
const DefaultExtension = "md"

// Host is the part of the workspace the tracker reads views from.
type Host interface {
	// ActiveView returns the focused view, if any.
	ActiveView() (workspace.View, bool)

	// ViewsOfType returns every open view of a view type.
	ViewsOfType(viewType string) []workspace.View
}

// Scheduler runs a task once the current event has settled.
type Scheduler interface {
	Defer(task func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(task func())

// Defer implements Scheduler.
func (f SchedulerFunc) Defer(task func()) {
	f(task)
}

// Immediate runs deferred tasks inline. Useful for hosts whose views are
// ready as soon as the activation event fires.
var Immediate Scheduler = SchedulerFunc(func(task func()) { task() })

// Tracker remembers which documents open in source view and applies that
// preference to their views.
type Tracker struct {
	prefs     *PreferenceSet
	store     store.Store
	host      Host
	notifier  notice.Notifier
	scheduler Scheduler
	logger    *logging.Logger
	extension string
	viewType  string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore sets the durable store. Defaults to an empty in-memory store.
func WithStore(s store.Store) Option {
	return func(t *Tracker) {
		t.store = s
	}
}

// WithHost sets the workspace the tracker applies modes to.
func WithHost(h Host) Option {
	return func(t *Tracker) {
		t.host = h
	}
}

// WithNotifier sets where toggle confirmations are shown.
func WithNotifier(n notice.Notifier) Option {
	return func(t *Tracker) {
		t.notifier = n
	}
}

// WithScheduler sets how activation work is deferred. Defaults to Immediate.
func WithScheduler(s Scheduler) Option {
	return func(t *Tracker) {
		t.scheduler = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithExtension sets the managed document extension (without the dot).
func WithExtension(ext string) Option {
	return func(t *Tracker) {
		t.extension = strings.TrimPrefix(ext, ".")
	}
}

// WithViewType sets the view type whose views are updated on toggle.
func WithViewType(viewType string) Option {
	return func(t *Tracker) {
		t.viewType = viewType
	}
}

// New creates a tracker with an empty preference set. Call Initialize to
// load stored preferences.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		prefs:     NewPreferenceSet(),
		store:     store.NewMemoryStore(store.Data{}),
		notifier:  notice.Discard,
		scheduler: Immediate,
		logger:    logging.Nop(),
		extension: DefaultExtension,
		viewType:  workspace.TypeMarkdown,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithComponent("sourceview")
	return t
}

// Initialize loads the preference set from the store. Missing data yields
// an empty set; unreadable or malformed data is logged and also yields an
// empty set.
func (t *Tracker) Initialize(ctx context.Context) {
	t.prefs = t.load(ctx)
	t.logger.Debug("loaded %d source view paths", t.prefs.Len())
}

// Reload replaces the preference set with the stored one and re-applies the
// preference to open views of every document whose membership changed.
func (t *Tracker) Reload(ctx context.Context) {
	next := t.load(ctx)
	changed := t.prefs.diff(next)
	t.prefs = next

	for _, p := range changed {
		t.applyToOpenViews(p, next.Has(p))
	}
	if len(changed) == 0 {
		t.logger.Debug("reloaded source view paths, nothing changed")
		return
	}
	t.logger.Info("reloaded source view paths, %d changed", len(changed))
}

func (t *Tracker) load(ctx context.Context) *PreferenceSet {
	data, err := t.store.Load(ctx)
	if err != nil {
		t.logger.Warn("loading source view paths: %v", err)
		return NewPreferenceSet()
	}
	return NewPreferenceSet(data.SourceViewPaths...)
}

// IsManaged reports whether doc is of the tracked type.
func (t *Tracker) IsManaged(doc workspace.Document) bool {
	return doc.Path != "" && strings.EqualFold(doc.Extension, t.extension)
}

// IsSourcePreferred reports whether path is set to open in source view.
func (t *Tracker) IsSourcePreferred(path string) bool {
	return t.prefs.Has(path)
}

// Paths returns the tracked paths in sorted order.
func (t *Tracker) Paths() []string {
	return t.prefs.Paths()
}

// Toggle flips the source view preference of doc, persists the whole set,
// shows a confirmation, and applies the new mode to every open view of doc.
// It returns the new preference. A persistence failure is reported to the
// user and returned, but the in-memory change and view updates still apply.
func (t *Tracker) Toggle(ctx context.Context, doc workspace.Document) (bool, error) {
	if !t.IsManaged(doc) {
		return false, fmt.Errorf("%w: %s", ErrNotManaged, doc.Path)
	}

	enabled := t.prefs.Toggle(doc.Path)
	saveErr := t.save(ctx)

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	t.notifier.Notify(fmt.Sprintf("Default source view %s for %s", state, doc.Name), notice.LevelInfo)
	if saveErr != nil {
		t.notifier.Notify(fmt.Sprintf("Could not save source view preferences: %v", saveErr), notice.LevelError)
	}

	n := t.applyToOpenViews(doc.Path, enabled)
	t.logger.WithField("path", doc.Path).Info("source view %s, %d views updated", state, n)
	return enabled, saveErr
}

// Rename carries the preference of a renamed file over to its new path. A
// file renamed to a non-managed type loses its preference.
func (t *Tracker) Rename(ctx context.Context, oldPath, newPath string) error {
	if !t.IsManaged(workspace.NewDocument(newPath)) {
		return t.Forget(ctx, oldPath)
	}
	if !t.prefs.Rename(oldPath, newPath) {
		return nil
	}
	t.logger.Debug("preference moved from %s to %s", oldPath, newPath)
	return t.save(ctx)
}

// Forget drops the preference of a deleted file.
func (t *Tracker) Forget(ctx context.Context, path string) error {
	if !t.prefs.Remove(path) {
		return nil
	}
	t.logger.Debug("preference dropped for %s", path)
	return t.save(ctx)
}

func (t *Tracker) save(ctx context.Context) error {
	if err := t.store.Save(ctx, store.Data{SourceViewPaths: t.prefs.Paths()}); err != nil {
		t.logger.Error("saving source view paths: %v", err)
		return err
	}
	return nil
}

// OnDocumentActivated applies the stored preference of doc to the active
// view. The work is deferred until the host has finished constructing the
// view. If another document is active by the time it runs, nothing is
// applied.
func (t *Tracker) OnDocumentActivated(doc *workspace.Document) {
	if doc == nil || !t.IsManaged(*doc) {
		return
	}

	key := NormalizePath(doc.Path)
	t.scheduler.Defer(func() {
		if t.host == nil {
			return
		}
		view, ok := t.host.ActiveView()
		if !ok {
			return
		}
		if NormalizePath(view.Document().Path) != key {
			t.logger.Debug("skipping stale activation of %s", key)
			return
		}
		if err := ApplyModeToView(view, t.prefs.Has(key)); err != nil {
			t.logger.Warn("applying source view to %s: %v", key, err)
		}
	})
}

// Apply re-applies the stored preference of path to its open views and
// returns how many were updated.
func (t *Tracker) Apply(path string) int {
	return t.applyToOpenViews(path, t.prefs.Has(path))
}

// applyToOpenViews applies sourcePreferred to every open view of path and
// returns how many views were updated.
func (t *Tracker) applyToOpenViews(path string, sourcePreferred bool) int {
	if t.host == nil {
		return 0
	}

	key := NormalizePath(path)
	n := 0
	for _, view := range t.host.ViewsOfType(t.viewType) {
		if NormalizePath(view.Document().Path) != key {
			continue
		}
		err := ApplyModeToView(view, sourcePreferred)
		switch {
		case err == nil:
			n++
		case errors.Is(err, workspace.ErrViewNotReady):
			// The pending activation applies the preference once the view is built.
			t.logger.Debug("view %s not ready", view.ID())
		default:
			t.logger.Warn("applying source view to view %s: %v", view.ID(), err)
		}
	}
	return n
}

// ApplyModeToView puts view into editing mode and sets whether it shows raw
// source. Applying the same value twice leaves the view unchanged.
func ApplyModeToView(view workspace.View, sourcePreferred bool) error {
	state := view.ViewState()
	state.Mode = workspace.ModeSource
	state.Source = sourcePreferred
	return view.SetViewState(state)
}
