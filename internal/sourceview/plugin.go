package sourceview

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/keystorm-sourceview/internal/command"
	"github.com/dshills/keystorm-sourceview/internal/event"
	"github.com/dshills/keystorm-sourceview/internal/event/topic"
	"github.com/dshills/keystorm-sourceview/internal/logging"
	"github.com/dshills/keystorm-sourceview/internal/menu"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

// Plugin identity and user-facing strings.
const (
	PluginName = "sourceview"

	CommandToggle      = "sourceview.toggle"
	CommandToggleTitle = "Toggle default source view mode for current file"

	MenuEnableTitle  = "Enable default source view"
	MenuDisableTitle = "Disable default source view"
	IconEnable       = "code"
	IconDisable      = "code-off"
)

const commandSource = "plugin:" + PluginName

// ActiveDocumentSource reports the document the user is working on.
type ActiveDocumentSource interface {
	ActiveDocument() (workspace.Document, bool)
}

// Plugin connects a Tracker to the editor: workspace events, the file
// context menu and the toggle command.
type Plugin struct {
	tracker  *Tracker
	bus      *event.Bus
	commands *command.Registry
	docs     ActiveDocumentSource
	logger   *logging.Logger

	subs   []*event.Subscription
	active bool
}

// NewPlugin creates an inactive plugin.
func NewPlugin(tracker *Tracker, bus *event.Bus, commands *command.Registry, docs ActiveDocumentSource, logger *logging.Logger) *Plugin {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Plugin{
		tracker:  tracker,
		bus:      bus,
		commands: commands,
		docs:     docs,
		logger:   logger.WithComponent("sourceview.plugin"),
	}
}

// Tracker returns the plugin's tracker.
func (p *Plugin) Tracker() *Tracker {
	return p.tracker
}

// Activate loads stored preferences, subscribes to workspace events and
// registers the toggle command.
func (p *Plugin) Activate(ctx context.Context) error {
	if p.active {
		return ErrAlreadyActive
	}

	p.tracker.Initialize(ctx)

	handlers := []struct {
		topic   topic.Topic
		handler event.Handler
	}{
		{workspace.TopicFileOpen, event.AsHandler[workspace.FileOpen](p.onFileOpen)},
		{workspace.TopicFileMenu, event.AsHandler[workspace.FileMenu](p.onFileMenu)},
		{workspace.TopicFileRenamed, event.AsHandler[workspace.FileRenamed](p.onFileRenamed)},
		{workspace.TopicFileDeleted, event.AsHandler[workspace.FileDeleted](p.onFileDeleted)},
	}
	for _, h := range handlers {
		sub, err := p.bus.Subscribe(h.topic, h.handler)
		if err != nil {
			p.unsubscribeAll()
			return fmt.Errorf("subscribing to %s: %w", h.topic, err)
		}
		p.subs = append(p.subs, sub)
	}

	err := p.commands.Register(&command.Command{
		ID:       CommandToggle,
		Title:    CommandToggleTitle,
		Category: "View",
		Source:   commandSource,
		Check:    p.canToggleActive,
		Handler:  p.toggleActive,
	})
	if err != nil {
		p.unsubscribeAll()
		return fmt.Errorf("registering %s: %w", CommandToggle, err)
	}

	p.active = true
	p.logger.Info("activated")
	return nil
}

// Deactivate removes everything Activate registered.
func (p *Plugin) Deactivate() error {
	if !p.active {
		return ErrNotActive
	}
	p.commands.UnregisterBySource(commandSource)
	err := p.unsubscribeAll()
	p.active = false
	p.logger.Info("deactivated")
	return err
}

// IsActive reports whether the plugin is active.
func (p *Plugin) IsActive() bool {
	return p.active
}

func (p *Plugin) unsubscribeAll() error {
	var errs []error
	for _, sub := range p.subs {
		if err := p.bus.Unsubscribe(sub); err != nil {
			errs = append(errs, err)
		}
	}
	p.subs = nil
	return errors.Join(errs...)
}

func (p *Plugin) onFileOpen(_ context.Context, e event.Event[workspace.FileOpen]) error {
	p.tracker.OnDocumentActivated(e.Payload.File)
	return nil
}

func (p *Plugin) onFileMenu(_ context.Context, e event.Event[workspace.FileMenu]) error {
	doc := e.Payload.File
	if !p.tracker.IsManaged(doc) || e.Payload.Menu == nil {
		return nil
	}

	enabled := p.tracker.IsSourcePreferred(doc.Path)
	e.Payload.Menu.AddItem(func(item *menu.Item) {
		title, icon := MenuEnableTitle, IconEnable
		if enabled {
			title, icon = MenuDisableTitle, IconDisable
		}
		item.SetTitle(title).
			SetIcon(icon).
			SetSection("view").
			OnClick(func() error {
				_, err := p.tracker.Toggle(context.Background(), doc)
				return err
			})
	})
	return nil
}

func (p *Plugin) onFileRenamed(ctx context.Context, e event.Event[workspace.FileRenamed]) error {
	return p.tracker.Rename(ctx, e.Payload.OldPath, e.Payload.File.Path)
}

func (p *Plugin) onFileDeleted(ctx context.Context, e event.Event[workspace.FileDeleted]) error {
	return p.tracker.Forget(ctx, e.Payload.File.Path)
}

func (p *Plugin) canToggleActive() bool {
	doc, ok := p.docs.ActiveDocument()
	return ok && p.tracker.IsManaged(doc)
}

func (p *Plugin) toggleActive(ctx context.Context) error {
	doc, ok := p.docs.ActiveDocument()
	if !ok {
		return ErrNoActiveDocument
	}
	_, err := p.tracker.Toggle(ctx, doc)
	return err
}
