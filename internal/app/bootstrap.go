package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/keystorm-sourceview/internal/command"
	"github.com/dshills/keystorm-sourceview/internal/config"
	"github.com/dshills/keystorm-sourceview/internal/event"
	"github.com/dshills/keystorm-sourceview/internal/logging"
	"github.com/dshills/keystorm-sourceview/internal/loop"
	"github.com/dshills/keystorm-sourceview/internal/notice"
	"github.com/dshills/keystorm-sourceview/internal/plugin/api"
	"github.com/dshills/keystorm-sourceview/internal/sourceview"
	"github.com/dshills/keystorm-sourceview/internal/store"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

// bootstrapper handles component initialization with cleanup on failure.
type bootstrapper struct {
	app       *Application
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initHost,
		b.initStore,
		b.initPlugin,
		b.initWatcher,
		b.initScripts,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initConfig loads and validates the configuration.
func (b *bootstrapper) initConfig() error {
	if b.app.opts.Config != nil {
		cfg := *b.app.opts.Config
		if err := cfg.Validate(); err != nil {
			return &InitError{Component: "config", Err: err}
		}
		b.app.cfg = cfg
	} else {
		cfg, err := config.Load(b.app.opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		b.app.cfg = cfg
	}
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogger creates the root logger.
func (b *bootstrapper) initLogger() error {
	level := b.app.cfg.Level()
	if b.app.opts.Debug {
		level = logging.LevelDebug
	}
	b.app.logger = logging.New(logging.Config{
		Level:  level,
		Output: b.app.opts.LogOutput,
		Prefix: "sourceview",
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

// initHost creates the bus, loop, workspace, command registry and notices.
func (b *bootstrapper) initHost() error {
	app := b.app
	app.bus = event.NewBus()
	app.loop = loop.New(loop.WithLogger(app.logger))
	app.workspace = workspace.New(app.bus, app.loop, workspace.WithLogger(app.logger))
	app.commands = command.NewRegistry()

	noticeOpts := []notice.Option{
		notice.WithTimeout(app.cfg.Notice.TimeoutDuration()),
		notice.WithHistoryLimit(app.cfg.Notice.History),
	}
	if app.opts.NoticeOutput != nil {
		noticeOpts = append(noticeOpts, notice.WithOutput(app.opts.NoticeOutput))
	}
	app.notices = notice.NewCenter(noticeOpts...)

	b.initOrder = append(b.initOrder, "host")
	return nil
}

// initStore prepares the preference data file.
func (b *bootstrapper) initStore() error {
	path := b.app.cfg.DataPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &InitError{Component: "store", Err: err}
	}
	b.app.store = store.NewFileStore(path)
	b.initOrder = append(b.initOrder, "store")
	return nil
}

// initPlugin creates the tracker and activates the plugin.
func (b *bootstrapper) initPlugin() error {
	app := b.app
	viewType := workspace.TypeMarkdown
	if !strings.EqualFold(app.cfg.Extension, sourceview.DefaultExtension) {
		viewType = workspace.TypeText
	}
	app.tracker = sourceview.New(
		sourceview.WithStore(app.store),
		sourceview.WithHost(app.workspace),
		sourceview.WithNotifier(app.notices),
		sourceview.WithScheduler(app.loop),
		sourceview.WithLogger(app.logger),
		sourceview.WithExtension(app.cfg.Extension),
		sourceview.WithViewType(viewType),
	)
	app.plugin = sourceview.NewPlugin(app.tracker, app.bus, app.commands, app.workspace, app.logger)
	if err := app.plugin.Activate(context.Background()); err != nil {
		return &InitError{Component: "plugin", Err: err}
	}
	b.initOrder = append(b.initOrder, "plugin")
	return nil
}

// initWatcher reloads preferences when the data file changes on disk.
func (b *bootstrapper) initWatcher() error {
	app := b.app
	if !app.cfg.WatchData {
		return nil
	}

	w, err := store.Watch(app.store, app.reloadPreferences, store.WithWatchLogger(app.logger))
	if err != nil {
		// Preferences still work without live reload.
		app.logger.Warn("watching %s: %v", app.store.Path(), err)
		return nil
	}
	app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// initScripts builds the Lua module registry.
func (b *bootstrapper) initScripts() error {
	app := b.app
	reg, err := api.DefaultRegistry(&api.Context{
		SourceView: NewSourceViewAdapter(app.tracker, app.workspace),
		Notifier:   app.notices,
		Commands:   app.commands,
	})
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	app.scripts = reg
	b.initOrder = append(b.initOrder, "scripts")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "watcher":
			_ = b.app.watcher.Close()
		case "plugin":
			_ = b.app.plugin.Deactivate()
		case "host":
			b.app.loop.Close()
		}
	}
	b.initOrder = b.initOrder[:0]
}

// reloadPreferences runs on the watcher goroutine and hands the reload to
// the task loop.
func (app *Application) reloadPreferences() {
	err := app.loop.Post(func() {
		app.tracker.Reload(context.Background())
	})
	if err != nil {
		app.logger.Debug("dropping preference reload: %v", err)
	}
}
