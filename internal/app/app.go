// Package app wires the source view plugin into a running host: it loads
// configuration, builds the workspace, event bus and task loop, activates the
// plugin against a file-backed store and exposes the Lua scripting surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

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

// Application is the central coordinator for all components.
type Application struct {
	cfg    config.Config
	opts   Options
	logger *logging.Logger

	bus       *event.Bus
	loop      *loop.Loop
	workspace *workspace.Workspace
	commands  *command.Registry
	notices   *notice.Center

	store   *store.FileStore
	watcher *store.Watcher
	tracker *sourceview.Tracker
	plugin  *sourceview.Plugin
	scripts *api.Registry

	running  atomic.Bool
	shutdown atomic.Bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses built-in defaults and
	// the environment only.
	ConfigPath string

	// Config, when set, is used as is instead of loading ConfigPath.
	Config *config.Config

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// NoticeOutput, when set, receives every notice as it is shown.
	NoticeOutput io.Writer

	// Debug forces debug logging.
	Debug bool
}

// New creates an application with every component initialized and the
// plugin active.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the effective configuration.
func (app *Application) Config() config.Config { return app.cfg }

// Logger returns the root logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// Bus returns the event bus.
func (app *Application) Bus() *event.Bus { return app.bus }

// Workspace returns the host workspace.
func (app *Application) Workspace() *workspace.Workspace { return app.workspace }

// Commands returns the command registry.
func (app *Application) Commands() *command.Registry { return app.commands }

// Notices returns the notice center.
func (app *Application) Notices() *notice.Center { return app.notices }

// Store returns the preference file store.
func (app *Application) Store() *store.FileStore { return app.store }

// Tracker returns the source view tracker.
func (app *Application) Tracker() *sourceview.Tracker { return app.tracker }

// Plugin returns the source view plugin.
func (app *Application) Plugin() *sourceview.Plugin { return app.plugin }

// Scripts returns the Lua module registry.
func (app *Application) Scripts() *api.Registry { return app.scripts }

// Start runs the task loop on its own goroutine until ctx is cancelled or
// Shutdown is called. Without Start, Do runs queued tasks on the caller.
func (app *Application) Start(ctx context.Context) error {
	if app.shutdown.Load() {
		return ErrShutDown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, app.cancel = context.WithCancel(ctx)
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer app.running.Store(false)
		if err := app.loop.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error("loop stopped: %v", err)
		}
	}()
	return nil
}

// Do runs fn on the task loop and waits for it. Tasks fn defers, such as the
// plugin's view updates after a file opens, run before any later Do.
func (app *Application) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if app.shutdown.Load() {
		return ErrShutDown
	}

	done := make(chan error, 1)
	if err := app.loop.Post(func() { done <- fn(ctx) }); err != nil {
		return err
	}
	if !app.running.Load() {
		app.loop.Drain()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunScript runs Lua source with every API module available.
func (app *Application) RunScript(ctx context.Context, name, src string) error {
	return app.Do(ctx, func(ctx context.Context) error {
		L, err := app.scripts.NewState(api.CapabilityEditor, api.CapabilityUI, api.CapabilityCommand)
		if err != nil {
			return err
		}
		defer L.Close()
		L.SetContext(ctx)

		if err := L.DoString(src); err != nil {
			return fmt.Errorf("script %s: %w", name, err)
		}
		return nil
	})
}

// Shutdown deactivates the plugin, stops the watcher and the loop, and waits
// for the loop goroutine. It is safe to call more than once.
func (app *Application) Shutdown() error {
	if !app.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	// A closed loop finishes its queue before Run returns.
	app.loop.Close()
	app.wg.Wait()
	if app.cancel != nil {
		app.cancel()
	}
	app.loop.Drain()

	if app.plugin != nil && app.plugin.IsActive() {
		if err := app.plugin.Deactivate(); err != nil {
			errs = append(errs, err)
		}
	}

	app.logger.Info("shut down")
	return errors.Join(errs...)
}
