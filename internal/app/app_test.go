package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keystorm-sourceview/internal/config"
	"github.com/dshills/keystorm-sourceview/internal/sourceview"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataPath = filepath.Join(t.TempDir(), "plugin", "data.json")
	cfg.WatchData = false
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) (*Application, *bytes.Buffer) {
	t.Helper()
	var notices bytes.Buffer
	app, err := New(Options{Config: &cfg, LogOutput: io.Discard, NoticeOutput: &notices})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown() })
	return app, &notices
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "loud"

	_, err := New(Options{Config: &cfg, LogOutput: io.Discard})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Component != "config" {
		t.Errorf("New() error = %v, want config InitError", err)
	}
}

func TestApplication_ToggleRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	app, notices := newTestApp(t, cfg)
	ctx := context.Background()

	var leaf *workspace.Leaf
	err := app.Do(ctx, func(ctx context.Context) error {
		var err error
		leaf, err = app.Workspace().Open(ctx, "notes/a.md")
		return err
	})
	if err != nil {
		t.Fatalf("open error = %v", err)
	}

	err = app.Do(ctx, func(ctx context.Context) error {
		return app.Commands().Execute(ctx, sourceview.CommandToggle)
	})
	if err != nil {
		t.Fatalf("toggle error = %v", err)
	}
	if !leaf.ViewState().IsRawSource() {
		t.Errorf("state = %+v, want raw source", leaf.ViewState())
	}
	if !strings.Contains(notices.String(), "Default source view enabled for a.md") {
		t.Errorf("notices = %q", notices.String())
	}

	raw, err := os.ReadFile(cfg.DataPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(raw), `"notes/a.md"`) {
		t.Errorf("data file = %s", raw)
	}

	// A fresh application reads the same preferences back.
	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	next, _ := newTestApp(t, cfg)
	if diff := cmp.Diff([]string{"notes/a.md"}, next.Tracker().Paths()); diff != "" {
		t.Errorf("reloaded paths mismatch (-want +got):\n%s", diff)
	}
}

func TestApplication_OpenAppliesPreferenceAfterConstruction(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(filepath.Dir(cfg.DataPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.DataPath, []byte(`{"sourceViewPaths":["notes/a.md"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	app, _ := newTestApp(t, cfg)
	ctx := context.Background()

	var leaf *workspace.Leaf
	_ = app.Do(ctx, func(ctx context.Context) error {
		var err error
		leaf, err = app.Workspace().Open(ctx, "notes/a.md")
		return err
	})

	if !leaf.ViewState().IsRawSource() {
		t.Errorf("state = %+v, want raw source", leaf.ViewState())
	}
}

func TestApplication_RunScript(t *testing.T) {
	app, notices := newTestApp(t, testConfig(t))
	ctx := context.Background()

	err := app.RunScript(ctx, "test", `
		local ks = require("ks")
		assert(ks.sourceview.toggle("notes/b.md") == true)
		ks.ui.notify("from lua")
	`)
	if err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	if !app.Tracker().IsSourcePreferred("notes/b.md") {
		t.Error("script toggle not applied")
	}
	if !strings.Contains(notices.String(), "from lua") {
		t.Errorf("notices = %q", notices.String())
	}

	err = app.RunScript(ctx, "bad", `ks.sourceview.toggle("main.go")`)
	if err == nil || !strings.Contains(err.Error(), sourceview.ErrNotManaged.Error()) {
		t.Errorf("RunScript() error = %v", err)
	}

	err = app.RunScript(ctx, "noactive", `ks.sourceview.toggle()`)
	if err == nil || !strings.Contains(err.Error(), sourceview.ErrNoActiveDocument.Error()) {
		t.Errorf("RunScript() error = %v", err)
	}
}

func TestApplication_StartAndShutdown(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	ctx := context.Background()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := app.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	var leaf *workspace.Leaf
	err := app.Do(ctx, func(ctx context.Context) error {
		var err error
		leaf, err = app.Workspace().Open(ctx, "notes/a.md")
		return err
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	// A second Do queues behind the deferred view update.
	_ = app.Do(ctx, func(context.Context) error { return nil })
	if leaf.ViewState().Mode != workspace.ModeSource {
		t.Errorf("state = %+v, want source mode", leaf.ViewState())
	}

	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if app.Plugin().IsActive() {
		t.Error("plugin still active after Shutdown")
	}
	if err := app.Do(ctx, func(context.Context) error { return nil }); !errors.Is(err, ErrShutDown) {
		t.Errorf("Do() after Shutdown error = %v, want ErrShutDown", err)
	}
}

func TestApplication_ReloadsOnExternalChange(t *testing.T) {
	cfg := testConfig(t)
	cfg.WatchData = true
	app, _ := newTestApp(t, cfg)
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(cfg.DataPath, []byte(`{"sourceViewPaths":["synced.md"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var got bool
		_ = app.Do(ctx, func(context.Context) error {
			got = app.Tracker().IsSourcePreferred("synced.md")
			return nil
		})
		if got {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("external change to the data file was not picked up")
}

func TestSourceViewAdapter(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	ctx := context.Background()
	adapter := NewSourceViewAdapter(app.Tracker(), app.Workspace())

	if _, err := adapter.Toggle(""); !errors.Is(err, sourceview.ErrNoActiveDocument) {
		t.Errorf("Toggle(\"\") error = %v", err)
	}
	if _, err := adapter.Apply("main.go"); !errors.Is(err, sourceview.ErrNotManaged) {
		t.Errorf("Apply(main.go) error = %v", err)
	}

	_ = app.Do(ctx, func(ctx context.Context) error {
		_, err := app.Workspace().Open(ctx, "notes/a.md")
		return err
	})
	enabled, err := adapter.Toggle("")
	if err != nil || !enabled {
		t.Fatalf("Toggle(\"\") = %v, %v", enabled, err)
	}
	if n, err := adapter.Apply("notes/a.md"); err != nil || n != 1 {
		t.Errorf("Apply() = %d, %v", n, err)
	}
	if diff := cmp.Diff([]string{"notes/a.md"}, adapter.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}
