package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFileStore(path)
	if err := s.Save(context.Background(), Data{SourceViewPaths: []string{"a.md"}}); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 4)
	w, err := Watch(s, func() { changed <- struct{}{} }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	// Own saves are not reported.
	if err := s.Save(context.Background(), Data{SourceViewPaths: []string{"b.md"}}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("own save reported as change")
	case <-time.After(200 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte(`{"sourceViewPaths":["c.md"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("external change not reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "data.json"))

	changed := make(chan struct{}, 1)
	w, err := Watch(s, func() { changed <- struct{}{} }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("unrelated file reported")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	w, err := Watch(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
