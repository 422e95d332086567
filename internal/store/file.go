package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// FileStore keeps Data in a JSON file. Fields other than sourceViewPaths are
// preserved across saves so the file can be shared with other settings.
type FileStore struct {
	mu        sync.Mutex
	path      string
	perm      os.FileMode
	lastSaved []byte
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileMode sets the permissions used when creating the data file.
func WithFileMode(perm os.FileMode) FileOption {
	return func(s *FileStore) {
		s.perm = perm
	}
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path: filepath.Clean(path),
		perm: 0o644,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the data file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. A missing file yields empty Data. Malformed JSON, or
// a sourceViewPaths field that is not an array, yields empty Data together
// with ErrMalformed.
func (s *FileStore) Load(ctx context.Context) (Data, error) {
	if err := ctx.Err(); err != nil {
		return Data{}, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Data{}, nil
		}
		return Data{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return Decode(raw)
}

// Decode extracts Data from a JSON document.
func Decode(raw []byte) (Data, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Data{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Data{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}

	field := gjson.GetBytes(raw, FieldSourceViewPaths)
	if !field.Exists() || field.Type == gjson.Null {
		return Data{}, nil
	}
	if !field.IsArray() {
		return Data{}, fmt.Errorf("%w: %s is %s, not an array", ErrMalformed, FieldSourceViewPaths, field.Type)
	}

	var data Data
	field.ForEach(func(_, value gjson.Result) bool {
		// Non-string entries are skipped rather than failing the whole load.
		if value.Type == gjson.String && value.Str != "" {
			data.SourceViewPaths = append(data.SourceViewPaths, value.Str)
		}
		return true
	})
	return data, nil
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	out, err := Encode(base, data)
	if err != nil {
		return err
	}

	if err := writeAtomic(s.path, out, s.perm); err != nil {
		return err
	}
	s.lastSaved = out
	return nil
}

// Encode writes data into the JSON document base, keeping its other fields.
// An empty or invalid base starts from an empty object.
func Encode(base []byte, data Data) ([]byte, error) {
	if len(bytes.TrimSpace(base)) == 0 || !gjson.ValidBytes(base) || !gjson.ParseBytes(base).IsObject() {
		base = []byte("{}")
	}

	paths := data.SourceViewPaths
	if paths == nil {
		paths = []string{}
	}

	out, err := sjson.SetBytes(base, FieldSourceViewPaths, paths)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", FieldSourceViewPaths, err)
	}
	return pretty.PrettyOptions(out, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// ChangedExternally reports whether the file on disk differs from the last
// contents this store wrote or observed, and records the current contents as
// observed. Before the first save any existing file counts as changed.
func (s *FileStore) ChangedExternally() bool {
	raw, err := os.ReadFile(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		changed := s.lastSaved != nil
		s.lastSaved = nil
		return changed
	}
	if bytes.Equal(raw, s.lastSaved) {
		return false
	}
	s.lastSaved = raw
	return true
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("writing %s: %w", tmpName, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing %s: %w", tmpName, err))
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(fmt.Errorf("chmod %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
