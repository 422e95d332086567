// Package store persists the plugin's durable data: the list of document
// paths that open in source view.
//
// The on-disk layout is a single JSON record:
//
//	{ "sourceViewPaths": ["notes/one.md", "notes/two.md"] }
//
// A missing field reads as an empty list. Saves replace the whole list.
package store

import (
	"context"
	"errors"
)

// FieldSourceViewPaths is the JSON field holding the tracked paths.
const FieldSourceViewPaths = "sourceViewPaths"

// ErrMalformed is returned when stored data cannot be decoded. Callers treat
// it as empty data.
var ErrMalformed = errors.New("malformed plugin data")

// Data is the plugin's durable state.
type Data struct {
	SourceViewPaths []string
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	if d.SourceViewPaths == nil {
		return Data{}
	}
	paths := make([]string, len(d.SourceViewPaths))
	copy(paths, d.SourceViewPaths)
	return Data{SourceViewPaths: paths}
}

// Store loads and saves Data.
type Store interface {
	// Load returns the stored data. A store with nothing saved yet returns
	// empty Data and a nil error.
	Load(ctx context.Context) (Data, error)

	// Save overwrites the stored data.
	Save(ctx context.Context, data Data) error
}
