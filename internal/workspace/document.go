package workspace

import (
	"path"
	"strings"
)

// Document identifies a file known to the workspace. Documents are values;
// the workspace owns the registry that maps paths to open views.
type Document struct {
	// Path is the vault-relative path using forward slashes.
	Path string

	// Name is the display name (base name including extension).
	Name string

	// Extension is the file extension without the leading dot.
	Extension string
}

// NewDocument derives a Document from a path.
func NewDocument(p string) Document {
	p = strings.ReplaceAll(p, "\\", "/")
	if p != "" {
		p = path.Clean(p)
	}
	base := path.Base(p)
	if p == "" {
		base = "Untitled"
	}
	return Document{
		Path:      p,
		Name:      base,
		Extension: strings.TrimPrefix(path.Ext(p), "."),
	}
}

// IsZero reports whether d is the zero Document.
func (d Document) IsZero() bool {
	return d.Path == ""
}

// Basename returns the name without extension.
func (d Document) Basename() string {
	return strings.TrimSuffix(d.Name, path.Ext(d.Name))
}
