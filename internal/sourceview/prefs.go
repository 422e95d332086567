package sourceview

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns the canonical form of a document path used as the
// preference key: forward slashes, cleaned, NFC-normalized. Filesystems that
// store decomposed names (macOS) and those that store composed names then
// agree on the same key.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = norm.NFC.String(p)
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// PreferenceSet is the set of document paths that open in source view.
// It is owned by the Tracker and only touched from the editor loop.
type PreferenceSet struct {
	paths map[string]struct{}
}

// NewPreferenceSet creates a set holding paths. Duplicates collapse.
func NewPreferenceSet(paths ...string) *PreferenceSet {
	s := &PreferenceSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Has reports whether p is in the set.
func (s *PreferenceSet) Has(p string) bool {
	_, ok := s.paths[NormalizePath(p)]
	return ok
}

// Add inserts p and reports whether it was absent.
func (s *PreferenceSet) Add(p string) bool {
	key := NormalizePath(p)
	if key == "" {
		return false
	}
	if _, ok := s.paths[key]; ok {
		return false
	}
	s.paths[key] = struct{}{}
	return true
}

// Remove deletes p and reports whether it was present.
func (s *PreferenceSet) Remove(p string) bool {
	key := NormalizePath(p)
	if _, ok := s.paths[key]; !ok {
		return false
	}
	delete(s.paths, key)
	return true
}

// Toggle flips membership of p and returns the new membership.
func (s *PreferenceSet) Toggle(p string) bool {
	if s.Remove(p) {
		return false
	}
	return s.Add(p)
}

// Rename moves membership from oldPath to newPath. It reports whether
// oldPath was present.
func (s *PreferenceSet) Rename(oldPath, newPath string) bool {
	if !s.Remove(oldPath) {
		return false
	}
	s.Add(newPath)
	return true
}

// Len returns the number of paths.
func (s *PreferenceSet) Len() int {
	return len(s.paths)
}

// Paths returns the paths in sorted order.
func (s *PreferenceSet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// diff returns the paths whose membership differs between s and other.
func (s *PreferenceSet) diff(other *PreferenceSet) []string {
	var changed []string
	for p := range s.paths {
		if _, ok := other.paths[p]; !ok {
			changed = append(changed, p)
		}
	}
	for p := range other.paths {
		if _, ok := s.paths[p]; !ok {
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	return changed
}
