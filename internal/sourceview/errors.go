package sourceview

import "errors"

var (
	// ErrNotManaged is returned when an operation targets a document whose
	// type the plugin does not track.
	ErrNotManaged = errors.New("document type is not managed")

	// ErrNoActiveDocument is returned when the toggle command runs with no
	// active document.
	ErrNoActiveDocument = errors.New("no active document")

	// ErrAlreadyActive is returned when activating an active plugin.
	ErrAlreadyActive = errors.New("plugin is already active")

	// ErrNotActive is returned when deactivating an inactive plugin.
	ErrNotActive = errors.New("plugin is not active")
)
