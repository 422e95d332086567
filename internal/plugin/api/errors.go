package api

import "errors"

var (
	// ErrModuleExists is returned when registering a module name twice.
	ErrModuleExists = errors.New("module already registered")

	// ErrNoProvider is raised to scripts when a module has no backing provider.
	ErrNoProvider = errors.New("no provider available")
)
