// Package command provides the editor's command registry. Commands are
// invoked by ID from the palette, keybindings or scripts. A command may carry
// a check callback; while it reports false the command is not applicable to
// the current editor state and Execute refuses to run it.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned for unknown command IDs.
	ErrNotFound = errors.New("command not found")

	// ErrNotApplicable is returned when a command's check callback rejects
	// the current editor state.
	ErrNotApplicable = errors.New("command not applicable")

	// ErrInvalidCommand is returned when registering a malformed command.
	ErrInvalidCommand = errors.New("invalid command")
)

// Handler runs a command.
type Handler func(ctx context.Context) error

// Command is a registered editor command.
type Command struct {
	// ID is the unique identifier, conventionally "<plugin>.<action>".
	ID string

	// Title is shown in the palette.
	Title string

	// Category groups related commands.
	Category string

	// Source identifies who registered the command (e.g. "plugin:sourceview").
	Source string

	// Check reports whether the command applies to the current state.
	// A nil Check means always applicable.
	Check func() bool

	// Handler runs the command.
	Handler Handler
}

// Registry stores commands by ID.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command. A command with the same ID is replaced.
func (r *Registry) Register(cmd *Command) error {
	switch {
	case cmd == nil:
		return fmt.Errorf("%w: nil command", ErrInvalidCommand)
	case cmd.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidCommand)
	case cmd.Title == "":
		return fmt.Errorf("%w: %s has no title", ErrInvalidCommand, cmd.ID)
	case cmd.Handler == nil:
		return fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, cmd.ID)
	}

	r.mu.Lock()
	r.commands[cmd.ID] = cmd
	r.mu.Unlock()
	return nil
}

// Unregister removes a command and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.commands[id]
	delete(r.commands, id)
	return ok
}

// UnregisterBySource removes all commands from a source and returns how many
// were removed.
func (r *Registry) UnregisterBySource(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, cmd := range r.commands {
		if cmd.Source == source {
			delete(r.commands, id)
			n++
		}
	}
	return n
}

// Get returns a command by ID.
func (r *Registry) Get(id string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// All returns every command sorted by title.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Available returns the commands whose check currently passes.
func (r *Registry) Available() []*Command {
	var out []*Command
	for _, cmd := range r.All() {
		if applicable(cmd) {
			out = append(out, cmd)
		}
	}
	return out
}

// IsAvailable reports whether the command exists and applies right now.
func (r *Registry) IsAvailable(id string) bool {
	cmd, ok := r.Get(id)
	return ok && applicable(cmd)
}

// Execute runs a command by ID.
func (r *Registry) Execute(ctx context.Context, id string) error {
	cmd, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !applicable(cmd) {
		return fmt.Errorf("%w: %s", ErrNotApplicable, id)
	}
	if err := cmd.Handler(ctx); err != nil {
		return fmt.Errorf("command %s: %w", id, err)
	}
	return nil
}

func applicable(cmd *Command) bool {
	return cmd.Check == nil || cmd.Check()
}
