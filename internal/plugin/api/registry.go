package api

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystorm-sourceview/internal/notice"
)

// Capability is a permission a script must be granted to use a module.
type Capability string

const (
	// CapabilityEditor grants access to view and preference state.
	CapabilityEditor Capability = "editor"

	// CapabilityCommand grants access to the command registry.
	CapabilityCommand Capability = "editor.command"

	// CapabilityUI grants access to notices.
	CapabilityUI Capability = "editor.ui"
)

// Version is reported to scripts as ks.version.
const Version = "1.0.0"

// Module represents a Lua API module.
type Module interface {
	// Name returns the module name (e.g., "sourceview", "ui").
	Name() string

	// RequiredCapability returns the capability required to use this module.
	// Returns empty string if no capability is required.
	RequiredCapability() Capability

	// Register registers the module functions into the Lua state.
	// The module should register itself under the _ks_<name> global.
	Register(L *lua.LState) error
}

// Registry manages API modules and their registration.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates a new API registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrModuleExists, mod.Name())
	}

	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns all registered module names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InjectAll registers every module whose capability is granted into the Lua
// state and installs the ks loader. Modules without a required capability
// are always injected.
func (r *Registry) InjectAll(L *lua.LState, granted ...Capability) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[Capability]bool, len(granted))
	for _, c := range granted {
		allowed[c] = true
	}

	var injected []string
	for _, name := range r.sortedNames() {
		mod := r.modules[name]
		if req := mod.RequiredCapability(); req != "" && !allowed[req] {
			continue
		}
		if err := mod.Register(L); err != nil {
			return fmt.Errorf("failed to register module %q: %w", name, err)
		}
		injected = append(injected, name)
	}

	installKSLoader(L, injected)
	return nil
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// installKSLoader collects the _ks_<name> globals into a ks table that
// scripts reach through both require("ks") and the ks global.
func installKSLoader(L *lua.LState, names []string) {
	ks := L.NewTable()
	for _, name := range names {
		globalName := "_ks_" + name
		val := L.GetGlobal(globalName)
		if val != lua.LNil {
			L.SetField(ks, name, val)
			L.SetGlobal(globalName, lua.LNil)
		}
	}

	L.SetField(ks, "version", lua.LString(Version))

	L.PreloadModule("ks", func(L *lua.LState) int {
		L.Push(ks)
		return 1
	})
	L.SetGlobal("ks", ks)
}

// NewState creates a sandboxed Lua state holding every module of r permitted
// by granted. Granting CapabilityUnsafe opens the full standard library
// instead of the sandbox.
func (r *Registry) NewState(granted ...Capability) (*lua.LState, error) {
	var L *lua.LState
	if hasCapability(granted, CapabilityUnsafe) {
		L = lua.NewState()
	} else {
		L = newSandboxedState()
	}
	if err := r.InjectAll(L, granted...); err != nil {
		L.Close()
		return nil, err
	}
	return L, nil
}

func hasCapability(granted []Capability, c Capability) bool {
	for _, g := range granted {
		if g == c {
			return true
		}
	}
	return false
}

// DefaultRegistry creates a registry with every standard module backed by ctx.
func DefaultRegistry(ctx *Context) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewSourceViewModule(ctx),
		NewUIModule(ctx),
		NewCommandModule(ctx),
	}

	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, fmt.Errorf("failed to register module %q: %w", mod.Name(), err)
		}
	}

	return r, nil
}

// Context provides access to editor state for API modules. Nil providers
// make the corresponding functions raise a Lua error, except notify which
// silently succeeds.
type Context struct {
	// SourceView provides source view preference operations.
	SourceView SourceViewProvider

	// Notifier shows notices.
	Notifier notice.Notifier

	// Commands provides command registry operations.
	Commands CommandProvider
}
