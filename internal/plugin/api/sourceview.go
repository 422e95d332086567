package api

import (
	lua "github.com/yuin/gopher-lua"
)

// SourceViewProvider defines the source view operations exposed to scripts.
type SourceViewProvider interface {
	// Toggle flips the preference of path, or of the active document when
	// path is empty, and returns the new preference.
	Toggle(path string) (bool, error)

	// IsSourcePreferred reports whether path opens in source view.
	IsSourcePreferred(path string) bool

	// Paths returns every path set to open in source view.
	Paths() []string

	// Apply re-applies the stored preference of path to its open views and
	// returns how many views were updated.
	Apply(path string) (int, error)
}

// SourceViewModule implements the ks.sourceview API module.
type SourceViewModule struct {
	ctx *Context
}

// NewSourceViewModule creates a new source view module.
func NewSourceViewModule(ctx *Context) *SourceViewModule {
	return &SourceViewModule{ctx: ctx}
}

// Name returns the module name.
func (m *SourceViewModule) Name() string {
	return "sourceview"
}

// RequiredCapability returns the capability required for this module.
func (m *SourceViewModule) RequiredCapability() Capability {
	return CapabilityEditor
}

// Register registers the module into the Lua state.
func (m *SourceViewModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "toggle", L.NewFunction(m.toggle))
	L.SetField(mod, "is_source", L.NewFunction(m.isSource))
	L.SetField(mod, "paths", L.NewFunction(m.paths))
	L.SetField(mod, "apply", L.NewFunction(m.apply))

	L.SetGlobal("_ks_sourceview", mod)
	return nil
}

func (m *SourceViewModule) provider(L *lua.LState, fn string) SourceViewProvider {
	if m.ctx == nil || m.ctx.SourceView == nil {
		L.RaiseError("%s: %v", fn, ErrNoProvider)
		return nil
	}
	return m.ctx.SourceView
}

// toggle(path?) -> bool
// Flips the preference and returns the new value.
func (m *SourceViewModule) toggle(L *lua.LState) int {
	path := L.OptString(1, "")
	p := m.provider(L, "toggle")
	if p == nil {
		return 0
	}

	enabled, err := p.Toggle(path)
	if err != nil {
		L.RaiseError("toggle: %v", err)
		return 0
	}

	L.Push(lua.LBool(enabled))
	return 1
}

// is_source(path) -> bool
func (m *SourceViewModule) isSource(L *lua.LState) int {
	path := L.CheckString(1)
	p := m.provider(L, "is_source")
	if p == nil {
		return 0
	}

	L.Push(lua.LBool(p.IsSourcePreferred(path)))
	return 1
}

// paths() -> table
// Returns the tracked paths as a sorted array.
func (m *SourceViewModule) paths(L *lua.LState) int {
	p := m.provider(L, "paths")
	if p == nil {
		return 0
	}

	tbl := L.NewTable()
	for _, path := range p.Paths() {
		tbl.Append(lua.LString(path))
	}
	L.Push(tbl)
	return 1
}

// apply(path) -> int
// Re-applies the stored preference and returns the number of updated views.
func (m *SourceViewModule) apply(L *lua.LState) int {
	path := L.CheckString(1)
	p := m.provider(L, "apply")
	if p == nil {
		return 0
	}

	n, err := p.Apply(path)
	if err != nil {
		L.RaiseError("apply: %v", err)
		return 0
	}

	L.Push(lua.LNumber(n))
	return 1
}
