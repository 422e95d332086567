package api

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystorm-sourceview/internal/command"
)

// CommandProvider defines the command registry operations exposed to scripts.
type CommandProvider interface {
	// Execute runs a command by ID.
	Execute(ctx context.Context, id string) error

	// All returns every registered command.
	All() []*command.Command

	// IsAvailable reports whether a command exists and applies right now.
	IsAvailable(id string) bool
}

// CommandModule implements the ks.command API module.
type CommandModule struct {
	ctx *Context
}

// NewCommandModule creates a new command module.
func NewCommandModule(ctx *Context) *CommandModule {
	return &CommandModule{ctx: ctx}
}

// Name returns the module name.
func (m *CommandModule) Name() string {
	return "command"
}

// RequiredCapability returns the capability required for this module.
func (m *CommandModule) RequiredCapability() Capability {
	return CapabilityCommand
}

// Register registers the module into the Lua state.
func (m *CommandModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "execute", L.NewFunction(m.execute))
	L.SetField(mod, "list", L.NewFunction(m.list))
	L.SetField(mod, "available", L.NewFunction(m.available))

	L.SetGlobal("_ks_command", mod)
	return nil
}

func (m *CommandModule) provider(L *lua.LState, fn string) CommandProvider {
	if m.ctx == nil || m.ctx.Commands == nil {
		L.RaiseError("%s: %v", fn, ErrNoProvider)
		return nil
	}
	return m.ctx.Commands
}

// execute(id) -> nil
func (m *CommandModule) execute(L *lua.LState) int {
	id := L.CheckString(1)
	p := m.provider(L, "execute")
	if p == nil {
		return 0
	}

	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.Execute(ctx, id); err != nil {
		L.RaiseError("execute: %v", err)
	}
	return 0
}

// list() -> table
// Returns {id=..., title=..., category=...} entries sorted by title.
func (m *CommandModule) list(L *lua.LState) int {
	p := m.provider(L, "list")
	if p == nil {
		return 0
	}

	tbl := L.NewTable()
	for _, cmd := range p.All() {
		entry := L.NewTable()
		L.SetField(entry, "id", lua.LString(cmd.ID))
		L.SetField(entry, "title", lua.LString(cmd.Title))
		L.SetField(entry, "category", lua.LString(cmd.Category))
		tbl.Append(entry)
	}
	L.Push(tbl)
	return 1
}

// available(id) -> bool
func (m *CommandModule) available(L *lua.LState) int {
	id := L.CheckString(1)
	p := m.provider(L, "available")
	if p == nil {
		return 0
	}

	L.Push(lua.LBool(p.IsAvailable(id)))
	return 1
}
