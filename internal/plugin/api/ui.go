package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keystorm-sourceview/internal/notice"
)

// UIModule implements the ks.ui API module.
type UIModule struct {
	ctx *Context
}

// NewUIModule creates a new UI module.
func NewUIModule(ctx *Context) *UIModule {
	return &UIModule{ctx: ctx}
}

// Name returns the module name.
func (m *UIModule) Name() string {
	return "ui"
}

// RequiredCapability returns the capability required for this module.
func (m *UIModule) RequiredCapability() Capability {
	return CapabilityUI
}

// Register registers the module into the Lua state.
func (m *UIModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "notify", L.NewFunction(m.notify))
	L.SetField(mod, "levels", m.levels(L))

	L.SetGlobal("_ks_ui", mod)
	return nil
}

func (m *UIModule) levels(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "INFO", lua.LString(notice.LevelInfo))
	L.SetField(tbl, "WARNING", lua.LString(notice.LevelWarning))
	L.SetField(tbl, "ERROR", lua.LString(notice.LevelError))
	return tbl
}

// notify(message, level?) -> nil
// Shows a notice. Unknown levels are shown as info.
func (m *UIModule) notify(L *lua.LState) int {
	message := L.CheckString(1)
	levelStr := L.OptString(2, string(notice.LevelInfo))

	if message == "" {
		L.ArgError(1, "message cannot be empty")
		return 0
	}

	if m.ctx == nil || m.ctx.Notifier == nil {
		// Notices are optional.
		return 0
	}

	level := notice.Level(levelStr)
	switch level {
	case notice.LevelInfo, notice.LevelWarning, notice.LevelError:
	default:
		level = notice.LevelInfo
	}

	m.ctx.Notifier.Notify(message, level)
	return 0
}
