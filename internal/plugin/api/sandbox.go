package api

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// CapabilityUnsafe grants the full Lua standard library, including io, os
// and file loading.
const CapabilityUnsafe Capability = "unsafe"

// safeLibs are opened in every sandboxed state.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.LoadLibName, lua.OpenPackage},
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// blockedGlobals load code from disk or strings and are removed.
var blockedGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// newSandboxedState creates a state with only the safe libraries opened and
// require limited to the ks module and the safe libraries.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !requireAllowed(name) {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))

	return L
}

func requireAllowed(name string) bool {
	if name == "ks" || strings.HasPrefix(name, "ks.") {
		return true
	}
	for _, lib := range safeLibs {
		if lib.name == name && name != lua.BaseLibName && name != lua.LoadLibName {
			return true
		}
	}
	return false
}
