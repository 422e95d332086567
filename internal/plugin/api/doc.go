// Package api provides the Lua API modules exposed to user scripts.
//
// Scripts reach editor functionality through the "ks" namespace, available
// both as a global and through require("ks"):
//
//   - ks.sourceview: source view preferences (toggle, is_source, paths, apply)
//   - ks.ui: notices
//   - ks.command: command registry (execute, list, available)
//
// # Architecture
//
// Each module implements the Module interface:
//
//	type Module interface {
//	    Name() string
//	    RequiredCapability() Capability
//	    Register(L *lua.LState) error
//	}
//
// Modules register themselves under a _ks_<name> global; InjectAll then moves
// every permitted module into the ks table and removes the globals.
//
// # Capabilities
//
// A module declares the capability it requires. InjectAll only injects
// modules whose capability is in the granted list, so a script run without
// CapabilityEditor sees no ks.sourceview at all.
//
// # Example
//
//	local ks = require("ks")
//	if not ks.sourceview.is_source("notes/todo.md") then
//	    ks.sourceview.toggle("notes/todo.md")
//	end
//	for _, p in ipairs(ks.sourceview.paths()) do
//	    ks.ui.notify(p)
//	end
package api
