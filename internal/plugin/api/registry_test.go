package api

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	lua "github.com/yuin/gopher-lua"
)

// mockModule is a simple test module.
type mockModule struct {
	name       string
	capability Capability
	registered bool
}

func (m *mockModule) Name() string                   { return m.name }
func (m *mockModule) RequiredCapability() Capability { return m.capability }
func (m *mockModule) Register(L *lua.LState) error {
	m.registered = true
	mod := L.NewTable()
	L.SetField(mod, "test", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString("mock"))
		return 1
	}))
	L.SetGlobal("_ks_"+m.name, mod)
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	mod := &mockModule{name: "test"}
	if err := r.Register(mod); err != nil {
		t.Errorf("Register error = %v", err)
	}

	if err := r.Register(mod); !errors.Is(err, ErrModuleExists) {
		t.Errorf("duplicate Register error = %v, want ErrModuleExists", err)
	}
}

func TestRegistryGetAndList(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockModule{name: "zeta"})
	_ = r.Register(&mockModule{name: "alpha"})

	if _, ok := r.Get("alpha"); !ok {
		t.Error("Get(alpha) should succeed")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, r.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryInjectAllCapabilities(t *testing.T) {
	r := NewRegistry()
	open := &mockModule{name: "open"}
	guarded := &mockModule{name: "guarded", capability: CapabilityEditor}
	_ = r.Register(open)
	_ = r.Register(guarded)

	L := lua.NewState()
	defer L.Close()

	if err := r.InjectAll(L); err != nil {
		t.Fatalf("InjectAll error = %v", err)
	}
	if !open.registered {
		t.Error("module without capability should be injected")
	}
	if guarded.registered {
		t.Error("module requiring an ungranted capability should not be injected")
	}

	if err := L.DoString(`assert(ks.open.test() == "mock"); assert(ks.guarded == nil)`); err != nil {
		t.Errorf("script error = %v", err)
	}
	if L.GetGlobal("_ks_open") != lua.LNil {
		t.Error("internal global should be removed after injection")
	}
}

func TestRegistryRequireKS(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockModule{name: "guarded", capability: CapabilityEditor})

	L, err := r.NewState(CapabilityEditor)
	if err != nil {
		t.Fatalf("NewState error = %v", err)
	}
	defer L.Close()

	err = L.DoString(`
		local ks = require("ks")
		assert(ks.version == "` + Version + `")
		assert(ks.guarded.test() == "mock")
	`)
	if err != nil {
		t.Errorf("script error = %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry(&Context{})
	if err != nil {
		t.Fatalf("DefaultRegistry error = %v", err)
	}
	if diff := cmp.Diff([]string{"command", "sourceview", "ui"}, r.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
