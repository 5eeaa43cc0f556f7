package lua

import (
	"io"
	"strings"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts a Lua state to the safe libraries and the modules
// the host registers, and meters host calls.
type Sandbox struct {
	L *lua.LState

	callLimit int64
	calls     atomic.Int64
	exceeded  atomic.Bool

	out     io.Writer
	modules map[string]bool
}

// builtinModules can be required by name; each is already a global.
var builtinModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// NewSandbox creates a sandbox for L.
func NewSandbox(L *lua.LState, callLimit int64, out io.Writer) *Sandbox {
	return &Sandbox{
		L:         L,
		callLimit: callLimit,
		out:       out,
		modules:   make(map[string]bool),
	}
}

// Install removes the loaders that bypass require, redirects print and
// replaces require with a whitelist.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	s.installRequire()
}

func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		io.WriteString(s.out, strings.Join(parts, "\t")+"\n")
		return 0
	}))
}

func (s *Sandbox) installRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	original := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		switch {
		case builtinModules[name]:
			L.Push(L.GetGlobal(name))
			return 1
		case s.modules[name]:
			L.Push(original)
			L.Push(lua.LString(name))
			L.Call(1, 1)
			return 1
		}
		L.RaiseError("module %q is not available", name)
		return 0
	}))
}

// Allow lets require load the preloaded module name.
func (s *Sandbox) Allow(name string) {
	s.modules[name] = true
}

// Charged wraps fn so that each call counts against the call limit.
func (s *Sandbox) Charged(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if s.charge() {
			L.RaiseError("%s (%d)", ErrCallLimit, s.callLimit)
			return 0
		}
		return fn(L)
	}
}

func (s *Sandbox) charge() bool {
	if s.callLimit <= 0 {
		return false
	}
	if s.calls.Add(1) > s.callLimit {
		s.exceeded.Store(true)
		return true
	}
	return false
}

// ResetCalls clears the call counter before an execution.
func (s *Sandbox) ResetCalls() {
	s.calls.Store(0)
	s.exceeded.Store(false)
}

// Calls returns the host calls made by the current execution.
func (s *Sandbox) Calls() int64 {
	return s.calls.Load()
}

// Exceeded reports whether the current execution hit the call limit.
func (s *Sandbox) Exceeded() bool {
	return s.exceeded.Load()
}
