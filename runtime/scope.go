// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package runtime

import (
	"fmt"
	"sort"
	"strconv"

	"posixsh.dev/sh/expand"
)

// Scope is one frame of the variable-context stack: a map of bindings plus
// a parent to fall through to on lookup. It generalizes the teacher's
// mapEnviron (interp/vars.go), which only ever had one implicit "sub"
// relationship, into the four explicitly kinded frames of spec §3.2.
type Scope struct {
	kind   ScopeKind
	parent *Scope
	vars   map[string]Variable
	funcs  map[string]*Function
}

// Function is a declared shell function: its body is an opaque syntax tree
// handle owned by the interp package, which is the only package that needs
// to walk it; runtime just needs to store and look functions up by name.
type Function struct {
	Name string
	Body any // *syntax.Stmt, kept untyped here to avoid an import cycle
}

// NewGlobalScope returns the root of a variable-context stack.
func NewGlobalScope() *Scope {
	return &Scope{kind: ScopeGlobal, vars: map[string]Variable{}, funcs: map[string]*Function{}}
}

// Push returns a new child frame of the given kind. The returned frame's
// Pop (discard it and resume using the parent) is implicit: a Scope holds
// no back-pointer the caller must release, callers just stop using it and
// go back to the parent they already held — the execution-Frame stack in
// frame.go is what enforces the discipline of always doing so via a guard.
func (s *Scope) Push(kind ScopeKind) *Scope {
	return &Scope{kind: kind, parent: s, vars: map[string]Variable{}, funcs: map[string]*Function{}}
}

// Kind reports which kind of frame this scope is.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Parent returns the enclosing scope, or nil at the global frame.
func (s *Scope) Parent() *Scope { return s.parent }

// Get resolves name by walking from this frame outward to Global.
func (s *Scope) Get(name string) Variable {
	for fr := s; fr != nil; fr = fr.parent {
		if vr, ok := fr.vars[name]; ok {
			return vr
		}
	}
	return Variable{}
}

// GetLocal reports whether name is bound directly in this frame, without
// falling through to parents; used by `local` to detect re-declaration.
func (s *Scope) GetLocal(name string) (Variable, bool) {
	vr, ok := s.vars[name]
	return vr, ok
}

// Set assigns name. If this frame or an ancestor already binds name, the
// innermost such binding is updated in place rather than shadowed;
// shadowing an outer binding takes `local` (which calls SetLocal). A name
// that no frame binds yet is created in this frame.
func (s *Scope) Set(name string, vr expand.Variable) error {
	for fr := s; fr != nil; fr = fr.parent {
		if existing, ok := fr.vars[name]; ok {
			if existing.ReadOnly && vr.Kind != expand.KeepValue {
				return fmt.Errorf("runtime: %s: readonly variable", name)
			}
			fr.vars[name] = mergeVariable(existing, vr, existing.Origin, existing.Quirk)
			return nil
		}
	}
	s.vars[name] = mergeVariable(Variable{Origin: s.kind}, vr, s.kind, NoQuirk)
	return nil
}

// SetLocal binds name directly in this frame, shadowing any ancestor
// binding of the same name for the lifetime of this frame. This is the
// `local` builtin's primitive.
func (s *Scope) SetLocal(name string, vr expand.Variable) error {
	if existing, ok := s.vars[name]; ok && existing.ReadOnly && vr.Kind != expand.KeepValue {
		return fmt.Errorf("runtime: %s: readonly variable", name)
	}
	s.vars[name] = mergeVariable(Variable{Origin: s.kind}, vr, s.kind, NoQuirk)
	return nil
}

func mergeVariable(into Variable, vr expand.Variable, origin ScopeKind, quirk Quirk) Variable {
	if vr.Kind == expand.KeepValue {
		vr.Kind = into.Kind
		vr.Str, vr.List, vr.Map, vr.Set = into.Str, into.List, into.Map, into.Set
	}
	return Variable{Variable: vr, Origin: origin, Quirk: quirk}
}

// Unset removes name from whichever frame currently binds it.
func (s *Scope) Unset(name string) {
	for fr := s; fr != nil; fr = fr.parent {
		if _, ok := fr.vars[name]; ok {
			delete(fr.vars, name)
			return
		}
	}
}

// Each iterates bindings visible from this frame, innermost first, calling
// fn once per distinct name (a shadowed ancestor binding is skipped).
func (s *Scope) Each(fn func(name string, vr Variable) bool) {
	seen := map[string]bool{}
	for fr := s; fr != nil; fr = fr.parent {
		for name, vr := range fr.vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !fn(name, vr) {
				return
			}
		}
	}
}

// Sorted is a convenience for built-ins like `export -p` and `set` that
// must print variables in a stable, deterministic order.
func (s *Scope) Sorted() []string {
	var names []string
	s.Each(func(name string, _ Variable) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// SetFunc declares a function at the global scope: POSIX functions are not
// lexically scoped the way variables are, so function declaration always
// walks to the root frame.
func (s *Scope) SetFunc(name string, fn *Function) {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.funcs[name] = fn
}

// GetFunc looks up a declared function by name.
func (s *Scope) GetFunc(name string) (*Function, bool) {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	fn, ok := root.funcs[name]
	return fn, ok
}

// UnsetFunc removes a function declaration.
func (s *Scope) UnsetFunc(name string) {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	delete(root.funcs, name)
}

// WriteEnviron adapts a Scope to [expand.WriteEnviron], so the expansion
// pipeline can read variables without depending on the runtime package's
// richer Variable type. Params carries the positional parameters currently
// in effect, so that "@"/"*"/"#"/digit names resolve the way the teacher's
// mapEnviron.Get special-cases them (interp/vars.go) instead of going
// through the ordinary scope chain, since positional parameters live on
// the execution State rather than in any Scope frame.
type WriteEnviron struct {
	Scope  *Scope
	Params []string
}

func (e WriteEnviron) Get(name string) expand.Variable {
	switch {
	case name == "@" || name == "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: e.Params}
	case name == "#":
		return expand.Variable{Set: true, Kind: expand.String, Str: strconv.Itoa(len(e.Params))}
	case isPositionalName(name):
		i, _ := strconv.Atoi(name)
		if i >= 1 && i <= len(e.Params) {
			return expand.Variable{Set: true, Kind: expand.String, Str: e.Params[i-1]}
		}
		return expand.Variable{}
	}
	return e.Scope.Get(name).Variable
}

func (e WriteEnviron) Each(fn func(string, expand.Variable) bool) {
	e.Scope.Each(func(name string, vr Variable) bool { return fn(name, vr.Variable) })
}

func (e WriteEnviron) Set(name string, vr expand.Variable) error {
	switch {
	case name == "@" || name == "*" || name == "#" || isPositionalName(name):
		return fmt.Errorf("runtime: %s: cannot assign to positional parameter", name)
	case !vr.IsSet() && vr.Kind == expand.Unknown:
		e.Scope.Unset(name)
		return nil
	}
	return e.Scope.Set(name, vr)
}

func isPositionalName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return name != "0"
}

var _ expand.WriteEnviron = WriteEnviron{}
