// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"os"
	"strconv"

	"posixsh.dev/sh/expand"
	"posixsh.dev/sh/syntax"
)

// overlayEnviron layers a set of local variables on top of a parent
// environment, so that function calls and subshells can each hold their
// own view of the variable namespace without copying the whole thing
// up front. It implements [expand.WriteEnviron].
type overlayEnviron struct {
	parent expand.Environ
	values map[string]expand.Variable

	// funcScope marks a layer introduced by a function call: plain
	// assignments (Variable.Local == false) made while this layer is
	// active should update an existing variable somewhere up the chain
	// rather than shadow it, matching how a POSIX function shares its
	// caller's variables unless "local" is used.
	funcScope bool
}

var _ expand.WriteEnviron = (*overlayEnviron)(nil)

// newOverlayEnviron starts a new variable layer for a subshell. Foreground
// subshells (e.g. "( cmds )") run synchronously, so it is enough to chain
// onto the parent lazily. Background subshells ("cmds &") run concurrently
// with the parent, so we take a flattened, independent snapshot instead of
// sharing the parent's live map across goroutines.
func newOverlayEnviron(parent expand.WriteEnviron, background bool) *overlayEnviron {
	if !background {
		return &overlayEnviron{parent: parent}
	}
	flat := make(map[string]expand.Variable)
	parent.Each(func(name string, vr expand.Variable) bool {
		flat[name] = vr
		return true
	})
	return &overlayEnviron{parent: expand.ListEnviron(), values: flat}
}

func (o *overlayEnviron) Get(name string) expand.Variable {
	if vr, ok := o.values[name]; ok {
		return vr
	}
	if o.parent == nil {
		return expand.Variable{}
	}
	return o.parent.Get(name)
}

func (o *overlayEnviron) Each(fn func(name string, vr expand.Variable) bool) {
	seen := make(map[string]bool, len(o.values))
	for name, vr := range o.values {
		seen[name] = true
		if !fn(name, vr) {
			return
		}
	}
	if o.parent == nil {
		return
	}
	o.parent.Each(func(name string, vr expand.Variable) bool {
		if seen[name] {
			return true
		}
		return fn(name, vr)
	})
}

func (o *overlayEnviron) Set(name string, vr expand.Variable) error {
	if prev := o.Get(name); prev.ReadOnly {
		if vr.ReadOnly {
			return nil
		}
		return fmt.Errorf("%s: readonly variable", name)
	}
	if vr.Local || !o.funcScope {
		if o.values == nil {
			o.values = make(map[string]expand.Variable)
		}
		o.values[name] = vr
		return nil
	}
	// A plain, non-local write inside a function scope: a name this layer
	// already holds is one of its local variables and is updated here.
	// Otherwise, find the layer that already declares this name and update
	// it there, falling back to the outermost layer if nobody declares it yet.
	if _, declared := o.values[name]; declared {
		vr.Local = true
		o.values[name] = vr
		return nil
	}
	top := o
	for p, ok := o.parent.(*overlayEnviron); ok; p, ok = p.parent.(*overlayEnviron) {
		if _, declared := p.values[name]; declared {
			return p.Set(name, vr)
		}
		top = p
	}
	if top.values == nil {
		top.values = make(map[string]expand.Variable)
	}
	top.values[name] = vr
	return nil
}

// setVar sets a variable by name, reporting any error (such as writing to a
// read-only variable) to standard error and marking the command as failed.
func (r *Runner) setVar(name string, vr expand.Variable) {
	if err := r.writeEnv.Set(name, vr); err != nil {
		r.errf("%v\n", err)
		r.exit.code = 1
	}
}

func (r *Runner) setVarString(name, value string) {
	r.setVar(name, expand.Variable{Set: true, Kind: expand.String, Str: value})
}

func (r *Runner) delVar(name string) {
	r.writeEnv.Set(name, expand.Variable{})
}

func (r *Runner) envGet(name string) string {
	return r.lookupVar(name).String()
}

// lookupVar resolves a variable by name, handling the special parameters
// ($@, $*, $#, $?, $$, $!, $-, $0, and the positional $1..$9) before
// falling back to the regular variable namespace.
func (r *Runner) lookupVar(name string) expand.Variable {
	switch name {
	case "#":
		return expand.Variable{Set: true, Kind: expand.String, Str: strconv.Itoa(len(r.Params))}
	case "@", "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: r.Params}
	case "?":
		return expand.Variable{Set: true, Kind: expand.String, Str: strconv.Itoa(int(r.lastExit.code))}
	case "$":
		return expand.Variable{Set: true, Kind: expand.String, Str: strconv.Itoa(os.Getpid())}
	case "!":
		if len(r.bgProcs) == 0 {
			return expand.Variable{}
		}
		return expand.Variable{Set: true, Kind: expand.String, Str: "g" + strconv.Itoa(len(r.bgProcs))}
	case "-":
		return expand.Variable{Set: true, Kind: expand.String, Str: r.optFlagsString()}
	case "0":
		name := r.filename
		if name == "" {
			name = "posh"
		}
		return expand.Variable{Set: true, Kind: expand.String, Str: name}
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		if i := int(name[0] - '1'); i < len(r.Params) {
			return expand.Variable{Set: true, Kind: expand.String, Str: r.Params[i]}
		}
		return expand.Variable{}
	}
	return r.writeEnv.Get(name)
}

// optFlagsString builds the value of $-: the concatenation of the
// single-character shell options currently enabled.
func (r *Runner) optFlagsString() string {
	var buf []byte
	for i, opt := range &shellOptsTable {
		if opt.flag != ' ' && r.opts[i] {
			buf = append(buf, opt.flag)
		}
	}
	return string(buf)
}

func (r *Runner) setFunc(name string, body *syntax.Stmt) {
	if r.Funcs == nil {
		r.Funcs = make(map[string]*syntax.Stmt)
	}
	r.Funcs[name] = body
}

// assignVal computes the new value for a "name=value" or "name+=value"
// assignment, given the variable's previous value.
func (r *Runner) assignVal(prev expand.Variable, as *syntax.Assign) expand.Variable {
	val := r.literal(&as.Value)
	if as.Append && prev.Kind == expand.String {
		val = prev.String() + val
	}
	return expand.Variable{Set: true, Kind: expand.String, Str: val}
}
