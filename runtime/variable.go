// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package runtime is the data model of the shell's execution state: scoped
// variables, functions, the execution-context stack, traps, jobs, options,
// and the sum of control-flow diverts a command can produce. It corresponds
// to component B of the engine design.
//
// Variable and the overlay Scope chain generalize the teacher's
// expand.Environ/expand.Variable (a flat, attribute-tagged string/array/map
// cell) with the nested function-call scoping spec §3.2 requires: Global,
// Volatile (a single `name=value cmd` prefix assignment), Regular (a
// function's local declarations), and Local (a `local` builtin declaration
// inside a function).
package runtime

import "posixsh.dev/sh/expand"

// ValueKind mirrors expand.ValueKind so callers outside the expansion
// package aren't forced to import it just to build a Variable.
type ValueKind = expand.ValueKind

const (
	Unknown     = expand.Unknown
	String      = expand.String
	NameRef     = expand.NameRef
	Indexed     = expand.Indexed
	Associative = expand.Associative
	KeepValue   = expand.KeepValue
)

// Variable is expand.Variable plus the scope-origin bookkeeping §3.2
// requires to implement `local`, `unset`, and `declare -g` correctly: which
// kind of scope frame introduced it, and whether it carries the "quirk"
// behavior of a small set of special parameters (see [Quirk]).
type Variable struct {
	expand.Variable

	// Origin records which scope frame owns this binding, so that Unset
	// and the `local` builtin can tell a shadowing local apart from the
	// global it hides.
	Origin ScopeKind

	// Quirk marks one of the special-parameter irregularities that don't
	// fit the plain Variable model (see yash's variable::quirk.rs): for
	// example, $RANDOM re-randomizing itself on every read, or $LINENO
	// tracking the interpreter's current source position rather than a
	// stored string.
	Quirk Quirk
}

// Quirk identifies a special parameter whose value is computed rather than
// stored, resolved in the runtime package, and in original_source/yash-env
// (yash-env/src/variable/quirk.rs) called out explicitly as not fitting the
// plain get/set model.
type Quirk int

const (
	NoQuirk Quirk = iota
	QuirkRandom
	QuirkLineNo
	QuirkSeconds
)

// ScopeKind identifies which kind of variable-context frame a binding was
// declared in, per spec §3.2.
type ScopeKind int

const (
	// ScopeGlobal is the outermost, persistent context.
	ScopeGlobal ScopeKind = iota
	// ScopeVolatile holds the `name=value` prefix assignments of a single
	// simple command; it is popped immediately after that command runs.
	ScopeVolatile
	// ScopeRegular is pushed for a function call: plain assignments
	// inside the function body to names no outer frame binds land here
	// for the duration of the call; names already bound outside are
	// updated where they are bound.
	ScopeRegular
	// ScopeLocal holds bindings introduced by `local` inside a function
	// call; like Regular, it is popped when the call returns, but it is
	// tracked separately so `local` can be told apart from an ordinary
	// assignment when deciding what `unset` should reveal underneath.
	ScopeLocal
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeVolatile:
		return "volatile"
	case ScopeRegular:
		return "regular"
	case ScopeLocal:
		return "local"
	default:
		return "unknown"
	}
}
