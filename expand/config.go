// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"bytes"
	"context"
	"io"

	"posixsh.dev/sh/syntax"
)

// Config holds everything the expansion pipeline (component C) needs to
// turn syntax words into shell fields: the variable environment, the
// globbing options, and a hook back into the interpreter for command
// substitution. It replaces the teacher's older
// Context type (expand/expand.go's original shape) with one that speaks
// the current Environ/Variable model throughout and returns errors instead
// of panicking, matching [WriteEnviron] and the rest of this module's
// error-handling convention.
type Config struct {
	Env WriteEnviron

	// Ctx is the context in scope for the expansion currently underway;
	// set by the interpreter before each top-level Fields/Literal
	// call so that command substitution can honor cancellation without
	// every expansion helper threading a context.Context parameter of
	// its own, matching how Config's other fields (Env, CmdSubst) are
	// set once per call rather than passed down explicitly.
	Ctx context.Context

	NoGlob   bool
	GlobStar bool

	// NoUnset mirrors "set -o nounset": expanding an unset parameter is
	// an error unless one of the :-/-/:=/=/:?/?/:+/+ substitution forms is
	// used, per POSIX's description of the option.
	NoUnset bool

	// CmdSubst runs the given statement list with its standard output
	// captured into w. The interp package supplies this, since running a
	// statement list is component F's job, not expand's.
	CmdSubst func(ctx context.Context, w io.Writer, stmts []*syntax.Stmt) error

	// ReadDir lists directory entries for pathname expansion; defaults
	// to the host filesystem if nil. Tests substitute a deterministic
	// implementation.
	ReadDir func(dir string) ([]string, error)

	// LineOf resolves the source line for $LINENO; the interpreter sets
	// this since the expand package cannot track statement position on
	// its own.
	LineOf func(*syntax.ParamExp) int

	bufferAlloc bytes.Buffer
	ifs         string
}

func (cfg *Config) prepareIFS() {
	vr := cfg.Env.Get("IFS")
	if !vr.IsSet() {
		cfg.ifs = " \t\n"
	} else {
		cfg.ifs = vr.String()
	}
}

func (cfg *Config) ifsRune(r rune) bool {
	for _, r2 := range cfg.ifs {
		if r == r2 {
			return true
		}
	}
	return false
}

func (cfg *Config) ifsWhitespace(r rune) bool {
	return cfg.ifsRune(r) && (r == ' ' || r == '\t' || r == '\n')
}

func (cfg *Config) envGet(name string) string {
	return cfg.Env.Get(name).String()
}

func (cfg *Config) envSet(name, value string) error {
	return cfg.Env.Set(name, Variable{Set: true, Kind: String, Str: value})
}

func (cfg *Config) strBuilder() *bytes.Buffer {
	b := &cfg.bufferAlloc
	b.Reset()
	return b
}

// ensureConfig normalizes cfg so every expansion entry point can assume a
// non-nil *Config with a non-nil Env: a nil Config, or one with no Env set,
// behaves as an empty environment (every variable unset) rather than
// panicking, which lets callers probe expansion behavior without having to
// construct a full environment first.
func ensureConfig(cfg *Config) *Config {
	if cfg == nil {
		return &Config{Env: nullEnviron{}}
	}
	if cfg.Env == nil {
		c2 := *cfg
		c2.Env = nullEnviron{}
		return &c2
	}
	return cfg
}

// nullEnviron is the empty [WriteEnviron] ensureConfig falls back to.
type nullEnviron struct{}

func (nullEnviron) Get(string) Variable              { return Variable{} }
func (nullEnviron) Each(func(string, Variable) bool) {}
func (nullEnviron) Set(string, Variable) error       { return nil }

var _ WriteEnviron = nullEnviron{}
