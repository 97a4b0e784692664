// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package runtime

// State bundles every piece of per-shell-instance runtime data the engine
// needs outside of a single expansion or execution call: it generalizes the
// teacher's Runner struct's scattered fields (Vars, Funcs, opts, bgProcs,
// breakEnclosing/contnEnclosing, exit/lastExit) into the typed components
// of spec §3, so that interp can hold one *State per running shell
// (including one per subshell and one per `(...)`-forked child) instead of
// repeating this bookkeeping ad hoc.
type State struct {
	Scope *Scope
	Frames Frames
	Jobs  *JobTable
	Traps *TrapTable

	Options OptionSet

	// Params are the current positional parameters ($1.. / $@ / $*), and
	// Name is $0.
	Params []string
	Name   string

	// LastStatus is $?: the exit status of the most recently completed
	// command.
	LastStatus ExitStatus

	// LastBackgroundPid is $!: the pid of the most recently started
	// background job.
	LastBackgroundPid int

	// ShellPid is $$: the pid of the shell process itself (not affected
	// by subshells, which inherit their parent's $$).
	ShellPid int
}

// NewState returns a fresh top-level State: global scope, empty frame
// stack, empty job and trap tables, and no options set.
func NewState(shellPid int) *State {
	return &State{
		Scope:    NewGlobalScope(),
		Jobs:     NewJobTable(),
		Traps:    NewTrapTable(),
		ShellPid: shellPid,
	}
}

// Fork returns a copy of s suitable for a subshell: a child Scope frame (so
// the subshell's assignments don't leak back to the parent when it exits),
// a copy of the frame stack with a FrameSubshell pushed, independent job
// and trap tables (§5's "subshells get an independent job table" rule), and
// the same options/params/status snapshotted by value.
func (s *State) Fork() *State {
	child := &State{
		Scope:             s.Scope.Push(ScopeRegular),
		Options:           s.Options,
		Params:            append([]string(nil), s.Params...),
		Name:              s.Name,
		LastStatus:        s.LastStatus,
		LastBackgroundPid: s.LastBackgroundPid,
		ShellPid:          s.ShellPid,
		Jobs:              NewJobTable(),
		Traps:             s.Traps.clone(),
	}
	child.Frames.stack = append([]Frame(nil), s.Frames.stack...)
	child.Frames.Push(Frame{Kind: FrameSubshell})
	return child
}

func (t *TrapTable) clone() *TrapTable {
	out := NewTrapTable()
	for cond, st := range t.states {
		clone := *st
		out.states[cond] = &clone
	}
	return out
}

// PushCall returns a State for a function call: a new ScopeRegular frame so
// `local` declarations and assignments to names the caller does not bind
// don't escape to the caller, new Params (the function's arguments), but
// the same job/trap tables and a copy of the caller's frame stack (function
// calls are not subshells: no frame is pushed, so LoopCount inside the call
// still counts the caller's loops, and $! and traps are shared).
func (s *State) PushCall(name string, args []string) *State {
	child := &State{
		Scope:             s.Scope.Push(ScopeRegular),
		Frames:            s.Frames,
		Jobs:              s.Jobs,
		Traps:             s.Traps,
		Options:           s.Options,
		Params:            args,
		Name:              name,
		LastStatus:        s.LastStatus,
		LastBackgroundPid: s.LastBackgroundPid,
		ShellPid:          s.ShellPid,
	}
	return child
}
