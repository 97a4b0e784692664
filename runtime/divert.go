// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package runtime

import "fmt"

// ExitStatus is a POSIX shell exit status: the low 8 bits of a process's
// wait status, or the shell's own computed value for built-ins and compound
// commands.
type ExitStatus int

// Successful reports whether the status represents success (0).
func (e ExitStatus) Successful() bool { return e == 0 }

// DivertKind identifies which kind of non-local control transfer is in
// flight, ordered by severity per spec §3.12: a Divert produced deeper in
// the command tree always takes precedence over a weaker one produced
// alongside it (e.g. Exit wins over Return, Return wins over Break).
type DivertKind int

const (
	// DivertNone means normal, sequential control flow.
	DivertNone DivertKind = iota
	// DivertContinue unwinds to the nearest enclosing loop and starts its
	// next iteration.
	DivertContinue
	// DivertBreak unwinds out of the nearest N enclosing loops.
	DivertBreak
	// DivertReturn unwinds out of the current function call (or, at the
	// top level, the current sourced script).
	DivertReturn
	// DivertInterrupt unwinds all the way out, as if a fatal signal had
	// been received, without running the EXIT trap's normal path twice.
	DivertInterrupt
	// DivertExit unwinds all the way out of the shell.
	DivertExit
)

// severity ranks kinds so [Divert.Combine] can pick the more severe of two
// diverts produced by sibling commands (for instance, a `trap` action that
// itself calls `exit` while the command it interrupted was merely
// `break`-ing).
func (k DivertKind) severity() int { return int(k) }

func (k DivertKind) String() string {
	switch k {
	case DivertNone:
		return "none"
	case DivertContinue:
		return "continue"
	case DivertBreak:
		return "break"
	case DivertReturn:
		return "return"
	case DivertInterrupt:
		return "interrupt"
	case DivertExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Divert is the sum type of in-flight non-local control transfers, per
// spec §3.12. A nil *Divert (or one with Kind == DivertNone) means normal
// control flow; interp's statement-execution loop checks for a non-none
// Divert after every command and, if found, stops executing further
// commands at its level and returns it to its caller, which either handles
// it (a loop catching DivertBreak/DivertContinue) or propagates it further.
type Divert struct {
	kind DivertKind

	// Levels is the N argument to `break N` / `continue N`: how many
	// enclosing loops to unwind. Only meaningful for DivertBreak and
	// DivertContinue.
	Levels int

	// Status is the exit status to report once the divert is fully
	// resolved: `return`'s argument, `exit`'s argument, or the status in
	// effect when an interrupt or break occurred.
	Status ExitStatus
}

// NewDivert constructs a Divert of the given kind.
func NewDivert(kind DivertKind, status ExitStatus) *Divert {
	return &Divert{kind: kind, Status: status}
}

// NewLoopDivert constructs a DivertBreak or DivertContinue with its level
// count.
func NewLoopDivert(kind DivertKind, levels int, status ExitStatus) *Divert {
	if levels < 1 {
		levels = 1
	}
	return &Divert{kind: kind, Levels: levels, Status: status}
}

// Is reports whether d represents the given kind; a nil Divert is always
// DivertNone.
func (d *Divert) Is(kind DivertKind) bool {
	if d == nil {
		return kind == DivertNone
	}
	return d.kind == kind
}

// KindOf returns d's kind, treating nil as DivertNone.
func (d *Divert) KindOf() DivertKind {
	if d == nil {
		return DivertNone
	}
	return d.kind
}

// DescendLoop is called by a loop construct when it catches a propagating
// Divert: it decrements a DivertBreak/DivertContinue's level count and
// reports whether the loop should fully absorb it (stop propagating) or
// let it continue unwinding to an outer loop.
//
// Returns (nil, true) if the loop absorbs the divert and should act on it
// locally (break out, or continue to the next iteration). Returns a copy of
// d with one level fewer, and false, if the divert still has levels left and
// must keep propagating; any other kind of divert comes back as (d, false).
func (d *Divert) DescendLoop() (remaining *Divert, absorb bool) {
	if d == nil {
		return nil, false
	}
	switch d.kind {
	case DivertBreak, DivertContinue:
		if d.Levels <= 1 {
			return nil, true
		}
		return &Divert{kind: d.kind, Levels: d.Levels - 1, Status: d.Status}, false
	default:
		return d, false
	}
}

// Combine returns whichever of d and other is more severe, per the
// ordering DivertExit > DivertInterrupt > DivertReturn > DivertBreak >
// DivertContinue > DivertNone. Used when a trap action runs partway
// through a command and both the interrupted command and the trap action
// want to propagate a divert.
func Combine(d, other *Divert) *Divert {
	if other.KindOf().severity() > d.KindOf().severity() {
		return other
	}
	return d
}

func (d *Divert) String() string {
	if d == nil {
		return "none"
	}
	return fmt.Sprintf("%s(levels=%d,status=%d)", d.kind, d.Levels, d.Status)
}
