// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package system is the portable surface over the operating system that the
// rest of the engine depends on: file descriptors, signals, wait, exec,
// fstat, pipes, time, rlimits. It corresponds to component A of the engine
// design: everything else in this module reaches the OS only through the
// [System] interface, so that a deterministic [Virtual] implementation can
// stand in for tests.
//
// Go programs cannot safely call fork(2) and keep running Go code in the
// child: the runtime's goroutine scheduler, GC, and signal handling do not
// survive a bare fork. So unlike a C shell, [System.Fork] does not wrap
// fork(2); it runs the child task cooperatively on a goroutine inside the
// same OS process, handing it a private [Process] (its own pid, fd table,
// and signal state). Real child processes — external utilities — are always
// started with [System.StartProcess], which does use the OS's real
// fork+exec via os/exec. This mirrors the teacher's own Runner, which uses
// goroutines for subshells and pipelines and os/exec only for external
// commands; see DESIGN.md.
package system

import (
	"io"
	"os"
	"time"
)

// Signal identifies a POSIX signal by its portable name and number.
type Signal struct {
	Num  int
	Name string // e.g. "INT", without the "SIG" prefix
}

func (s Signal) String() string { return s.Name }

// WaitStatus reports why a process changed state, mirroring the variants of
// the Job process-state in spec §3.9.
type WaitStatus struct {
	Exited     bool
	ExitStatus int
	Signaled   bool
	Signal     Signal
	CoreDumped bool
	Stopped    bool
	StopSignal Signal
	Continued  bool
}

// Rlimit is a resource limit pair, as used by getrlimit/setrlimit.
type Rlimit struct {
	Cur, Max int64 // RLIM_INFINITY is represented as -1
}

// Resource identifies an rlimit resource (RLIMIT_CPU, RLIMIT_NOFILE, ...).
type Resource int

const (
	ResourceCPU Resource = iota
	ResourceFileSize
	ResourceData
	ResourceStack
	ResourceCore
	ResourceRSS
	ResourceNoFile
	ResourceAS
	ResourceNProc
)

// Times reports process and children CPU usage, as returned by times(2).
type Times struct {
	UserTime, SystemTime           time.Duration
	ChildUserTime, ChildSystemTime time.Duration
}

// SigHow selects how SigMask changes the blocked-signal set.
type SigHow int

const (
	SigBlock SigHow = iota
	SigUnblock
	SigSetMask
)

// Disposition is what should happen when a signal arrives, mirroring the
// trap disposition variants of spec §3.10 at the OS level.
type Disposition int

const (
	DispDefault Disposition = iota
	DispIgnore
	DispCatch // deliver to the System's signal channel instead of acting
)

// ProcAttr configures a process started with StartProcess.
type ProcAttr struct {
	Dir       string
	Env       []string
	Stdin     *os.File
	Stdout    *os.File
	Stderr    *os.File
	Pgid      int  // 0 starts a new process group with pid as leader
	Foreground bool // attach the new process group to the controlling terminal
}

// Process is a started external process, or a cooperative internal one
// created by Fork.
type Process interface {
	Pid() int
	Signal(sig Signal) error
	Wait(block bool) (WaitStatus, *WaitStatus, error) // (status, nil, nil) if still running and !block
}

// ChildTask is shell-internal work to run as a cooperative "child": a
// subshell body, a pipeline element, or a command substitution. It receives
// its own private file-descriptor view and returns the exit status the
// child should report.
type ChildTask func() int

// System is the full portable surface described in spec §4.A.
type System interface {
	// File descriptors and I/O.
	Pipe() (r, w *os.File, err error)
	Dup(f *os.File) (*os.File, error)
	Dup2(oldf, newf *os.File) error
	Open(path string, flag int, perm os.FileMode) (*os.File, error)
	Close(f *os.File) error
	Fstat(f *os.File) (os.FileInfo, error)
	FstatAt(dirFd *os.File, path string, followSymlinks bool) (os.FileInfo, error)
	Lseek(f *os.File, offset int64, whence int) (int64, error)
	IsATTY(f *os.File) bool
	Read(f *os.File, p []byte) (int, error)
	Write(f *os.File, p []byte) (int, error)
	Select(readers []*os.File, timeout time.Duration) ([]*os.File, error)

	// Process identity.
	Getpid() int
	Getppid() int
	Getpgrp() int
	Setpgid(pid, pgid int) error
	Getsid(pid int) (int, error)
	Tcgetpgrp(fd *os.File) (int, error)
	Tcsetpgrp(fd *os.File, pgid int) error

	// Signals.
	Kill(pid int, sig Signal) error
	Raise(sig Signal) error
	SigMask(how SigHow, set []Signal) (old []Signal, err error)
	SigAction(sig Signal, disp Disposition) (old Disposition, err error)
	// Caught delivers signals whose disposition is DispCatch, non-blocking.
	Caught() []Signal

	// Process creation and reaping.
	StartProcess(prog string, args []string, attr *ProcAttr) (Process, error)
	Fork(attr *ProcAttr, task ChildTask) Process
	Wait(pid int, block bool) (Process, WaitStatus, error)

	Exec(path string, args, env []string) error // replaces the current process image (unix only: never returns on success)
	Exit(code int)

	GetRlimit(r Resource) (Rlimit, error)
	SetRlimit(r Resource, lim Rlimit) error
	Times() (Times, error)
	Umask(mask int) int

	Getwd() (string, error)
	Chdir(path string) error
}

// Writer/Reader aliases kept for callers that only need I/O, not the full
// [System] surface (e.g. redirection targets).
type ReadWriteCloser = io.ReadWriteCloser
