// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package system

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Virtual is a deterministic, in-memory [System] for tests: it fabricates
// pids, a process-group table, and signal dispositions without touching the
// real kernel. It corresponds to the "virtual system" of spec §9's note on
// process identity — every forked or started process is really just another
// entry in this struct's tables, so job control and trap delivery can be
// tested without races or root privileges.
//
// Virtual does not attempt to virtualize the filesystem or real file
// descriptors: Open/Pipe/Fstat and friends delegate to the host OS, since
// spec.md's testable properties (§8) concern expansion and execution
// semantics, not sandboxing. Only process and signal identity — the part
// that differs unpredictably between OSes and requires root to test for
// real (process groups, job control, signals) — is virtualized.
type Virtual struct {
	mu       sync.Mutex
	nextPid  int
	pgrp     map[int]int // pid -> pgid
	sid      map[int]int // pid -> sid
	procs    map[int]*virtProcess
	fgPgid   int
	disp     map[int]Disposition
	caught   []Signal
	rlimits  map[Resource]Rlimit
	umaskVal int
	wd       string
}

var _ System = (*Virtual)(nil)

// NewVirtual returns a fresh deterministic [System], rooted at the real
// process's pid so nested virtual shells still look plausible in traces.
func NewVirtual() *Virtual {
	wd, _ := os.Getwd()
	pid := os.Getpid()
	v := &Virtual{
		nextPid: pid + 1,
		pgrp:    map[int]int{pid: pid},
		sid:     map[int]int{pid: pid},
		procs:   map[int]*virtProcess{},
		fgPgid:  pid,
		disp:    map[int]Disposition{},
		rlimits: map[Resource]Rlimit{},
		wd:      wd,
	}
	return v
}

type virtProcess struct {
	pid     int
	done    chan WaitStatus
	status  *WaitStatus
	mu      sync.Mutex
}

func (p *virtProcess) Pid() int { return p.pid }

func (p *virtProcess) Signal(sig Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != nil {
		return fmt.Errorf("system: process %d already exited", p.pid)
	}
	if sig.Name == "KILL" || sig.Name == "TERM" {
		st := WaitStatus{Signaled: true, Signal: sig, ExitStatus: 128 + sig.Num}
		p.status = &st
		close(p.done)
	}
	return nil
}

func (p *virtProcess) Wait(block bool) (WaitStatus, *WaitStatus, error) {
	p.mu.Lock()
	if p.status != nil {
		st := *p.status
		p.mu.Unlock()
		return st, &st, nil
	}
	p.mu.Unlock()
	if !block {
		return WaitStatus{}, nil, nil
	}
	st := <-p.done
	return st, &st, nil
}

func (v *Virtual) allocPid() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	pid := v.nextPid
	v.nextPid++
	return pid
}

func (v *Virtual) Pipe() (*os.File, *os.File, error) { return os.Pipe() }

func (v *Virtual) Dup(f *os.File) (*os.File, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

func (v *Virtual) Dup2(oldf, newf *os.File) error {
	return unix.Dup2(int(oldf.Fd()), int(newf.Fd()))
}

func (v *Virtual) Open(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func (v *Virtual) Close(f *os.File) error { return f.Close() }

func (v *Virtual) Fstat(f *os.File) (os.FileInfo, error) { return f.Stat() }

func (v *Virtual) FstatAt(dirFd *os.File, path string, followSymlinks bool) (os.FileInfo, error) {
	if followSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (v *Virtual) Lseek(f *os.File, offset int64, whence int) (int64, error) {
	return f.Seek(offset, whence)
}

func (v *Virtual) IsATTY(f *os.File) bool { return false } // never a tty under the virtual system

func (v *Virtual) Read(f *os.File, p []byte) (int, error)  { return f.Read(p) }
func (v *Virtual) Write(f *os.File, p []byte) (int, error) { return f.Write(p) }

func (v *Virtual) Select(readers []*os.File, timeout time.Duration) ([]*os.File, error) {
	// Deterministic tests poll rather than block indefinitely: report
	// every reader that is a named pipe; if none is, report none when
	// timeout is 0 and all of them otherwise, at once and without waiting,
	// matching the virtual system's "don't actually sleep on the host
	// scheduler" philosophy.
	var ready []*os.File
	for _, f := range readers {
		if buffered(f) {
			ready = append(ready, f)
		}
	}
	if len(ready) > 0 || timeout == 0 {
		return ready, nil
	}
	return readers, nil
}

func buffered(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeNamedPipe != 0
}

func (v *Virtual) Getpid() int { return os.Getpid() }
func (v *Virtual) Getppid() int { return os.Getppid() }

func (v *Virtual) Getpgrp() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pgrp[os.Getpid()]
}

func (v *Virtual) Setpgid(pid, pgid int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pid == 0 {
		pid = os.Getpid()
	}
	if pgid == 0 {
		pgid = pid
	}
	v.pgrp[pid] = pgid
	return nil
}

func (v *Virtual) Getsid(pid int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pid == 0 {
		pid = os.Getpid()
	}
	if sid, ok := v.sid[pid]; ok {
		return sid, nil
	}
	return 0, fmt.Errorf("system: no such process %d", pid)
}

func (v *Virtual) Tcgetpgrp(fd *os.File) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fgPgid, nil
}

func (v *Virtual) Tcsetpgrp(fd *os.File, pgid int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fgPgid = pgid
	return nil
}

func (v *Virtual) Kill(pid int, sig Signal) error {
	v.mu.Lock()
	p := v.procs[pid]
	v.mu.Unlock()
	if p == nil {
		return fmt.Errorf("system: no such process %d", pid)
	}
	return p.Signal(sig)
}

func (v *Virtual) Raise(sig Signal) error {
	v.mu.Lock()
	v.caught = append(v.caught, sig)
	v.mu.Unlock()
	return nil
}

func (v *Virtual) SigMask(how SigHow, set []Signal) ([]Signal, error) {
	// The virtual system never actually blocks delivery (there is no real
	// asynchronous delivery to block); it only has to report a consistent
	// mask back, which traps use to decide whether to defer themselves.
	return nil, nil
}

func (v *Virtual) SigAction(sig Signal, disp Disposition) (Disposition, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.disp[sig.Num]
	v.disp[sig.Num] = disp
	return old, nil
}

func (v *Virtual) Caught() []Signal {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.caught
	v.caught = nil
	return out
}

func (v *Virtual) StartProcess(prog string, args []string, attr *ProcAttr) (Process, error) {
	pid := v.allocPid()
	p := &virtProcess{pid: pid, done: make(chan WaitStatus, 1)}
	v.mu.Lock()
	v.procs[pid] = p
	pgid := pid
	if attr != nil && attr.Pgid != 0 {
		pgid = attr.Pgid
	}
	v.pgrp[pid] = pgid
	v.sid[pid] = v.sid[os.Getpid()]
	v.mu.Unlock()

	go func() {
		var stdout, stderr io.Writer = os.Stdout, os.Stderr
		if attr != nil {
			if attr.Stdout != nil {
				stdout = attr.Stdout
			}
			if attr.Stderr != nil {
				stderr = attr.Stderr
			}
		}
		fmt.Fprintf(stderr, "posh: %s: virtual system cannot exec real binaries\n", prog)
		_ = stdout
		st := WaitStatus{Exited: true, ExitStatus: 127}
		p.mu.Lock()
		p.status = &st
		p.mu.Unlock()
		p.done <- st
	}()
	return p, nil
}

func (v *Virtual) Fork(attr *ProcAttr, task ChildTask) Process {
	pid := v.allocPid()
	p := &virtProcess{pid: pid, done: make(chan WaitStatus, 1)}
	v.mu.Lock()
	v.procs[pid] = p
	pgid := pid
	if attr != nil && attr.Pgid != 0 {
		pgid = attr.Pgid
	}
	v.pgrp[pid] = pgid
	v.sid[pid] = v.sid[os.Getpid()]
	v.mu.Unlock()

	go func() {
		code := task()
		st := WaitStatus{Exited: true, ExitStatus: code}
		p.mu.Lock()
		p.status = &st
		p.mu.Unlock()
		p.done <- st
	}()
	return p
}

func (v *Virtual) Wait(pid int, block bool) (Process, WaitStatus, error) {
	v.mu.Lock()
	p := v.procs[pid]
	v.mu.Unlock()
	if p == nil {
		return nil, WaitStatus{}, fmt.Errorf("system: no such process %d", pid)
	}
	st, ready, err := p.Wait(block)
	if ready == nil {
		return p, WaitStatus{}, nil
	}
	return p, st, err
}

func (v *Virtual) Exec(path string, args, env []string) error {
	return fmt.Errorf("system: virtual system cannot exec %q in place", path)
}

func (v *Virtual) Exit(code int) { panic(virtualExit{code}) }

// virtualExit is recovered by the harness driving a Virtual system so that
// the `exit` built-in doesn't tear down the whole test binary.
type virtualExit struct{ Code int }

func (v *Virtual) GetRlimit(res Resource) (Rlimit, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if lim, ok := v.rlimits[res]; ok {
		return lim, nil
	}
	return Rlimit{Cur: -1, Max: -1}, nil
}

func (v *Virtual) SetRlimit(res Resource, lim Rlimit) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rlimits[res] = lim
	return nil
}

func (v *Virtual) Times() (Times, error) { return Times{}, nil }

func (v *Virtual) Umask(mask int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.umaskVal
	v.umaskVal = mask & 0o777
	return old
}

func (v *Virtual) Getwd() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wd, nil
}

func (v *Virtual) Chdir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("system: %s: not a directory", path)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if path[0] != '/' {
		path = v.wd + "/" + path
	}
	v.wd = path
	return nil
}

// pids returns the known virtual process ids sorted, used by job-listing
// built-ins when running against the virtual system in tests.
func (v *Virtual) pids() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]int, 0, len(v.procs))
	for pid := range v.procs {
		out = append(out, pid)
	}
	sort.Ints(out)
	return out
}
