// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build !unix

package system

import (
	"fmt"
	"os"
	"time"
)

// Real is a minimal, non-unix stand-in for the host [System]. Job control,
// signals, and rlimits have no meaningful mapping outside POSIX, so those
// methods report "unsupported" the way the teacher's os_notunix.go does for
// access/mkfifo, while the filesystem and process-start surface still works
// through the Go standard library.
type Real struct{}

var _ System = (*Real)(nil)

// NewReal returns the non-unix [System]: see the [Real] doc comment for what
// it cannot do.
func NewReal() *Real { return &Real{} }

func (r *Real) Pipe() (*os.File, *os.File, error) { return os.Pipe() }

func (r *Real) Dup(f *os.File) (*os.File, error) {
	return nil, fmt.Errorf("system: Dup: unsupported")
}

func (r *Real) Dup2(oldf, newf *os.File) error {
	return fmt.Errorf("system: Dup2: unsupported")
}

func (r *Real) Open(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func (r *Real) Close(f *os.File) error { return f.Close() }

func (r *Real) Fstat(f *os.File) (os.FileInfo, error) { return f.Stat() }

func (r *Real) FstatAt(dirFd *os.File, path string, followSymlinks bool) (os.FileInfo, error) {
	if followSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (r *Real) Lseek(f *os.File, offset int64, whence int) (int64, error) {
	return f.Seek(offset, whence)
}

func (r *Real) IsATTY(f *os.File) bool { return false }

func (r *Real) Read(f *os.File, p []byte) (int, error)  { return f.Read(p) }
func (r *Real) Write(f *os.File, p []byte) (int, error) { return f.Write(p) }

func (r *Real) Select(readers []*os.File, timeout time.Duration) ([]*os.File, error) {
	return readers, nil
}

func (r *Real) Getpid() int  { return os.Getpid() }
func (r *Real) Getppid() int { return os.Getppid() }
func (r *Real) Getpgrp() int { return os.Getpid() }

func (r *Real) Setpgid(pid, pgid int) error { return fmt.Errorf("system: Setpgid: unsupported") }

func (r *Real) Getsid(pid int) (int, error) {
	return 0, fmt.Errorf("system: Getsid: unsupported")
}

func (r *Real) Tcgetpgrp(fd *os.File) (int, error) {
	return 0, fmt.Errorf("system: Tcgetpgrp: unsupported")
}

func (r *Real) Tcsetpgrp(fd *os.File, pgid int) error {
	return fmt.Errorf("system: Tcsetpgrp: unsupported")
}

func (r *Real) Kill(pid int, sig Signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func (r *Real) Raise(sig Signal) error { return fmt.Errorf("system: Raise: unsupported") }

func (r *Real) SigMask(how SigHow, set []Signal) ([]Signal, error) {
	return nil, fmt.Errorf("system: SigMask: unsupported")
}

func (r *Real) SigAction(sig Signal, disp Disposition) (Disposition, error) {
	return DispDefault, fmt.Errorf("system: SigAction: unsupported")
}

func (r *Real) Caught() []Signal { return nil }

func (r *Real) StartProcess(prog string, args []string, attr *ProcAttr) (Process, error) {
	return nil, fmt.Errorf("system: StartProcess: unsupported on this platform")
}

func (r *Real) Fork(attr *ProcAttr, task ChildTask) Process {
	return nil
}

func (r *Real) Wait(pid int, block bool) (Process, WaitStatus, error) {
	return nil, WaitStatus{}, fmt.Errorf("system: Wait: unsupported")
}

func (r *Real) Exec(path string, args, env []string) error {
	return fmt.Errorf("system: Exec: unsupported on this platform")
}

func (r *Real) Exit(code int) { os.Exit(code) }

func (r *Real) GetRlimit(res Resource) (Rlimit, error) {
	return Rlimit{Cur: -1, Max: -1}, nil
}

func (r *Real) SetRlimit(res Resource, lim Rlimit) error {
	return fmt.Errorf("system: SetRlimit: unsupported on this platform")
}

func (r *Real) Times() (Times, error) { return Times{}, nil }

func (r *Real) Umask(mask int) int { return 0 }

func (r *Real) Getwd() (string, error) { return os.Getwd() }

func (r *Real) Chdir(path string) error { return os.Chdir(path) }
