// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package system

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func toOSSignal(sig Signal) os.Signal {
	return syscall.Signal(sig.Num)
}

func addSignal(set *unix.Sigset_t, sig syscall.Signal) {
	// Sigset_t is a fixed-size bitmask; golang.org/x/sys exposes no
	// direct setter, so build it the way the kernel expects: bit (n-1).
	word := (sig - 1) / 32
	bit := uint32(1) << (uint(sig-1) % 32)
	switch word {
	case 0:
		set.Val[0] |= uint32(bit)
	default:
		idx := int(word)
		if idx < len(set.Val) {
			set.Val[idx] |= uint32(bit)
		}
	}
}

func signalsFromSet(set *unix.Sigset_t) []Signal {
	var out []Signal
	for num := 1; num < 32*len(set.Val); num++ {
		word := (num - 1) / 32
		bit := uint32(1) << (uint(num-1) % 32)
		if set.Val[word]&bit != 0 {
			out = append(out, SignalByNum(num))
		}
	}
	return out
}

func fromUnixWaitStatus(ws unix.WaitStatus) WaitStatus {
	switch {
	case ws.Exited():
		return WaitStatus{Exited: true, ExitStatus: ws.ExitStatus()}
	case ws.Signaled():
		return WaitStatus{
			Signaled:   true,
			Signal:     SignalByNum(int(ws.Signal())),
			CoreDumped: ws.CoreDump(),
			ExitStatus: 128 + int(ws.Signal()),
		}
	case ws.Stopped():
		return WaitStatus{Stopped: true, StopSignal: SignalByNum(int(ws.StopSignal()))}
	case ws.Continued():
		return WaitStatus{Continued: true}
	}
	return WaitStatus{}
}

func waitStatusFromErr(err error) WaitStatus {
	if err == nil {
		return WaitStatus{Exited: true, ExitStatus: 0}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			return fromUnixWaitStatus(unix.WaitStatus(ws))
		}
		return WaitStatus{Exited: true, ExitStatus: ee.ExitCode()}
	}
	return WaitStatus{Exited: true, ExitStatus: 1}
}

func durationFromTimeval(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}

func clampRlim(v uint64) int64 {
	if v == unix.RLIM_INFINITY {
		return -1
	}
	return int64(v)
}

func unclampRlim(v int64) uint64 {
	if v < 0 {
		return unix.RLIM_INFINITY
	}
	return uint64(v)
}
