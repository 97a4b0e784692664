// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package system

import "sort"

// signalNames covers the POSIX-mandated set; a shell only needs names for
// signals it can trap or send by name (spec §6.3's kill/trap built-ins).
// The numbering matches the usual unix signal numbers so that toOSSignal can
// hand them straight to syscall.Signal on unix targets; on other platforms
// the numbers are only ever used as map keys within this package.
var signalNames = map[int]string{
	1:  "HUP",
	2:  "INT",
	3:  "QUIT",
	4:  "ILL",
	5:  "TRAP",
	6:  "ABRT",
	7:  "BUS",
	8:  "FPE",
	9:  "KILL",
	10: "USR1",
	11: "SEGV",
	12: "USR2",
	13: "PIPE",
	14: "ALRM",
	15: "TERM",
	17: "CHLD",
	18: "CONT",
	19: "STOP",
	20: "TSTP",
	21: "TTIN",
	22: "TTOU",
	23: "URG",
	24: "XCPU",
	25: "XFSZ",
	28: "WINCH",
}

// SignalByName resolves a bare POSIX signal name, as accepted by the trap
// and kill built-ins (spec §6.3), with or without a leading "SIG".
func SignalByName(name string) (Signal, bool) {
	if len(name) > 3 && name[:3] == "SIG" {
		name = name[3:]
	}
	for num, n := range signalNames {
		if n == name {
			return Signal{Num: num, Name: n}, true
		}
	}
	return Signal{}, false
}

// SignalByNum resolves a signal number to its portable [Signal] value.
func SignalByNum(num int) Signal {
	if name, ok := signalNames[num]; ok {
		return Signal{Num: num, Name: name}
	}
	return Signal{Num: num, Name: "UNKNOWN"}
}

// CatchableSignalNames lists every signal name known to the shell, sorted by
// signal number, for `trap -l` and `kill -l`.
func CatchableSignalNames() []string {
	nums := make([]int, 0, len(signalNames))
	for num := range signalNames {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	out := make([]string, len(nums))
	for i, num := range nums {
		out[i] = signalNames[num]
	}
	return out
}
