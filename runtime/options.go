// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package runtime

// Option identifies one of the shell's POSIX toggles, set via `set -o name`
// / `set -x` or the cmd/posh startup flags of spec §6.1.
type Option int

const (
	OptAllExport Option = iota // -a
	OptNotify                  // -b
	OptNoClobber               // -C
	OptErrExit                 // -e
	OptNoGlob                  // -f
	OptHashAll                 // -h
	OptMonitor                 // -m
	OptNoExec                  // -n
	OptNoUnset                 // -u
	OptVerbose                 // -v
	OptXTrace                  // -x
	OptIgnoreEOF
	OptNoLog
	OptVi
	OptEmacs
	OptPipeFail
	numOptions
)

var optionLetters = map[Option]byte{
	OptAllExport: 'a',
	OptNotify:    'b',
	OptNoClobber: 'C',
	OptErrExit:   'e',
	OptNoGlob:    'f',
	OptHashAll:   'h',
	OptMonitor:   'm',
	OptNoExec:    'n',
	OptNoUnset:   'u',
	OptVerbose:   'v',
	OptXTrace:    'x',
}

var optionNames = map[Option]string{
	OptAllExport: "allexport",
	OptNotify:    "notify",
	OptNoClobber: "noclobber",
	OptErrExit:   "errexit",
	OptNoGlob:    "noglob",
	OptHashAll:   "hashall",
	OptMonitor:   "monitor",
	OptNoExec:    "noexec",
	OptNoUnset:   "nounset",
	OptVerbose:   "verbose",
	OptXTrace:    "xtrace",
	OptIgnoreEOF: "ignoreeof",
	OptNoLog:     "nolog",
	OptVi:        "vi",
	OptEmacs:     "emacs",
	OptPipeFail:  "pipefail",
}

// Letter returns the `set -X` single-letter flag for o, or 0 if it only has
// a long `-o name` form.
func (o Option) Letter() byte { return optionLetters[o] }

// Name returns the `set -o name` long form.
func (o Option) Name() string { return optionNames[o] }

// OptionByLetter resolves a `set` single-letter flag.
func OptionByLetter(c byte) (Option, bool) {
	for o, l := range optionLetters {
		if l == c {
			return o, true
		}
	}
	return 0, false
}

// OptionByName resolves a `set -o name` long flag.
func OptionByName(name string) (Option, bool) {
	for o, n := range optionNames {
		if n == name {
			return o, true
		}
	}
	return 0, false
}

// OptionSet is a fixed bitset of the shell's boolean options, per spec
// §3.13. It is a plain uint64 rather than a map or []bool slice because
// every option is known statically and there are few enough to fit in one
// machine word, matching how the teacher represents its own option flags
// on Runner (a handful of individual bool fields) generalized into one
// settable, iterable collection so `set -o` can list and toggle any of
// them uniformly.
type OptionSet uint64

// Get reports whether o is currently set.
func (s OptionSet) Get(o Option) bool { return s&(1<<uint(o)) != 0 }

// Set toggles o to val and returns the updated set.
func (s OptionSet) Set(o Option, val bool) OptionSet {
	if val {
		return s | (1 << uint(o))
	}
	return s &^ (1 << uint(o))
}

// Each calls fn once per known option, in a stable order.
func (s OptionSet) Each(fn func(o Option, val bool)) {
	for o := Option(0); o < numOptions; o++ {
		fn(o, s.Get(o))
	}
}
