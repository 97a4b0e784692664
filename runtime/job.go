// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package runtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// JobState is the lifecycle state of a Job, per spec §3.9.
type JobState int

const (
	JobRunning JobState = iota
	JobStopped
	JobDone
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	case JobDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job is one entry of the job table, per spec §3.9: a process group started
// for a pipeline or background command, tracked so `jobs`, `fg`, `bg`, and
// `wait` can address it later.
type Job struct {
	ID      int // 1-based job number, as printed by `jobs`
	Pgid    int
	Command string // the source text shown by `jobs`
	State   JobState
	Status  ExitStatus

	// Notified is set once a state change has been reported to the user
	// (spec §3.9's "notify" flag, used by `set -b` / the default
	// end-of-command-line report).
	Notified bool
}

// JobTable is the shell's job list, per spec §3.9. Jobs are never removed
// on completion until reaped by `wait` or superseded; a Done job stays
// listed (and reported once) so `jobs` and `$?` can see its final status.
type JobTable struct {
	jobs    []*Job
	nextID  int
	current int // job ID of the "current" job (%+), 0 if none
	prev    int // job ID of the "previous" job (%-), 0 if none
}

// NewJobTable returns an empty job table.
func NewJobTable() *JobTable {
	return &JobTable{nextID: 1}
}

// Add registers a new job and returns it.
func (t *JobTable) Add(pgid int, command string) *Job {
	j := &Job{ID: t.nextID, Pgid: pgid, Command: command, State: JobRunning}
	t.nextID++
	t.jobs = append(t.jobs, j)
	t.prev = t.current
	t.current = j.ID
	return j
}

// Remove deletes a job from the table entirely (used once `wait` has
// reaped a Done job and reported it).
func (t *JobTable) Remove(id int) {
	for i, j := range t.jobs {
		if j.ID == id {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			break
		}
	}
	if t.current == id {
		t.current = t.prev
		t.prev = 0
	} else if t.prev == id {
		t.prev = 0
	}
}

// All returns the jobs in table order.
func (t *JobTable) All() []*Job {
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByPgid finds the job owning the given process group, if any.
func (t *JobTable) ByPgid(pgid int) (*Job, bool) {
	for _, j := range t.jobs {
		if j.Pgid == pgid {
			return j, true
		}
	}
	return nil, false
}

// Resolve parses a job-control spec string, per original_source's
// yash-env/src/job/id.rs grammar: "%+"/"%%" (current job), "%-" (previous
// job), "%N" (job number N), "%name" or "%?name" (prefix or substring match
// on the job's command text). Bare "%" is treated as "%+".
func (t *JobTable) Resolve(spec string) (*Job, error) {
	spec = strings.TrimPrefix(spec, "%")
	switch {
	case spec == "" || spec == "+" || spec == "%":
		return t.byID(t.current)
	case spec == "-":
		return t.byID(t.prev)
	}
	if n, err := strconv.Atoi(spec); err == nil {
		return t.byID(n)
	}
	if strings.HasPrefix(spec, "?") {
		needle := spec[1:]
		var match *Job
		for _, j := range t.jobs {
			if strings.Contains(j.Command, needle) {
				if match != nil {
					return nil, fmt.Errorf("runtime: %s: ambiguous job spec", spec)
				}
				match = j
			}
		}
		if match == nil {
			return nil, fmt.Errorf("runtime: %s: no such job", spec)
		}
		return match, nil
	}
	var match *Job
	for _, j := range t.jobs {
		if strings.HasPrefix(j.Command, spec) {
			if match != nil {
				return nil, fmt.Errorf("runtime: %s: ambiguous job spec", spec)
			}
			match = j
		}
	}
	if match == nil {
		return nil, fmt.Errorf("runtime: %s: no such job", spec)
	}
	return match, nil
}

func (t *JobTable) byID(id int) (*Job, error) {
	for _, j := range t.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("runtime: %%%d: no such job", id)
}

// Marker returns the "+"/"-"/" " column `jobs` prints before a job's number.
func (t *JobTable) Marker(id int) string {
	switch id {
	case t.current:
		return "+"
	case t.prev:
		return "-"
	default:
		return " "
	}
}
