// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os"
	"path/filepath"
	"strings"

	"posixsh.dev/sh/syntax"
)

// Fields expands a list of words the way a simple command's arguments
// are expanded: brace expansion, then per-word field splitting and
// pathname expansion, in that order, exactly as the teacher's
// Context.ExpandFields (expand/expand.go) did — rebuilt on top of the
// Phrase/Config pipeline so splitting can tell literal IFS characters
// apart from ones introduced by expansion.
func Fields(cfg *Config, words ...*syntax.Word) ([]string, error) {
	cfg = ensureConfig(cfg)
	cfg.prepareIFS()

	dir := cfg.envGet("PWD")
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}

	var out []string
	for _, word := range words {
		for _, bword := range Braces(word) {
			phrase, err := wordPhrase(cfg, bword.Parts, false)
			if err != nil {
				return nil, err
			}
			for _, field := range splitFields(cfg, phrase) {
				matches, err := globField(cfg, field, dir)
				if err != nil {
					return nil, err
				}
				if matches == nil {
					out = append(out, field.QuoteRemoved())
					continue
				}
				out = append(out, matches...)
			}
		}
	}
	return out, nil
}

func globField(cfg *Config, field Phrase, dir string) ([]string, error) {
	if cfg.NoGlob {
		return nil, nil
	}
	path, doGlob := escapedGlobPhrase(field)
	if !doGlob {
		return nil, nil
	}
	abs := filepath.IsAbs(path)
	full := path
	if !abs {
		full = filepath.Join(dir, path)
	}
	matches := globPattern(full, cfg.GlobStar, cfg.ReadDir)
	if len(matches) == 0 {
		return nil, nil
	}
	if !abs {
		for i, m := range matches {
			endSep := strings.HasSuffix(m, string(filepath.Separator))
			rel, err := filepath.Rel(dir, m)
			if err != nil {
				rel = m
			}
			if endSep {
				rel += string(filepath.Separator)
			}
			matches[i] = rel
		}
	}
	return matches, nil
}

// ReadFields splits s on IFS the way the `read` built-in does: up to n
// fields (n == -1 for unlimited, n == 1 keeps leading/trailing IFS
// attached to the single field), honoring backslash-escaped IFS
// characters unless raw is set. This operates on plain already-literal
// text read from a stream, not on a Phrase, since there's no expansion
// (and so no quoting) to track here — ported unchanged in algorithm from
// the teacher's Context.ReadFields (expand/expand.go).
func ReadFields(cfg *Config, s string, n int, raw bool) []string {
	cfg = ensureConfig(cfg)
	cfg.prepareIFS()
	type pos struct{ start, end int }
	var fpos []pos

	runes := make([]rune, 0, len(s))
	infield := false
	esc := false
	for _, r := range s {
		if infield {
			if cfg.ifsRune(r) && (raw || !esc) {
				fpos[len(fpos)-1].end = len(runes)
				infield = false
			}
		} else if !cfg.ifsRune(r) && (raw || !esc) {
			fpos = append(fpos, pos{start: len(runes), end: -1})
			infield = true
		}
		if r == '\\' {
			if raw || esc {
				runes = append(runes, r)
			}
			esc = !esc
			continue
		}
		runes = append(runes, r)
		esc = false
	}
	if len(fpos) == 0 {
		return nil
	}
	if infield {
		fpos[len(fpos)-1].end = len(runes)
	}

	switch {
	case n == 1:
		fpos[0].start, fpos[0].end = 0, len(runes)
		fpos = fpos[:1]
	case n != -1 && n < len(fpos):
		fpos[n-1].end = fpos[len(fpos)-1].end
		fpos = fpos[:n]
	}

	fields := make([]string, len(fpos))
	for i, p := range fpos {
		fields[i] = string(runes[p.start:p.end])
	}
	return fields
}
