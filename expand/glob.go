// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"posixsh.dev/sh/syntax"
)

// escapedGlobPhrase renders a split field as a pathname-expansion pattern:
// characters that were quoted, or that came from an expansion rather than
// literal source text, are escaped so they can never act as glob
// metacharacters themselves — only literal, unquoted '*'/'?'/'['/'\\' do.
func escapedGlobPhrase(p Phrase) (pattern string, hasGlob bool) {
	var buf strings.Builder
	for _, c := range p {
		if c.IsQuoting {
			continue
		}
		if c.IsQuoted || c.Origin != OriginLiteral {
			buf.WriteString(syntax.QuotePattern(string(c.Char)))
			continue
		}
		buf.WriteRune(c.Char)
	}
	s := buf.String()
	return s, syntax.HasPattern(s)
}

var rxGlobStar = regexp.MustCompile(".*")

// globPattern expands a single slash-separated pathname pattern against
// readDir (the host filesystem if nil), the same level-by-level algorithm
// as the teacher's glob/globDir (expand/expand.go), generalized to let
// tests substitute a deterministic directory lister via cfg.ReadDir.
func globPattern(pattern string, globStar bool, readDir func(string) ([]string, error)) []string {
	if readDir == nil {
		readDir = hostReadDir
	}
	parts := strings.Split(pattern, string(filepath.Separator))
	matches := []string{"."}
	if filepath.IsAbs(pattern) {
		if parts[0] == "" {
			matches[0] = string(filepath.Separator)
		} else {
			matches[0] = parts[0] + string(filepath.Separator)
		}
		parts = parts[1:]
	}
	for _, part := range parts {
		if part == "**" && globStar {
			for i := range matches {
				matches[i] += string(filepath.Separator)
			}
			latest := matches
			for {
				var newMatches []string
				for _, dir := range latest {
					newMatches = globDir(dir, rxGlobStar, readDir, newMatches)
				}
				if len(newMatches) == 0 {
					break
				}
				matches = append(matches, newMatches...)
				latest = newMatches
			}
			continue
		}
		expr, err := syntax.TranslatePattern(part, true)
		if err != nil {
			return nil
		}
		rx := regexp.MustCompile("^" + expr + "$")
		var newMatches []string
		for _, dir := range matches {
			newMatches = globDir(dir, rx, readDir, newMatches)
		}
		matches = newMatches
	}
	return matches
}

func globDir(dir string, rx *regexp.Regexp, readDir func(string) ([]string, error), matches []string) []string {
	names, err := readDir(dir)
	if err != nil {
		return matches
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasPrefix(rx.String(), `^\.`) && strings.HasPrefix(name, ".") {
			continue
		}
		if rx.MatchString(name) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches
}

func hostReadDir(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}
