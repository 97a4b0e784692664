// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"posixsh.dev/sh/syntax"
)

// paramExpPhrase expands a parameter expansion node into a Phrase, tagging
// every produced character with [OriginSoftExpansion] (or
// [OriginHardExpansion] for an unquoted "$@", which always splits) so the
// splitting stage downstream can tell expansion output apart from literal
// source text, per spec §4.C.2/§4.C.4. This covers exactly the POSIX
// parameter-expansion surface the parser can produce (length, the eight
// :-/:=/:?/:+ substitution forms, and #/##/%/%% trimming); the bash-only
// array indexing, slicing, search-replace, case conversion and "${!...}"
// forms this teacher's newer syntax nodes otherwise carry are never
// produced while parsing in PosixConformant mode, so they have no
// counterpart here.
func paramExpPhrase(cfg *Config, pe *syntax.ParamExp, quoted bool) (Phrase, error) {
	name := pe.Param.Value
	arrayAll := name == "@"

	var vr Variable
	switch name {
	case "LINENO":
		line := 0
		if cfg.LineOf != nil {
			line = cfg.LineOf(pe)
		}
		vr = Variable{Set: true, Kind: String, Str: strconv.Itoa(line)}
	default:
		vr = cfg.Env.Get(name)
	}
	set := vr.IsSet()

	substForm := false
	if pe.Exp != nil {
		switch pe.Exp.Op {
		case syntax.SubstAdd, syntax.SubstColAdd, syntax.SubstSub, syntax.SubstColSub,
			syntax.SubstQuest, syntax.SubstColQuest, syntax.SubstAssgn, syntax.SubstColAssgn:
			substForm = true
		}
	}
	if cfg.NoUnset && !set && !substForm && name != "@" && name != "*" {
		return nil, UnsetParameterError{Expr: pe}
	}

	str, err := varStr(cfg, vr, 0)
	if err != nil {
		return nil, err
	}

	elems := []string{str}
	if name == "@" || name == "*" {
		elems = vr.List
	}

	switch {
	case pe.Length:
		n := utf8.RuneCountInString(str)
		if name == "@" || name == "*" {
			n = len(elems)
		}
		str = strconv.Itoa(n)
	case pe.Exp != nil:
		str, set, err = substOp(cfg, pe, name, str, set)
		if err != nil {
			return nil, err
		}
	}

	// An unquoted or quoted "$@" with more than one positional parameter
	// becomes one field per element, never joined, regardless of IFS; a
	// lone or empty "$@" falls through to the ordinary single-str path.
	if arrayAll && !pe.Length && pe.Exp == nil && len(elems) != 1 {
		return arrayPhrase(elems, quoted), nil
	}

	origin := OriginSoftExpansion
	if arrayAll && !quoted {
		origin = OriginHardExpansion
	}
	return Expansion(str, origin, quoted), nil
}

// substOp implements the `${name<op>word}` family: the POSIX default,
// assign, error and alternate substitutions, plus `#`/`##`/`%`/`%%` prefix
// and suffix pattern trimming.
func substOp(cfg *Config, pe *syntax.ParamExp, name, str string, set bool) (string, bool, error) {
	arg, err := Literal(cfg, pe.Exp.Word)
	if err != nil {
		return "", set, err
	}
	switch op := pe.Exp.Op; op {
	case syntax.SubstColAdd:
		if str == "" {
			return str, set, nil
		}
		fallthrough
	case syntax.SubstAdd:
		if set {
			str = arg
		}
	case syntax.SubstSub:
		if set {
			return str, set, nil
		}
		fallthrough
	case syntax.SubstColSub:
		if str == "" {
			str = arg
		}
	case syntax.SubstQuest:
		if set {
			return str, set, nil
		}
		fallthrough
	case syntax.SubstColQuest:
		if str == "" {
			return "", set, UnsetParameterError{Expr: pe, Message: arg}
		}
	case syntax.SubstAssgn:
		if set {
			return str, set, nil
		}
		fallthrough
	case syntax.SubstColAssgn:
		if str == "" {
			if err := cfg.envSet(name, arg); err != nil {
				return "", set, err
			}
			str = arg
			set = true
		}
	case syntax.RemSmallPrefix, syntax.RemLargePrefix,
		syntax.RemSmallSuffix, syntax.RemLargeSuffix:
		suffix := op == syntax.RemSmallSuffix || op == syntax.RemLargeSuffix
		large := op == syntax.RemLargePrefix || op == syntax.RemLargeSuffix
		str = removePattern(str, arg, suffix, large)
	default:
		return "", set, fmt.Errorf("expand: unsupported parameter operation")
	}
	return str, set, nil
}

func removePattern(str, pattern string, fromEnd, greedy bool) string {
	expr, err := syntax.TranslatePattern(pattern, greedy)
	if err != nil {
		return str
	}
	switch {
	case fromEnd && !greedy:
		expr = ".*(" + expr + ")$"
	case fromEnd:
		expr = "(" + expr + ")$"
	default:
		expr = "^(" + expr + ")"
	}
	rx := regexp.MustCompile(expr)
	if loc := rx.FindStringSubmatchIndex(str); loc != nil {
		str = str[:loc[2]] + str[loc[3]:]
	}
	return str
}

func varStr(cfg *Config, vr Variable, depth int) (string, error) {
	if depth > maxNameRefDepth {
		return "", fmt.Errorf("expand: nameref loop")
	}
	if vr.Kind == NameRef {
		return varStr(cfg, cfg.Env.Get(vr.Str), depth+1)
	}
	return vr.String(), nil
}

