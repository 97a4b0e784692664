// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"context"
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"posixsh.dev/sh/syntax"
)

// UnsetParameterError is returned when expanding `${name:?message}` (or its
// non-colon form when unset) encounters a parameter that is not set.
type UnsetParameterError struct {
	Expr    *syntax.ParamExp
	Message string
}

func (u UnsetParameterError) Error() string {
	if u.Message != "" {
		return u.Message
	}
	return fmt.Sprintf("%s: parameter not set", u.Expr.Param.Value)
}

// Literal expands a word into a single string, performing quote removal but
// never field splitting or pathname expansion: this is what's used for the
// right-hand side of redirection targets, the pattern/replacement operands
// of parameter expansion, and other places POSIX says "treated as if in
// double quotes, but not split".
func Literal(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg = ensureConfig(cfg)
	phrase, err := wordPhrase(cfg, word.Parts, true)
	if err != nil {
		return "", err
	}
	return phrase.QuoteRemoved(), nil
}

// Pattern expands a word the way a glob/case pattern operand is expanded:
// like Literal, but characters coming from an expansion (rather than
// written literally) are escaped so they can never themselves act as glob
// metacharacters — e.g. `[ab]` from a variable's value is two literal
// characters, not a bracket expression.
func Pattern(cfg *Config, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	cfg = ensureConfig(cfg)
	phrase, err := wordPhrase(cfg, word.Parts, true)
	if err != nil {
		return "", err
	}
	buf := cfg.strBuilder()
	for _, c := range phrase {
		if c.IsQuoting {
			continue
		}
		if c.IsQuoted || c.Origin != OriginLiteral {
			buf.WriteString(syntax.QuotePattern(string(c.Char)))
		} else {
			buf.WriteRune(c.Char)
		}
	}
	return buf.String(), nil
}

// wordPhrase expands one word's parts into a single Phrase, without field
// splitting: it's the building block both Literal/Pattern (which never
// split) and the field-splitting path (fields.go's Fields, which hands the
// whole word's Phrase to split.go) are built from.
func wordPhrase(cfg *Config, parts []syntax.WordPart, quoted bool) (Phrase, error) {
	var out Phrase
	for i, wp := range parts {
		ph, err := expandPart(cfg, wp, quoted, i == 0)
		if err != nil {
			return nil, err
		}
		out = out.Append(ph)
	}
	return out, nil
}

func expandPart(cfg *Config, wp syntax.WordPart, quoted, first bool) (Phrase, error) {
	switch x := wp.(type) {
	case *syntax.Lit:
		s := x.Value
		if first {
			s = expandTilde(cfg, s)
		}
		s = removeLitBackslashes(s, quoted)
		return LiteralPhrase(s, quoted), nil

	case *syntax.SglQuoted:
		val := x.Value
		if x.Dollar {
			var err error
			val, _, err = Format(cfg, val, nil)
			if err != nil {
				return nil, err
			}
		}
		p := LiteralPhrase(val, true)
		return markQuoting(p), nil

	case *syntax.DblQuoted:
		inner, err := wordPhrase(cfg, x.Parts, true)
		if err != nil {
			return nil, err
		}
		return markQuoting(inner), nil

	case *syntax.ParamExp:
		return paramExpPhrase(cfg, x, quoted)

	case *syntax.CmdSubst:
		s, err := cmdSubst(cfg, x)
		if err != nil {
			return nil, err
		}
		return Expansion(s, OriginHardExpansion, quoted), nil

	case *syntax.ArithmExp:
		n, err := Arithm(cfg, x.X)
		if err != nil {
			return nil, err
		}
		return Expansion(strconv.Itoa(n), OriginSoftExpansion, quoted), nil

	default:
		return nil, fmt.Errorf("expand: unhandled word part %T", x)
	}
}

// markQuoting wraps the opening/closing quote marks conceptually: since we
// don't keep the original quote rune in the Phrase, marking is done by
// setting IsQuoted on every contained char, which both QuoteRemoved (via
// IsQuoting on literal quote chars elsewhere) and field-splitting rely on
// to skip these characters.
func markQuoting(p Phrase) Phrase {
	for i := range p {
		p[i].IsQuoted = true
	}
	return p
}

func removeLitBackslashes(s string, quoted bool) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\\' && i+1 < len(s) {
			next := s[i+1]
			if quoted {
				switch next {
				case '\n':
					i++
					continue
				case '"', '\\', '$', '`':
					i++
					buf.WriteByte(next)
					continue
				}
				buf.WriteByte(b)
				continue
			}
			i++
			buf.WriteByte(next)
			continue
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

func expandTilde(cfg *Config, field string) string {
	if len(field) == 0 || field[0] != '~' {
		return field
	}
	name := field[1:]
	rest := ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		return cfg.envGet("HOME") + rest
	}
	u, err := user.Lookup(name)
	if err != nil {
		return field
	}
	return u.HomeDir + rest
}

func cmdSubst(cfg *Config, cs *syntax.CmdSubst) (string, error) {
	if cfg.CmdSubst == nil {
		return "", fmt.Errorf("expand: command substitution not supported in this context")
	}
	buf := cfg.strBuilder()
	ctx := cfg.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.CmdSubst(ctx, buf, cs.Stmts); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
