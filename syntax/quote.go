// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strings"
)

// QuoteError is returned by [Quote] when str cannot be quoted for lang, for
// example because it contains a null byte, or a control character the given
// language variant has no escape sequence for.
type QuoteError struct {
	ByteIdx int // index of the first problematic byte within str
	Reason  string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("cannot quote character at index %d: %s", e.ByteIdx, e.Reason)
}

const (
	quoteErrNull  = "shell strings cannot contain null bytes"
	quoteErrPOSIX = "POSIX shell quotes have no escape for control characters"
	quoteErrMksh  = "mksh quotes have no escape for this character"
)

var ansiCEscapes = map[byte]string{
	'\a': `\a`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	'\\': `\\`,
	'\'': `\'`,
}

// needsQuoting reports whether str can be used bare, as a single word,
// without any quoting at all.
func needsQuoting(str string) bool {
	if str == "" {
		return true
	}
	for _, r := range str {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("%+-./:=@_^", r):
		default:
			return true
		}
	}
	return false
}

// Quote returns a version of str quoted so that, when parsed by lang, it
// expands back to exactly str as a single field. It returns a [*QuoteError]
// if str contains a byte that lang has no way to represent faithfully: a
// null byte for any variant, or an unescapable control character for the
// stricter POSIX and mksh variants.
func Quote(str string, lang LangVariant) (string, error) {
	if i := strings.IndexByte(str, 0); i >= 0 {
		return "", &QuoteError{i, quoteErrNull}
	}
	if !needsQuoting(str) {
		return str, nil
	}

	needsANSIC := false
	for i := 0; i < len(str); i++ {
		b := str[i]
		if b < 0x20 || b == 0x7f {
			switch lang {
			case LangPOSIX:
				return "", &QuoteError{i, quoteErrPOSIX}
			case LangMirBSDKorn:
				return "", &QuoteError{i, quoteErrMksh}
			default:
				needsANSIC = true
			}
			continue
		}
		if _, ok := ansiCEscapes[b]; ok && lang != LangPOSIX {
			needsANSIC = true
		}
	}

	if !needsANSIC {
		// Plain single quotes suffice; escape any embedded single quote
		// by closing the quoted string, emitting an escaped quote outside
		// of it, then reopening.
		var sb strings.Builder
		sb.WriteByte('\'')
		for i := 0; i < len(str); i++ {
			if str[i] == '\'' {
				sb.WriteString(`'"'"'`)
			} else {
				sb.WriteByte(str[i])
			}
		}
		sb.WriteByte('\'')
		return sb.String(), nil
	}

	var sb strings.Builder
	sb.WriteString("$'")
	for i := 0; i < len(str); i++ {
		b := str[i]
		if esc, ok := ansiCEscapes[b]; ok {
			sb.WriteString(esc)
			continue
		}
		if b < 0x20 || b == 0x7f {
			fmt.Fprintf(&sb, `\x%02x`, b)
			continue
		}
		sb.WriteByte(b)
	}
	sb.WriteByte('\'')
	return sb.String(), nil
}
