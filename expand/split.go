// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

// splitFields breaks one word's fully-expanded Phrase into the fields
// POSIX field splitting produces, per spec §4.C.4. It replaces the
// teacher's strings.FieldsFunc(val, c.ifsRune)-based wordFields (the older
// expand.go), which split on every IFS rune in the joined string and so
// could not tell a literal/quoted IFS character (never a split point)
// apart from one introduced by expansion.
//
// A Phrase produced by an unquoted or quoted "$@" with more than one
// positional parameter carries explicit Separator boundaries (see
// [arrayPhrase]): splitting always honors those first, each resulting
// segment contributing at least one field regardless of its content, per
// spec's "$@ splits at positional-parameter boundaries, never joined".
// Everything else is ordinary IFS splitting: unquoted IFS characters that
// came from an expansion delimit fields (a run of IFS whitespace counts
// once; each IFS non-whitespace character ends exactly one field, so two
// in a row delimit an empty one), literal and quoted characters never do, and a quoted
// empty string still contributes one (empty) field where an entirely
// unquoted empty expansion contributes none.
func splitFields(cfg *Config, p Phrase) []Phrase {
	cfg.prepareIFS()

	hasSeparator := false
	for _, c := range p {
		if c.Separator {
			hasSeparator = true
			break
		}
	}
	if !hasSeparator {
		return splitSegment(cfg, p, false)
	}

	var fields []Phrase
	start := 0
	for i, c := range p {
		if c.Separator {
			fields = append(fields, splitSegment(cfg, p[start:i], true)...)
			start = i + 1
		}
	}
	fields = append(fields, splitSegment(cfg, p[start:], true)...)
	return fields
}

// splitSegment splits one IFS-delimited run (everything between two
// Separator boundaries, or the whole Phrase if it has none) into fields.
// force is set for a run that came from an array-element boundary: even
// an entirely empty, entirely unquoted such run still yields one field.
func splitSegment(cfg *Config, seg Phrase, force bool) []Phrase {
	var fields []Phrase
	var cur Phrase
	quotedSeen := false
	wsEnded := false // the last field was ended by IFS whitespace
	flush := func() bool {
		if len(cur) == 0 && !quotedSeen {
			return false
		}
		fields = append(fields, cur)
		cur = nil
		quotedSeen = false
		return true
	}
	for _, c := range seg {
		switch {
		case c.IsQuoted:
			quotedSeen = true
			cur = append(cur, c)
		case c.Origin == OriginLiteral || !cfg.ifsRune(c.Char):
			cur = append(cur, c)
		case cfg.ifsWhitespace(c.Char):
			wsEnded = flush() || wsEnded
		default:
			// IFS non-whitespace absorbs adjacent IFS whitespace; with no
			// field to end, it delimits an empty one.
			if !flush() && !wsEnded {
				fields = append(fields, Phrase{})
			}
			wsEnded = false
		}
	}
	flush()
	if force && len(fields) == 0 {
		fields = append(fields, Phrase{})
	}
	return fields
}
