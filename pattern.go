// pattern.go - Compiled byte patterns with wildcard support
package peekpoke

import (
	"hash/fnv"
	"strings"
)

// Wildcard marks a pattern element that matches any byte
const Wildcard int16 = -1

// Pattern is an immutable sequence of byte matchers. Each element is either
// a literal byte value (0x00..0xFF) or Wildcard. Patterns compare and hash
// structurally, so two patterns parsed from equivalent signatures are equal.
type Pattern struct {
	elems []int16
}

// NewPattern builds a pattern from an already compiled element sequence.
// Values outside 0x00..0xFF other than Wildcard are masked to their low byte.
func NewPattern(elems []int16) Pattern {
	out := make([]int16, len(elems))
	for i, e := range elems {
		if e == Wildcard {
			out[i] = Wildcard
		} else {
			out[i] = e & 0xFF
		}
	}
	return Pattern{elems: out}
}

// ParsePattern compiles a signature string like "48 8B ?? ?? E8" into a
// Pattern. Comments starting with '#' run to the end of the line. An empty
// signature yields an empty pattern, which matches at every offset.
func ParsePattern(signature string) (Pattern, error) {
	lex := NewLexer(signature)
	var elems []int16
	for {
		tok, err := lex.Next()
		if err != nil {
			return Pattern{}, err
		}
		switch tok.Type {
		case TOKEN_BYTE:
			elems = append(elems, int16(tok.Byte))
		case TOKEN_WILDCARD:
			elems = append(elems, Wildcard)
		case TOKEN_EOL:
			return Pattern{elems: elems}, nil
		}
	}
}

// Len returns the number of elements in the pattern
func (p Pattern) Len() int {
	return len(p.elems)
}

// At returns the element at index i as (value, isLiteral).
// isLiteral is false for wildcards.
func (p Pattern) At(i int) (byte, bool) {
	e := p.elems[i]
	if e == Wildcard {
		return 0, false
	}
	return byte(e), true
}

// Equal reports whether two patterns have the same element sequence
func (p Pattern) Equal(q Pattern) bool {
	if len(p.elems) != len(q.elems) {
		return false
	}
	for i := range p.elems {
		if p.elems[i] != q.elems[i] {
			return false
		}
	}
	return true
}

// Hash returns a FNV-1a hash of the element sequence. Literals and
// wildcards feed distinct markers, so "3F 3F" and "??" do not collide.
func (p Pattern) Hash() uint64 {
	h := fnv.New64a()
	for _, e := range p.elems {
		if e == Wildcard {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0, byte(e)})
		}
	}
	return h.Sum64()
}

// MatchesAt reports whether the pattern matches buf at the given offset.
// The caller must ensure offset+Len() does not exceed len(buf).
func (p Pattern) MatchesAt(buf []byte, offset int) bool {
	for i, e := range p.elems {
		if e != Wildcard && buf[offset+i] != byte(e) {
			return false
		}
	}
	return true
}

// String renders the pattern in canonical signature form: uppercase hex
// pairs and "??" wildcards separated by single spaces. The output re-parses
// to an equal pattern.
func (p Pattern) String() string {
	var sb strings.Builder
	for i, e := range p.elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if e == Wildcard {
			sb.WriteString("??")
		} else {
			sb.WriteByte(hexUpper[byte(e)>>4])
			sb.WriteByte(hexUpper[byte(e)&0x0F])
		}
	}
	return sb.String()
}

const hexUpper = "0123456789ABCDEF"
