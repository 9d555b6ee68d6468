// encoding.go - String transfer in UTF-8, UTF-16 and UTF-32
package peekpoke

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding selects the code unit format for string reads and writes.
// UTF-16 and UTF-32 use little-endian code units, the native order on
// every supported target.
type Encoding int

const (
	UTF8 Encoding = iota
	UTF16
	UTF32
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF16:
		return "UTF-16"
	case UTF32:
		return "UTF-32"
	default:
		return "unknown"
	}
}

// unitWidth returns the size of one code unit in bytes
func (e Encoding) unitWidth() int {
	switch e {
	case UTF16:
		return 2
	case UTF32:
		return 4
	default:
		return 1
	}
}

// maxUnitsPerChar returns how many code units the widest character needs
func (e Encoding) maxUnitsPerChar() int {
	switch e {
	case UTF16:
		return 2
	case UTF32:
		return 1
	default:
		return 4
	}
}

// ReadString reads up to maxChars characters from addr under the given
// encoding. Enough code units for the widest possible characters are
// fetched; when zeroTerm is set the data is cut at the first zero code
// unit. Malformed sequences decode to the replacement character, and the
// result is finally clamped to maxChars characters. Unreadable memory
// shortens the result, down to the empty string.
func ReadString(v View, addr uintptr, maxChars int, enc Encoding, zeroTerm bool) string {
	if maxChars <= 0 {
		return ""
	}
	width := enc.unitWidth()
	buf := make([]byte, maxChars*enc.maxUnitsPerChar()*width)
	n := v.Read(addr, buf)
	n -= n % width
	buf = buf[:n]
	if zeroTerm {
		buf = cutAtZeroUnit(buf, width)
	}
	s := decodeString(buf, enc)
	runes := []rune(s)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return string(runes)
}

// WriteString writes s to addr under the given encoding, optionally
// followed by one zero code unit. UTF-8 is written as-is; the other
// encodings transcode with replacement-on-error. Reports whether every
// byte was written.
func WriteString(v View, addr uintptr, s string, enc Encoding, zeroTerm bool) bool {
	var data []byte
	if enc == UTF8 {
		data = []byte(s)
	} else {
		data = encodeString(strings.ToValidUTF8(s, "�"), enc)
	}
	if zeroTerm {
		data = append(data, make([]byte, enc.unitWidth())...)
	}
	if len(data) == 0 {
		return true
	}
	return v.Write(addr, data) == len(data)
}

// cutAtZeroUnit truncates buf at the first all-zero code unit
func cutAtZeroUnit(buf []byte, width int) []byte {
	for i := 0; i+width <= len(buf); i += width {
		zero := true
		for j := 0; j < width; j++ {
			if buf[i+j] != 0 {
				zero = false
				break
			}
		}
		if zero {
			return buf[:i]
		}
	}
	return buf
}

func decodeString(buf []byte, enc Encoding) string {
	switch enc {
	case UTF16:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(buf)
		if err != nil {
			return ""
		}
		return string(out)
	case UTF32:
		dec := utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(buf)
		if err != nil {
			return ""
		}
		return string(out)
	default:
		return strings.ToValidUTF8(string(buf), "�")
	}
}

func encodeString(s string, enc Encoding) []byte {
	switch enc {
	case UTF16:
		e := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		out, err := e.Bytes([]byte(s))
		if err != nil {
			return nil
		}
		return out
	case UTF32:
		e := utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewEncoder()
		out, err := e.Bytes([]byte(s))
		if err != nil {
			return nil
		}
		return out
	default:
		return []byte(s)
	}
}
