package peekpoke

import (
	"runtime"
	"testing"
)

func TestEncodingWidths(t *testing.T) {
	cases := []struct {
		enc          Encoding
		width, units int
	}{
		{UTF8, 1, 4},
		{UTF16, 2, 2},
		{UTF32, 4, 1},
	}
	for _, c := range cases {
		if got := c.enc.unitWidth(); got != c.width {
			t.Fatalf("%v: expected unit width %d, got %d", c.enc, c.width, got)
		}
		if got := c.enc.maxUnitsPerChar(); got != c.units {
			t.Fatalf("%v: expected max units %d, got %d", c.enc, c.units, got)
		}
	}
}

func TestCutAtZeroUnit(t *testing.T) {
	// a UTF-16 low byte of zero is not a terminator on its own
	buf := []byte{0x41, 0x00, 0x42, 0x00, 0x00, 0x00, 0x43, 0x00}
	cut := cutAtZeroUnit(buf, 2)
	if len(cut) != 4 {
		t.Fatalf("expected cut at unit 2, got %d bytes", len(cut))
	}
	cut = cutAtZeroUnit([]byte{0x00, 0x41}, 1)
	if len(cut) != 0 {
		t.Fatalf("expected immediate cut, got %d bytes", len(cut))
	}
	cut = cutAtZeroUnit([]byte{0x41, 0x42}, 1)
	if len(cut) != 2 {
		t.Fatalf("expected no cut, got %d bytes", len(cut))
	}
}

func TestReadStringReplacesMalformedSequences(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 32)
	copy(buf, []byte{0xFF, 0xFE, 'o', 'k', 0x00})
	got := ReadString(v, bufAddr(buf), 8, UTF8, true)
	// a run of invalid bytes collapses into one replacement character
	if got != "�ok" {
		t.Fatalf("expected replacement character, got %q", got)
	}
	runtime.KeepAlive(buf)
}

func TestWriteStringEmptyWithTerminator(t *testing.T) {
	v := &LocalView{}
	buf := []byte{0xEE, 0xEE, 0xEE, 0xEE, 0xEE}
	if !WriteString(v, bufAddr(buf), "", UTF16, true) {
		t.Fatal("write failed")
	}
	if buf[0] != 0 || buf[1] != 0 {
		t.Fatalf("expected a two-byte terminator, got % X", buf[:2])
	}
	if buf[2] != 0xEE {
		t.Fatal("wrote past the terminator")
	}
	runtime.KeepAlive(buf)
}

func TestStringSupplementaryPlane(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	// a character outside the BMP takes two UTF-16 code units
	const s = "a\U0001F600b"
	for _, enc := range []Encoding{UTF8, UTF16, UTF32} {
		if !WriteString(v, base, s, enc, true) {
			t.Fatalf("%v: write failed", enc)
		}
		if got := ReadString(v, base, 3, enc, true); got != s {
			t.Fatalf("%v: expected %q, got %q", enc, s, got)
		}
	}
	runtime.KeepAlive(buf)
}
