package peekpoke

import (
	"testing"
)

func TestProtectionStrings(t *testing.T) {
	cases := []struct {
		prot Protection
		want string
	}{
		{ProtNone, "---"},
		{ProtRead, "r--"},
		{ProtExecute, "--x"},
		{ProtReadWrite, "rw-"},
		{ProtReadExecute, "r-x"},
		{ProtReadWriteExecute, "rwx"},
	}
	for _, c := range cases {
		if got := c.prot.String(); got != c.want {
			t.Fatalf("%d: expected %q, got %q", int(c.prot), c.want, got)
		}
	}
}

func TestProtectionFlags(t *testing.T) {
	cases := []struct {
		prot    Protection
		r, w, x bool
	}{
		{ProtNone, false, false, false},
		{ProtRead, true, false, false},
		{ProtExecute, false, false, true},
		{ProtReadWrite, true, true, false},
		{ProtReadExecute, true, false, true},
		{ProtReadWriteExecute, true, true, true},
	}
	for _, c := range cases {
		if c.prot.CanRead() != c.r || c.prot.CanWrite() != c.w || c.prot.CanExecute() != c.x {
			t.Fatalf("%v: expected r=%v w=%v x=%v, got r=%v w=%v x=%v", c.prot,
				c.r, c.w, c.x, c.prot.CanRead(), c.prot.CanWrite(), c.prot.CanExecute())
		}
	}
}

func TestProtectionWriteImpliesRead(t *testing.T) {
	// write-only is not representable; the bits collapse to read-write
	if got := protectionFromBits(false, true, false); got != ProtReadWrite {
		t.Fatalf("expected rw-, got %v", got)
	}
	if got := protectionFromBits(false, true, true); got != ProtReadWriteExecute {
		t.Fatalf("expected rwx, got %v", got)
	}
}

func TestProtectionFromBitsRoundTrip(t *testing.T) {
	for _, prot := range []Protection{
		ProtNone, ProtRead, ProtExecute,
		ProtReadWrite, ProtReadExecute, ProtReadWriteExecute,
	} {
		got := protectionFromBits(prot.CanRead(), prot.CanWrite(), prot.CanExecute())
		if got != prot {
			t.Fatalf("%v: round trip gave %v", prot, got)
		}
	}
}
