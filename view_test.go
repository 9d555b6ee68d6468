package peekpoke

import (
	"runtime"
	"testing"
	"unsafe"
)

func bufAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestLocalReadWriteRoundTrip(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if n := v.Write(base+8, data); n != len(data) {
		t.Fatalf("expected %d bytes written, got %d", len(data), n)
	}
	out := make([]byte, 4)
	if n := v.Read(base+8, out); n != len(out) {
		t.Fatalf("expected %d bytes read, got %d", len(out), n)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("byte %d: expected %02X, got %02X", i, data[i], out[i])
		}
	}
	runtime.KeepAlive(buf)
}

func TestLocalNullShortCircuit(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 8)
	if n := v.Read(0, buf); n != 0 {
		t.Fatalf("read from null: expected 0, got %d", n)
	}
	if n := v.Write(0, buf); n != 0 {
		t.Fatalf("write to null: expected 0, got %d", n)
	}
	if n := v.Read(bufAddr(buf), nil); n != 0 {
		t.Fatalf("read into empty buffer: expected 0, got %d", n)
	}
	runtime.KeepAlive(buf)
}

type testRecord struct {
	A uint32
	B uint16
	C [2]byte
	D float64
}

func TestReadWriteValue(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 128)
	base := bufAddr(buf)

	want := testRecord{A: 0xDEADBEEF, B: 0x1234, C: [2]byte{7, 9}, D: 3.5}
	for _, off := range []uintptr{0, 8, 40} {
		if !WriteValue(v, base+off, want) {
			t.Fatalf("offset %d: write failed", off)
		}
		got, ok := ReadValue[testRecord](v, base+off)
		if !ok {
			t.Fatalf("offset %d: read failed", off)
		}
		if got != want {
			t.Fatalf("offset %d: expected %+v, got %+v", off, want, got)
		}
	}
	runtime.KeepAlive(buf)
}

func TestValueRejectsNonPOD(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	type withPointer struct {
		P *int
	}
	if WriteValue(v, base, withPointer{}) {
		t.Fatal("pointer-carrying type must not be written")
	}
	if _, ok := ReadValue[withPointer](v, base); ok {
		t.Fatal("pointer-carrying type must not be read")
	}
	if _, ok := ReadValue[string](v, base); ok {
		t.Fatal("string must not be read")
	}
	if got := ReadArray[[]byte](v, base, 4); got != nil {
		t.Fatal("slice element type must yield nil")
	}
	runtime.KeepAlive(buf)
}

func TestReadWriteArray(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	xs := []uint32{1, 2, 0xFFFFFFFF, 42, 7}
	if n := WriteArray(v, base, xs); n != len(xs) {
		t.Fatalf("expected %d values written, got %d", len(xs), n)
	}
	got := ReadArray[uint32](v, base, len(xs))
	if len(got) != len(xs) {
		t.Fatalf("expected %d values read, got %d", len(xs), len(got))
	}
	for i := range xs {
		if got[i] != xs[i] {
			t.Fatalf("value %d: expected %d, got %d", i, xs[i], got[i])
		}
	}
	runtime.KeepAlive(buf)
}

func TestArrayZeroSizeElement(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 8)
	base := bufAddr(buf)

	// a zero-size element type must not divide by zero
	if got := ReadArray[struct{}](v, base, 4); got != nil {
		t.Fatalf("expected nil, got %d elements", len(got))
	}
	if n := WriteArray(v, base, make([]struct{}, 4)); n != 0 {
		t.Fatalf("expected 0 written, got %d", n)
	}
	runtime.KeepAlive(buf)
}

func TestStringRoundTrips(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 256)
	base := bufAddr(buf)

	for _, enc := range []Encoding{UTF8, UTF16, UTF32} {
		for i := range buf {
			buf[i] = 0xEE
		}
		if !WriteString(v, base, "héllo", enc, true) {
			t.Fatalf("%v: write failed", enc)
		}
		if got := ReadString(v, base, 5, enc, true); got != "héllo" {
			t.Fatalf("%v: expected %q, got %q", enc, "héllo", got)
		}
	}
	runtime.KeepAlive(buf)
}

func TestStringMaxCharsClamp(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 256)
	base := bufAddr(buf)

	WriteString(v, base, "abcdefgh", UTF8, true)
	if got := ReadString(v, base, 3, UTF8, true); got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
	runtime.KeepAlive(buf)
}

func TestStringZeroTermination(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	copy(buf, []byte("first\x00second"))
	if got := ReadString(v, base, 32, UTF8, true); got != "first" {
		t.Fatalf("zero-terminated: expected %q, got %q", "first", got)
	}
	if got := ReadString(v, base, 12, UTF8, false); got != "first\x00second" {
		t.Fatalf("unterminated: expected %q, got %q", "first\x00second", got)
	}
	runtime.KeepAlive(buf)
}

func TestReadWritePointers(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	ps := []Pointer{Ptr(v, 0x1000), Ptr(v, 0x2000), Ptr(v, 0)}
	if n := WritePointers(v, base, ps); n != len(ps) {
		t.Fatalf("expected %d pointers written, got %d", len(ps), n)
	}
	got := ReadPointers(v, base, len(ps))
	if len(got) != len(ps) {
		t.Fatalf("expected %d pointers read, got %d", len(ps), len(got))
	}
	for i := range ps {
		if !got[i].Equal(ps[i]) {
			t.Fatalf("pointer %d: expected %v, got %v", i, ps[i], got[i])
		}
		if got[i].View() != View(v) {
			t.Fatalf("pointer %d: view was not reattached", i)
		}
	}
	runtime.KeepAlive(buf)
}

func TestPointerChase(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 0x200)
	base := bufAddr(buf)

	// base+0x000 holds the address of base+0x100, which holds a u32
	if !WriteValue(v, base, base+0x100) {
		t.Fatal("writing inner address failed")
	}
	if !WriteValue(v, base+0x100, uint32(0xDEADBEEF)) {
		t.Fatal("writing value failed")
	}

	pp := TypedAt[TypedPointer[uint32]](v, base)
	inner, ok := Chase(pp)
	if !ok {
		t.Fatal("chase failed")
	}
	if inner.Addr != base+0x100 {
		t.Fatalf("expected inner pointer at 0x%x, got 0x%x", base+0x100, inner.Addr)
	}
	val, ok := inner.Deref()
	if !ok || val != 0xDEADBEEF {
		t.Fatalf("expected DEADBEEF, got %08X (ok=%v)", val, ok)
	}
	runtime.KeepAlive(buf)
}

func TestTypedPointerDerefRejectsNestedViews(t *testing.T) {
	v := &LocalView{}
	buf := make([]byte, 64)
	base := bufAddr(buf)

	// Deref on a pointer-to-pointer must fail; Chase is the supported path
	pp := TypedAt[TypedPointer[uint32]](v, base)
	if _, ok := pp.Deref(); ok {
		t.Fatal("Deref of a view-carrying payload must fail")
	}
	runtime.KeepAlive(buf)
}

func TestAllocateAlignmentAndRoundTrip(t *testing.T) {
	v, err := NewLocalView()
	if err != nil {
		t.Fatalf("opening local view: %v", err)
	}
	defer v.Close()

	r, ok := v.Allocate(0, 1, ProtReadWrite)
	if !ok {
		t.Fatal("allocation failed")
	}
	defer v.Free(r.Base, r.Size)

	if r.Base != AlignStart(r.Base) {
		t.Fatalf("base 0x%x is not page aligned", r.Base)
	}
	if r.Size == 0 || r.Size%PageSize() != 0 {
		t.Fatalf("size %d is not a whole number of pages", r.Size)
	}
	if !WriteValue(v, r.Base, uint64(0x1122334455667788)) {
		t.Fatal("writing to fresh allocation failed")
	}
	got, ok := ReadValue[uint64](v, r.Base)
	if !ok || got != 0x1122334455667788 {
		t.Fatalf("expected 1122334455667788, got %016X (ok=%v)", got, ok)
	}
}

func TestProtectionRoundTrip(t *testing.T) {
	v, err := NewLocalView()
	if err != nil {
		t.Fatalf("opening local view: %v", err)
	}
	defer v.Close()

	r, ok := v.Allocate(0, PageSize(), ProtReadWrite)
	if !ok {
		t.Fatal("allocation failed")
	}
	defer v.Free(r.Base, r.Size)

	prot, ok := v.Protection(r.Base)
	if !ok {
		t.Fatal("protection query failed")
	}
	if !prot.CanRead() || !prot.CanWrite() {
		t.Fatalf("expected a read-write superset, got %v", prot)
	}

	if !v.Protect(r.Base, r.Size, ProtRead) {
		t.Fatal("protect failed")
	}
	prot, ok = v.Protection(r.Base)
	if !ok {
		t.Fatal("protection query after protect failed")
	}
	if !prot.CanRead() || prot.CanWrite() {
		t.Fatalf("expected read-only, got %v", prot)
	}
	// restore so Free of a clean rw mapping is exercised too
	if !v.Protect(r.Base, r.Size, ProtReadWrite) {
		t.Fatal("restoring protection failed")
	}
}

func TestScanOverAllocation(t *testing.T) {
	v, err := NewLocalView()
	if err != nil {
		t.Fatalf("opening local view: %v", err)
	}
	defer v.Close()

	r, ok := v.Allocate(0, 0x1000, ProtReadWrite)
	if !ok {
		t.Fatal("allocation failed")
	}
	defer v.Free(r.Base, r.Size)

	if n := v.Write(r.Base+0x10, []byte{0x11, 0x22, 0x33, 0x22, 0x33}); n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	pat, err := ParsePattern("22 33")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	it := r.Scan(pat)
	first, ok := it.Next()
	if !ok || first.Addr != r.Base+0x11 {
		t.Fatalf("expected first hit at base+0x11, got %v (ok=%v)", first, ok)
	}
	second, ok := it.Next()
	if !ok || second.Addr != r.Base+0x13 {
		t.Fatalf("expected second hit at base+0x13, got %v (ok=%v)", second, ok)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected exactly two hits")
	}
}
