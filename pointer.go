// pointer.go - Raw pointers into a memory view
package peekpoke

import (
	"fmt"
)

// Pointer is an absolute address paired with the view it belongs to. It
// does not own the memory it points at. Identity is the address alone:
// two pointers into different views but at the same address are equal.
type Pointer struct {
	view View
	Addr uintptr
}

// View returns the view this pointer reads and writes through
func (p Pointer) View() View {
	return p.view
}

// IsNull reports whether the pointer is the zero address
func (p Pointer) IsNull() bool {
	return p.Addr == 0
}

// Add returns the pointer n bytes further. Arithmetic wraps at the ends
// of the address space.
func (p Pointer) Add(n uintptr) Pointer {
	return Pointer{view: p.view, Addr: p.Addr + n}
}

// Sub returns the pointer n bytes back, wrapping on underflow
func (p Pointer) Sub(n uintptr) Pointer {
	return Pointer{view: p.view, Addr: p.Addr - n}
}

// Offset moves the pointer by a signed byte delta, wrapping in either
// direction
func (p Pointer) Offset(delta int) Pointer {
	return Pointer{view: p.view, Addr: p.Addr + uintptr(delta)}
}

// Equal reports address equality; the view is not part of identity
func (p Pointer) Equal(q Pointer) bool {
	return p.Addr == q.Addr
}

// Less orders pointers by address
func (p Pointer) Less(q Pointer) bool {
	return p.Addr < q.Addr
}

// Read copies memory at the pointer into buf, returning the byte count
func (p Pointer) Read(buf []byte) int {
	return p.view.Read(p.Addr, buf)
}

// Write copies data to memory at the pointer, returning the byte count
func (p Pointer) Write(data []byte) int {
	return p.view.Write(p.Addr, data)
}

// ToRange returns the range [p, p+size) over the pointer's view
func (p Pointer) ToRange(size uintptr) Range {
	return RangeAt(p.view, p.Addr, size)
}

// ToRangeEnd returns the range [p, end). It fails when end is below p.
func (p Pointer) ToRangeEnd(end Pointer) (Range, bool) {
	if end.Addr < p.Addr {
		return Range{}, false
	}
	return RangeAt(p.view, p.Addr, end.Addr-p.Addr), true
}

func (p Pointer) String() string {
	return fmt.Sprintf("0x%x", uint64(p.Addr))
}

// To passes the pointer through a single-argument constructor, letting
// domain types opt in to a uniform from-pointer protocol:
//
//	player := peekpoke.To(ptr, NewPlayer)
func To[T any](p Pointer, construct func(Pointer) T) T {
	return construct(p)
}
