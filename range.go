// range.go - Address ranges with pattern search
package peekpoke

// Range is the span [Base, Base+Size) over a view. Construction through
// RangeAt clamps Size so Base+Size cannot wrap. Contains deliberately
// accepts the end address itself, so a pointer one past the last byte
// still counts as inside.
type Range struct {
	view View
	Base uintptr
	Size uintptr
}

// View returns the view this range reads through
func (r Range) View() View {
	return r.view
}

// End returns the first address past the range
func (r Range) End() uintptr {
	return r.Base + r.Size
}

// Start returns a pointer to the first byte of the range
func (r Range) Start() Pointer {
	return Pointer{view: r.view, Addr: r.Base}
}

// ContainsAddr reports whether addr lies in [Base, Base+Size], end
// address included
func (r Range) ContainsAddr(addr uintptr) bool {
	return addr >= r.Base && addr <= r.Base+r.Size
}

// Contains reports whether the pointer's address lies in the range,
// end address included
func (r Range) Contains(p Pointer) bool {
	return r.ContainsAddr(p.Addr)
}

// Read materialises the whole range into a byte slice. The result may be
// shorter than the range when pages inside it are unreadable.
func (r Range) Read() []byte {
	buf := make([]byte, r.Size)
	n := r.view.Read(r.Base, buf)
	return buf[:n]
}

// Scan materialises the range and returns a lazy iterator over every
// pattern match, reported as absolute pointers
func (r Range) Scan(pat Pattern) *PointerIterator {
	it := NewIterator(pat, r.Read())
	return NewPointerIterator(it, r.Start())
}

// ScanSignature is Scan for an uncompiled signature string
func (r Range) ScanSignature(signature string) (*PointerIterator, error) {
	pat, err := ParsePattern(signature)
	if err != nil {
		return nil, err
	}
	return r.Scan(pat), nil
}

// Find returns the first pattern match in the range
func (r Range) Find(pat Pattern) (Pointer, bool) {
	return r.Scan(pat).Next()
}

// FindSignature is Find for an uncompiled signature string
func (r Range) FindSignature(signature string) (Pointer, bool, error) {
	pat, err := ParsePattern(signature)
	if err != nil {
		return Pointer{}, false, err
	}
	p, ok := r.Find(pat)
	return p, ok, nil
}
