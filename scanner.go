// scanner.go - Pattern search over byte buffers
package peekpoke

// Iterator walks a byte buffer yielding the offset of each pattern match.
// The scan is a plain O(n*m) comparison that advances one byte at a time,
// so overlapping matches are all reported. An Iterator is single-pass;
// create a new one to scan again.
type Iterator struct {
	pat Pattern
	buf []byte
	pos int
}

// NewIterator creates an iterator scanning buf for pat from offset 0
func NewIterator(pat Pattern, buf []byte) *Iterator {
	return &Iterator{pat: pat, buf: buf}
}

// Next returns the offset of the next match. The second return value is
// false once the buffer is exhausted. A pattern longer than the buffer
// never matches; an empty pattern matches at every offset from 0 to
// len(buf) inclusive of the final start position.
func (it *Iterator) Next() (int, bool) {
	n := len(it.buf)
	m := it.pat.Len()
	if m > n {
		return 0, false
	}
	// last valid start offset is n-m, inclusive
	for it.pos <= n-m {
		i := it.pos
		it.pos++
		if it.pat.MatchesAt(it.buf, i) {
			return i, true
		}
	}
	return 0, false
}

// PointerIterator adapts an Iterator so that each match offset is reported
// as an absolute pointer relative to a base. It is as lazy as the iterator
// it wraps.
type PointerIterator struct {
	it   *Iterator
	base Pointer
}

// NewPointerIterator anchors an offset iterator to a base pointer
func NewPointerIterator(it *Iterator, base Pointer) *PointerIterator {
	return &PointerIterator{it: it, base: base}
}

// Next returns the pointer to the next match, or false when exhausted
func (it *PointerIterator) Next() (Pointer, bool) {
	off, ok := it.it.Next()
	if !ok {
		return Pointer{}, false
	}
	return it.base.Add(uintptr(off)), true
}
