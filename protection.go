// protection.go - Memory protection flags
package peekpoke

// Protection describes the access rights of a memory region. Only the six
// combinations below are representable; write access always implies read,
// which matches what the supported kernels hand out in practice.
type Protection int

const (
	ProtNone Protection = iota
	ProtRead
	ProtExecute
	ProtReadWrite
	ProtReadExecute
	ProtReadWriteExecute
)

func (p Protection) String() string {
	switch p {
	case ProtNone:
		return "---"
	case ProtRead:
		return "r--"
	case ProtExecute:
		return "--x"
	case ProtReadWrite:
		return "rw-"
	case ProtReadExecute:
		return "r-x"
	case ProtReadWriteExecute:
		return "rwx"
	default:
		return "???"
	}
}

// CanRead reports whether the protection allows reading
func (p Protection) CanRead() bool {
	switch p {
	case ProtRead, ProtReadWrite, ProtReadExecute, ProtReadWriteExecute:
		return true
	}
	return false
}

// CanWrite reports whether the protection allows writing
func (p Protection) CanWrite() bool {
	return p == ProtReadWrite || p == ProtReadWriteExecute
}

// CanExecute reports whether the protection allows execution
func (p Protection) CanExecute() bool {
	switch p {
	case ProtExecute, ProtReadExecute, ProtReadWriteExecute:
		return true
	}
	return false
}

// protectionFromBits maps separate r/w/x bits onto the six representable
// combinations. Write without read is promoted to read+write.
func protectionFromBits(r, w, x bool) Protection {
	if w {
		if x {
			return ProtReadWriteExecute
		}
		return ProtReadWrite
	}
	switch {
	case r && x:
		return ProtReadExecute
	case r:
		return ProtRead
	case x:
		return ProtExecute
	}
	return ProtNone
}
