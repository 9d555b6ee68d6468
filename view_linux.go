// view_linux.go - Process view backed by process_vm_readv/process_vm_writev
package peekpoke

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ProcessView accesses the address space of a process by pid. Bulk I/O
// goes through process_vm_readv and process_vm_writev, which need the
// same permissions as ptrace (CAP_SYS_PTRACE or a same-uid target under
// the default Yama scope).
//
// Allocation, freeing and protection changes act through mmap, munmap and
// mprotect and are therefore only possible when the view targets the
// current process; on a foreign target they report failure. Injecting
// mappings into a foreign process would require ptrace-driven code
// execution, which this library does not do. Protection queries read
// /proc/<pid>/maps and work for any accessible target.
type ProcessView struct {
	pid    int
	self   bool
	closed bool
}

// NewProcessView opens a view over the process with the given pid.
// Returns ErrOperationFailed when no such process exists and
// ErrAccessDenied when the process may not be inspected.
func NewProcessView(pid int) (*ProcessView, error) {
	self := pid == os.Getpid()
	if !self {
		if err := unix.Kill(pid, 0); err != nil {
			if err == unix.EPERM {
				return nil, fmt.Errorf("process %d: %w", pid, ErrAccessDenied)
			}
			return nil, fmt.Errorf("process %d: %w", pid, ErrOperationFailed)
		}
	}
	return &ProcessView{pid: pid, self: self}, nil
}

// PID returns the target process id
func (v *ProcessView) PID() int {
	return v.pid
}

func (v *ProcessView) readChunk(addr uintptr, buf []byte) int {
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: addr, Len: len(buf)}}
	n, err := unix.ProcessVMReadv(v.pid, local, remote, 0)
	if err != nil {
		return 0
	}
	return n
}

func (v *ProcessView) writeChunk(addr uintptr, data []byte) int {
	local := []unix.Iovec{{Base: &data[0]}}
	local[0].SetLen(len(data))
	remote := []unix.RemoteIovec{{Base: addr, Len: len(data)}}
	n, err := unix.ProcessVMWritev(v.pid, local, remote, 0)
	if err != nil {
		return 0
	}
	return n
}

// Read copies target memory at addr into buf, stopping at the first
// unreadable page
func (v *ProcessView) Read(addr uintptr, buf []byte) int {
	if v.closed || addr == 0 {
		return 0
	}
	return bulkThenPaged(v.readChunk, addr, buf)
}

// Write copies data into target memory at addr, stopping at the first
// unwritable page
func (v *ProcessView) Write(addr uintptr, data []byte) int {
	if v.closed || addr == 0 {
		return 0
	}
	return bulkThenPaged(v.writeChunk, addr, data)
}

// Allocate maps at least size bytes, rounded up to whole pages, in the
// current process. addr is a hint, not a demand. Foreign targets always
// report failure.
func (v *ProcessView) Allocate(addr uintptr, size uintptr, prot Protection) (Range, bool) {
	if v.closed || !v.self {
		return Range{}, false
	}
	size = AlignEnd(size)
	if size == 0 {
		return Range{}, false
	}
	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), size,
		prot.nativeProt(), unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return Range{}, false
	}
	return RangeAt(v, uintptr(p), size), true
}

// Free unmaps a region in the current process. Foreign targets always
// report failure.
func (v *ProcessView) Free(addr uintptr, size uintptr) bool {
	if v.closed || !v.self || addr == 0 {
		return false
	}
	size = AlignEnd(size)
	if size == 0 {
		return false
	}
	return unix.MunmapPtr(unsafe.Pointer(addr), size) == nil
}

// Protect changes the protection of a span in the current process.
// Foreign targets always report failure.
func (v *ProcessView) Protect(addr uintptr, size uintptr, prot Protection) bool {
	if v.closed || !v.self || addr == 0 {
		return false
	}
	start := AlignStart(addr)
	span := unsafe.Slice((*byte)(unsafe.Pointer(start)), AlignEnd(addr+size)-start)
	return unix.Mprotect(span, prot.nativeProt()) == nil
}

// Protection returns the protection of the mapping containing addr,
// looked up in /proc/<pid>/maps
func (v *ProcessView) Protection(addr uintptr) (Protection, bool) {
	if v.closed {
		return ProtNone, false
	}
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", v.pid))
	if err != nil {
		return ProtNone, false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		start, end, prot, ok := parseMapsLine(sc.Text())
		if ok && addr >= start && addr < end {
			return prot, true
		}
	}
	return ProtNone, false
}

// parseMapsLine picks the address range and permission bits out of one
// /proc/<pid>/maps line like "7f5c-7f60 r-xp 0000 08:01 123 /lib/x.so"
func parseMapsLine(line string) (start, end uintptr, prot Protection, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, ProtNone, false
	}
	dash := strings.IndexByte(fields[0], '-')
	if dash < 0 {
		return 0, 0, ProtNone, false
	}
	var s, e uint64
	if _, err := fmt.Sscanf(fields[0][:dash], "%x", &s); err != nil {
		return 0, 0, ProtNone, false
	}
	if _, err := fmt.Sscanf(fields[0][dash+1:], "%x", &e); err != nil {
		return 0, 0, ProtNone, false
	}
	perms := fields[1]
	if len(perms) < 3 {
		return 0, 0, ProtNone, false
	}
	prot = protectionFromBits(perms[0] == 'r', perms[1] == 'w', perms[2] == 'x')
	return uintptr(s), uintptr(e), prot, true
}

// Close marks the view unusable. The pid is a token, not a handle, so
// there is nothing to release; Close exists for symmetry with the other
// backends and is safe to call twice.
func (v *ProcessView) Close() error {
	v.closed = true
	return nil
}
