// view_windows.go - Process view backed by the Win32 virtual memory calls
package peekpoke

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ProcessView accesses the address space of a process through a process
// handle opened with the VM access rights. The handle is closed by Close
// unless it is the current-process pseudo handle, which is owned by the
// OS. A zero handle and INVALID_HANDLE_VALUE are both treated as "no
// handle" and never closed.
type ProcessView struct {
	handle windows.Handle
	pid    int
	self   bool
	closed bool
}

// NewProcessView opens a view over the process with the given pid.
// Returns ErrAccessDenied when OpenProcess is refused and
// ErrOperationFailed otherwise.
func NewProcessView(pid int) (*ProcessView, error) {
	if pid == int(windows.GetCurrentProcessId()) {
		return &ProcessView{handle: windows.CurrentProcess(), pid: pid, self: true}, nil
	}
	h, err := windows.OpenProcess(
		windows.PROCESS_VM_READ|windows.PROCESS_VM_WRITE|
			windows.PROCESS_VM_OPERATION|windows.PROCESS_QUERY_INFORMATION,
		false, uint32(pid))
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return nil, fmt.Errorf("OpenProcess %d: %w", pid, ErrAccessDenied)
		}
		return nil, fmt.Errorf("OpenProcess %d: %v: %w", pid, err, ErrOperationFailed)
	}
	if h == 0 || h == windows.InvalidHandle {
		return nil, fmt.Errorf("OpenProcess %d: %w", pid, ErrOperationFailed)
	}
	return &ProcessView{handle: h, pid: pid}, nil
}

// PID returns the target process id
func (v *ProcessView) PID() int {
	return v.pid
}

func (v *ProcessView) readChunk(addr uintptr, buf []byte) int {
	var done uintptr
	err := windows.ReadProcessMemory(v.handle, addr, &buf[0], uintptr(len(buf)), &done)
	if err != nil {
		return int(done)
	}
	return len(buf)
}

func (v *ProcessView) writeChunk(addr uintptr, data []byte) int {
	var done uintptr
	err := windows.WriteProcessMemory(v.handle, addr, &data[0], uintptr(len(data)), &done)
	if err != nil {
		return int(done)
	}
	return len(data)
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

// Allocate commits at least size bytes, rounded up to whole pages, in the
// target process. addr is tried as a placement hint first and degrades to
// "anywhere" when the spot cannot be used.
func (v *ProcessView) Allocate(addr uintptr, size uintptr, prot Protection) (Range, bool) {
	if v.closed {
		return Range{}, false
	}
	size = AlignEnd(size)
	if size == 0 {
		return Range{}, false
	}
	base, err := windows.VirtualAllocEx(v.handle, addr, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, prot.nativeProt())
	if err != nil && addr != 0 {
		base, err = windows.VirtualAllocEx(v.handle, 0, size,
			windows.MEM_COMMIT|windows.MEM_RESERVE, prot.nativeProt())
	}
	if err != nil || base == 0 {
		return Range{}, false
	}
	return RangeAt(v, base, size), true
}

// Free releases an allocation in the target process. MEM_RELEASE always
// releases the entire original allocation containing addr; the size
// argument is accepted for interface symmetry but ignored by the OS.
func (v *ProcessView) Free(addr uintptr, size uintptr) bool {
	if v.closed || addr == 0 {
		return false
	}
	_ = size
	return windows.VirtualFreeEx(v.handle, addr, 0, windows.MEM_RELEASE) == nil
}

// Protect changes the protection of a span in the target process
func (v *ProcessView) Protect(addr uintptr, size uintptr, prot Protection) bool {
	if v.closed || addr == 0 {
		return false
	}
	var old uint32
	return windows.VirtualProtectEx(v.handle, addr, size, prot.nativeProt(), &old) == nil
}

// Protection returns the protection of the region containing addr.
// Reserved-but-uncommitted and free regions report as no access.
func (v *ProcessView) Protection(addr uintptr) (Protection, bool) {
	if v.closed {
		return ProtNone, false
	}
	var mbi windows.MemoryBasicInformation
	err := windows.VirtualQueryEx(v.handle, addr, &mbi, unsafe.Sizeof(mbi))
	if err != nil {
		return ProtNone, false
	}
	if mbi.State != windows.MEM_COMMIT {
		return ProtNone, true
	}
	return protectionFromNative(mbi.Protect), true
}

// Close closes the process handle. The current-process pseudo handle and
// the two "no handle" sentinels are left alone. Safe to call twice.
func (v *ProcessView) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if v.self || v.handle == 0 || v.handle == windows.InvalidHandle {
		return nil
	}
	return windows.CloseHandle(v.handle)
}
