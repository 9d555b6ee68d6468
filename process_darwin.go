// process_darwin.go - Process and module enumeration through libproc and dyld
package peekpoke

/*
#include <libproc.h>
#include <mach/mach.h>
#include <sys/proc_info.h>
*/
import "C"

import (
	"fmt"
	"path/filepath"
	"unsafe"
)

// Processes lists the processes visible to the caller
func Processes() ([]Process, error) {
	n := C.proc_listpids(C.PROC_ALL_PIDS, 0, nil, 0)
	if n <= 0 {
		return nil, fmt.Errorf("proc_listpids: %w", ErrOperationFailed)
	}
	pids := make([]C.int, n/C.int(unsafe.Sizeof(C.int(0)))+16)
	n = C.proc_listpids(C.PROC_ALL_PIDS, 0,
		unsafe.Pointer(&pids[0]), C.int(len(pids))*C.int(unsafe.Sizeof(C.int(0))))
	if n <= 0 {
		return nil, fmt.Errorf("proc_listpids: %w", ErrOperationFailed)
	}
	count := int(n) / int(unsafe.Sizeof(C.int(0)))
	procs := make([]Process, 0, count)
	for _, pid := range pids[:count] {
		if pid <= 0 {
			continue
		}
		p := Process{PID: int(pid), Arch: NativeArch()}
		var pathBuf [C.PROC_PIDPATHINFO_MAXSIZE]C.char
		if C.proc_pidpath(pid, unsafe.Pointer(&pathBuf[0]), C.PROC_PIDPATHINFO_MAXSIZE) > 0 {
			p.Path = C.GoString(&pathBuf[0])
			p.Name = filepath.Base(p.Path)
		}
		if p.Name == "" {
			var nameBuf [64]C.char
			if C.proc_name(pid, unsafe.Pointer(&nameBuf[0]), 64) > 0 {
				p.Name = C.GoString(&nameBuf[0])
			}
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// dyldImageInfo mirrors struct dyld_image_info for 64-bit targets
type dyldImageInfo struct {
	LoadAddress uintptr
	FilePath    uintptr
	ModDate     uintptr
}

// Modules lists the dyld images loaded into a process by reading the
// target's dyld_all_image_infos through a process view. The reported
// size covers the image's first mapped region.
func Modules(pid int) ([]Module, error) {
	v, err := NewProcessView(pid)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	var dyldInfo C.task_dyld_info_data_t
	count := C.mach_msg_type_number_t(C.sizeof_task_dyld_info_data_t / 4)
	kr := C.task_info(v.task, C.TASK_DYLD_INFO,
		C.task_info_t(unsafe.Pointer(&dyldInfo)), &count)
	if kr != C.KERN_SUCCESS {
		return nil, fmt.Errorf("task_info %d: %w", pid, ErrOperationFailed)
	}

	// struct dyld_all_image_infos: version, infoArrayCount, infoArray
	infos := uintptr(dyldInfo.all_image_info_addr)
	imageCount, ok := ReadValue[uint32](v, infos+4)
	if !ok {
		return nil, fmt.Errorf("process %d: reading dyld image count: %w", pid, ErrOperationFailed)
	}
	arrayAddr, ok := ReadValue[uintptr](v, infos+8)
	if !ok || arrayAddr == 0 {
		return nil, fmt.Errorf("process %d: reading dyld image array: %w", pid, ErrOperationFailed)
	}

	entries := ReadArray[dyldImageInfo](v, arrayAddr, int(imageCount))
	mods := make([]Module, 0, len(entries))
	for _, e := range entries {
		if e.LoadAddress == 0 {
			continue
		}
		m := Module{Base: e.LoadAddress, Size: regionSize(v, e.LoadAddress)}
		if e.FilePath != 0 {
			m.Path = ReadString(v, e.FilePath, 1024, UTF8, true)
			m.Name = filepath.Base(m.Path)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// regionSize returns the size of the VM region starting at addr
func regionSize(v *ProcessView, addr uintptr) uintptr {
	regionAddr := C.mach_vm_address_t(addr)
	var size C.mach_vm_size_t
	var info C.vm_region_basic_info_data_64_t
	count := C.mach_msg_type_number_t(C.sizeof_vm_region_basic_info_data_64_t / 4)
	var objName C.mach_port_t
	kr := C.mach_vm_region(v.task, &regionAddr, &size,
		C.VM_REGION_BASIC_INFO_64,
		C.vm_region_info_t(unsafe.Pointer(&info)), &count, &objName)
	if kr != C.KERN_SUCCESS || regionAddr != C.mach_vm_address_t(addr) {
		return 0
	}
	return uintptr(size)
}
