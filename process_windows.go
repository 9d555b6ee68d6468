// process_windows.go - Process and module enumeration through Toolhelp32
package peekpoke

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Processes lists the processes in the system snapshot
func Processes() ([]Process, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %v: %w", err, ErrOperationFailed)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("Process32First: %v: %w", err, ErrOperationFailed)
	}
	var procs []Process
	for {
		procs = append(procs, Process{
			PID:  int(entry.ProcessID),
			Name: windows.UTF16ToString(entry.ExeFile[:]),
			Arch: NativeArch(),
		})
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return procs, nil
}

// Modules lists the modules loaded into a process
func Modules(pid int) ([]Module, error) {
	snap, err := windows.CreateToolhelp32Snapshot(
		windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return nil, fmt.Errorf("process %d: %w", pid, ErrAccessDenied)
		}
		return nil, fmt.Errorf("process %d: %v: %w", pid, err, ErrOperationFailed)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Module32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("Module32First: %v: %w", err, ErrOperationFailed)
	}
	var mods []Module
	for {
		mods = append(mods, Module{
			Base: entry.ModBaseAddr,
			Size: uintptr(entry.ModBaseSize),
			Name: windows.UTF16ToString(entry.Module[:]),
			Path: windows.UTF16ToString(entry.ExePath[:]),
		})
		if err := windows.Module32Next(snap, &entry); err != nil {
			break
		}
	}
	return mods, nil
}
