// process.go - Process and module records
package peekpoke

import (
	"strings"
)

// Process identifies a running process. The fields are informational;
// open a ProcessView on the PID to touch its memory.
type Process struct {
	PID  int
	Name string
	Path string
	Arch Arch
}

// Module is a binary image loaded into some process
type Module struct {
	Base uintptr
	Size uintptr
	Name string
	Path string
}

// FindProcess returns the first process whose name matches, ignoring
// case. An exact name match is preferred over a substring match.
func FindProcess(name string) (Process, bool) {
	procs, err := Processes()
	if err != nil {
		return Process{}, false
	}
	lower := strings.ToLower(name)
	var partial Process
	found := false
	for _, p := range procs {
		pn := strings.ToLower(p.Name)
		if pn == lower {
			return p, true
		}
		if !found && strings.Contains(pn, lower) {
			partial = p
			found = true
		}
	}
	return partial, found
}

// FindModule returns the module with the given name, ignoring case,
// from the process with the given pid
func FindModule(pid int, name string) (Module, bool) {
	mods, err := Modules(pid)
	if err != nil {
		return Module{}, false
	}
	lower := strings.ToLower(name)
	for _, m := range mods {
		if strings.ToLower(m.Name) == lower {
			return m, true
		}
	}
	return Module{}, false
}
