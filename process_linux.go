// process_linux.go - Process and module enumeration through /proc
package peekpoke

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Processes lists the processes visible under /proc
func Processes() ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("reading /proc: %w", ErrOperationFailed)
	}
	var procs []Process
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		p := Process{PID: pid, Arch: NativeArch()}
		if comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid)); err == nil {
			p.Name = strings.TrimSpace(string(comm))
		}
		if path, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
			p.Path = path
			if arch, ok := elfArch(path); ok {
				p.Arch = arch
			}
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// Modules lists the file-backed mappings of a process, one entry per
// mapped file, spanning from its lowest to its highest mapping
func Modules(pid int) ([]Module, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("process %d: %w", pid, ErrAccessDenied)
		}
		return nil, fmt.Errorf("process %d: %w", pid, ErrOperationFailed)
	}
	defer f.Close()

	type span struct {
		base, end uintptr
	}
	spans := make(map[string]*span)
	var order []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) < 6 || !strings.HasPrefix(fields[5], "/") {
			continue
		}
		start, end, _, ok := parseMapsLine(line)
		if !ok {
			continue
		}
		path := fields[5]
		if s, seen := spans[path]; seen {
			if start < s.base {
				s.base = start
			}
			if end > s.end {
				s.end = end
			}
		} else {
			spans[path] = &span{base: start, end: end}
			order = append(order, path)
		}
	}
	mods := make([]Module, 0, len(order))
	for _, path := range order {
		s := spans[path]
		mods = append(mods, Module{
			Base: s.base,
			Size: s.end - s.base,
			Name: filepath.Base(path),
			Path: path,
		})
	}
	return mods, nil
}

// elfArch reads the e_machine field of an ELF file
func elfArch(path string) (Arch, bool) {
	f, err := os.Open(path)
	if err != nil {
		return ArchUnknown, false
	}
	defer f.Close()
	var header [20]byte
	if _, err := f.Read(header[:]); err != nil {
		return ArchUnknown, false
	}
	if string(header[:4]) != "\x7fELF" {
		return ArchUnknown, false
	}
	switch binary.LittleEndian.Uint16(header[18:20]) {
	case 0x3E:
		return ArchX86_64, true
	case 0xB7:
		return ArchARM64, true
	case 0xF3:
		return ArchRiscv64, true
	default:
		return ArchUnknown, false
	}
}
