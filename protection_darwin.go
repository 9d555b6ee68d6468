// protection_darwin.go - Protection translation for the Mach VM calls
package peekpoke

import (
	"golang.org/x/sys/unix"
)

// nativeProt converts a Protection to VM_PROT_* bits. These have the same
// values as PROT_* on Darwin, so the unix constants serve both mmap and the
// mach_vm calls.
func (p Protection) nativeProt() int {
	prot := unix.PROT_NONE
	if p.CanRead() {
		prot |= unix.PROT_READ
	}
	if p.CanWrite() {
		prot |= unix.PROT_WRITE
	}
	if p.CanExecute() {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// protectionFromNative converts VM_PROT_*/PROT_* bits back to a Protection.
// The kernel reports writable regions as readable too (write implies
// read+copy), so the w-without-r case never round-trips.
func protectionFromNative(prot int) Protection {
	return protectionFromBits(
		prot&unix.PROT_READ != 0,
		prot&unix.PROT_WRITE != 0,
		prot&unix.PROT_EXEC != 0)
}
