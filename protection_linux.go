// protection_linux.go - Protection translation for mmap/mprotect
package peekpoke

import (
	"golang.org/x/sys/unix"
)

// nativeProt converts a Protection to PROT_* bits
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

// protectionFromNative converts PROT_* bits back to a Protection
func protectionFromNative(prot int) Protection {
	return protectionFromBits(
		prot&unix.PROT_READ != 0,
		prot&unix.PROT_WRITE != 0,
		prot&unix.PROT_EXEC != 0)
}
