// protection_windows.go - Protection translation for the PAGE_* constants
package peekpoke

import (
	"golang.org/x/sys/windows"
)

// nativeProt converts a Protection to a PAGE_* value
func (p Protection) nativeProt() uint32 {
	switch p {
	case ProtRead:
		return windows.PAGE_READONLY
	case ProtExecute:
		return windows.PAGE_EXECUTE
	case ProtReadWrite:
		return windows.PAGE_READWRITE
	case ProtReadExecute:
		return windows.PAGE_EXECUTE_READ
	case ProtReadWriteExecute:
		return windows.PAGE_EXECUTE_READWRITE
	default:
		return windows.PAGE_NOACCESS
	}
}

// protectionFromNative converts a PAGE_* value back to a Protection.
// Copy-on-write pages report as their writable equivalents.
func protectionFromNative(native uint32) Protection {
	switch native &^ (windows.PAGE_GUARD | windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		return ProtRead
	case windows.PAGE_EXECUTE:
		return ProtExecute
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return ProtReadWrite
	case windows.PAGE_EXECUTE_READ:
		return ProtReadExecute
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return ProtReadWriteExecute
	default:
		return ProtNone
	}
}
