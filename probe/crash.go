package probe

import (
	"fmt"
	"io"
	"runtime/debug"
	"unsafe"
)

// nullAddress is a variable so the write in writeNull is never folded away.
var nullAddress uintptr

// Crash announces itself on w and writes through the null address.
//
// The Go runtime turns the resulting SIGSEGV into a panic that would normally
// end with exit status 2. Raising the traceback level to "crash" makes the
// runtime abort the process with a signal instead, so the parent sees a
// signaled termination as it would for a C program.
func Crash(w io.Writer) {
	debug.SetTraceback("crash")
	_, _ = fmt.Fprintln(w, CrashMessage)
	writeNull()
}

//go:noinline
func writeNull() {
	// UNSAFE: deliberate store to address zero.
	p := (*int32)(unsafe.Pointer(nullAddress))
	*p = 42
}
