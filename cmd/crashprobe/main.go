// Command crashprobe kills itself with a write through a null pointer.
//
// The runtime reports the SIGSEGV on stderr and then aborts, so the parent
// sees the process die from SIGABRT.
package main

import (
	"os"

	"github.com/elankath/go-faultprobe/probe"
)

func main() {
	probe.Crash(os.Stdout)
}
