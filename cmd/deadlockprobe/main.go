// Command deadlockprobe never exits: two of its goroutines are stuck in a
// lock-order deadlock while the main goroutine idles.
package main

import (
	"os"

	"github.com/elankath/go-faultprobe/probe"
)

func main() {
	probe.Deadlock(os.Stdout)
}
