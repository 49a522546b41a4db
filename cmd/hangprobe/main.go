// Command hangprobe never exits and uses no CPU. Stop it with a signal.
package main

import (
	"os"

	"github.com/elankath/go-faultprobe/probe"
)

func main() {
	probe.Hang(os.Stdout)
}
