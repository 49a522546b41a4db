//go:build !unix

package core

import (
	"os"

	"github.com/elankath/go-faultprobe/api"
)

// Without wait statuses a fault shows up only as a non-zero exit code.
func classify(pid int, state *os.ProcessState) api.Outcome {
	o := api.Outcome{PID: pid, Termination: api.TerminationUnset}
	if state == nil {
		return o
	}
	o.Termination = api.TerminationExited
	o.ExitCode = state.ExitCode()
	return o
}
