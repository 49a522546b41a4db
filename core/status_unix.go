//go:build unix

package core

import (
	"os"
	"syscall"

	"github.com/elankath/go-faultprobe/api"
	"golang.org/x/sys/unix"
)

func classify(pid int, state *os.ProcessState) api.Outcome {
	o := api.Outcome{PID: pid, Termination: api.TerminationUnset}
	if state == nil {
		return o
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		o.Termination = api.TerminationSignaled
		o.ExitCode = -1
		o.Signal = unix.SignalName(ws.Signal())
		return o
	}
	o.Termination = api.TerminationExited
	o.ExitCode = state.ExitCode()
	return o
}
