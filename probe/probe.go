// Package probe holds the fault behaviors behind the probe executables.
//
// Each exported function writes exactly one announcement line to the given
// writer and then never returns: Crash dies from a memory protection fault,
// Hang and Deadlock stay alive and idle until killed from outside.
package probe

import "time"

// Announcement lines. They are informational; a harness should judge a probe
// by its termination status, not by these.
const (
	CrashMessage    = "About to dereference a null pointer... this will crash."
	HangMessage     = "Spinning forever to simulate a hang..."
	DeadlockMessage = "Deadlock demo starting..."
)

// IdleInterval is how long a hung probe sleeps between wakeups. It bounds how
// late a hung probe notices a termination signal.
const IdleInterval = 100 * time.Millisecond

func idle() {
	for {
		time.Sleep(IdleInterval)
	}
}
