package probe

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Hang announces itself on w and then sleeps in IdleInterval steps forever.
func Hang(w io.Writer) {
	_, _ = fmt.Fprintln(w, HangMessage)
	idle()
}

// lockPause gives each worker time to take its first lock before it asks for
// the second one.
const lockPause = 500 * time.Millisecond

// Deadlock announces itself on w and starts two workers that take the same two
// mutexes in opposite order. The calling goroutine idles like Hang, which
// keeps the runtime from reporting a global deadlock and exiting.
func Deadlock(w io.Writer) {
	_, _ = fmt.Fprintln(w, DeadlockMessage)
	var a, b sync.Mutex
	go lockBoth(&a, &b)
	go lockBoth(&b, &a)
	idle()
}

func lockBoth(first, second *sync.Mutex) {
	first.Lock()
	time.Sleep(lockPause)
	second.Lock()
	second.Unlock()
	first.Unlock()
}
