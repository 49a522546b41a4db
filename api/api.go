package api

import (
	"context"
	"io"
	"os"
	"time"
)

// Observer launches a single probe as a subprocess and watches it until it
// terminates or is killed.
type Observer interface {
	Start(ctx context.Context) error
	Alive() (bool, error)
	Kill(sig os.Signal) error
	Wait(ctx context.Context) (Outcome, error)
	Samples() []Sample
	Stdout() string
	Report(v Verdict) error
	Stop()
}

type ObserverConfig struct {
	ProbePath        string
	ProbeArgs        []string
	ProbeEnv         []string
	Interval         time.Duration
	ErrThreshold     int
	ReportDir        string
	ReportNamePrefix string
	// Echo, if set, receives a copy of the probe's stdout and stderr.
	Echo io.Writer
}

// Termination is how a probe process ended, as seen by its parent.
type Termination string

const (
	TerminationUnset    Termination = "unset"
	TerminationSignaled Termination = "signaled"
	TerminationExited   Termination = "exited"
)

type Expectation string

const (
	ExpectCrash Expectation = "crash"
	ExpectHang  Expectation = "hang"
)

type Outcome struct {
	PID         int
	Termination Termination
	ExitCode    int
	Signal      string
	Started     time.Time
	Ended       time.Time
	Stdout      string
	Stderr      string
}

// Abnormal reports whether the process died from a signal or exited with a
// non-zero status.
func (o Outcome) Abnormal() bool {
	switch o.Termination {
	case TerminationSignaled:
		return true
	case TerminationExited:
		return o.ExitCode != 0
	}
	return false
}

func (o Outcome) Lifetime() time.Duration {
	if o.Ended.IsZero() {
		return 0
	}
	return o.Ended.Sub(o.Started)
}

type Sample struct {
	ProbeTime time.Time
	// CPU is the percentage of one core used since the previous sample.
	CPU    float64
	MemRSS uint64
	MemVMS uint64
}

// Verdict is the result of checking an observed probe against what it is
// expected to do.
type Verdict struct {
	Expect      Expectation
	Passed      bool
	Err         error
	Outcome     Outcome
	MeanCPU     float64
	KillLatency time.Duration
}
