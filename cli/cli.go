package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/elankath/go-faultprobe/api"
)

const (
	ExitSuccess int = iota
	ExitOptsParseErr
	ExitMissingArgs
	ExitCreateObserver
	ExitStartObserver
	ExitVerdictFailed
	ExitInvalidOpts
	ExitGeneral = 255
)

type MainOpts struct {
	Expect           string
	Observe          time.Duration
	Interval         time.Duration
	Kill             bool
	KillDeadline     time.Duration
	MaxCPU           float64
	ErrThreshold     int
	ReportDir        string
	ReportNamePrefix string
	Verbose          bool
	ProbePath        string
	ProbeArgs        []string
}

var ErrInvalidOpts = errors.New("invalid options")

func ValidateMainOpts(mainOpts *MainOpts) (exitCode int, err error) {
	switch api.Expectation(mainOpts.Expect) {
	case api.ExpectCrash, api.ExpectHang:
	default:
		return ExitInvalidOpts, fmt.Errorf("%w: -expect must be %q or %q, got %q", ErrInvalidOpts, api.ExpectCrash, api.ExpectHang, mainOpts.Expect)
	}
	if mainOpts.Observe <= 0 {
		return ExitInvalidOpts, fmt.Errorf("%w: -observe must be positive", ErrInvalidOpts)
	}
	if mainOpts.Interval <= 0 {
		return ExitInvalidOpts, fmt.Errorf("%w: -interval must be positive", ErrInvalidOpts)
	}
	// the first sample is a baseline, so a hang window needs room for at
	// least one more
	if api.Expectation(mainOpts.Expect) == api.ExpectHang && mainOpts.Observe < 3*mainOpts.Interval {
		return ExitInvalidOpts, fmt.Errorf("%w: -observe %s must be at least three -interval %s", ErrInvalidOpts, mainOpts.Observe, mainOpts.Interval)
	}
	if mainOpts.MaxCPU <= 0 || mainOpts.MaxCPU > 100 {
		return ExitInvalidOpts, fmt.Errorf("%w: -max-cpu must be in (0, 100], got %v", ErrInvalidOpts, mainOpts.MaxCPU)
	}
	if mainOpts.Kill && mainOpts.KillDeadline <= 0 {
		return ExitInvalidOpts, fmt.Errorf("%w: -kill-deadline must be positive", ErrInvalidOpts)
	}
	return
}

func SetupMainFlagsToOpts(mainOpts *MainOpts) *flag.FlagSet {
	mainFlags := flag.NewFlagSet("main", flag.ContinueOnError)
	mainFlags.StringVar(&mainOpts.Expect, "expect", string(api.ExpectCrash), "Expected fault: crash or hang")
	mainFlags.DurationVar(&mainOpts.Observe, "observe", time.Second, "How long to wait for a crash, or how long a hang must last")
	mainFlags.DurationVar(&mainOpts.Interval, "interval", 100*time.Millisecond, "Sampling interval for liveness and CPU")
	mainFlags.BoolVar(&mainOpts.Kill, "kill", true, "Force-terminate a hung probe after the observation window and time its death")
	mainFlags.DurationVar(&mainOpts.KillDeadline, "kill-deadline", time.Second, "How long a killed probe may take to die")
	mainFlags.Float64Var(&mainOpts.MaxCPU, "max-cpu", 5, "Highest mean CPU percentage a hung probe may use")
	mainFlags.IntVar(&mainOpts.ErrThreshold, "errt", 3, "Sampling error threshold beyond which sampling will stop")
	mainFlags.StringVar(&mainOpts.ReportDir, "report-dir", "", "Directory for the YAML summary and HTML charts (no report if empty)")
	mainFlags.StringVar(&mainOpts.ReportNamePrefix, "report-prefix", "", "Report file name prefix (defaults to the probe name)")
	mainFlags.BoolVar(&mainOpts.Verbose, "v", false, "Log every sample")
	standardUsage := mainFlags.PrintDefaults
	mainFlags.Usage = func() {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: go-faultprobe <flags> <probe> [probe args...]")
		_, _ = fmt.Fprintln(os.Stderr, "<flags>")
		standardUsage()
		_, _ = fmt.Fprintln(os.Stderr, "<probe>: path of the probe executable to launch and observe")
	}
	return mainFlags
}
