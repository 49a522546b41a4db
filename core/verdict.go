package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/elankath/go-faultprobe/api"
)

// CheckCrash waits up to window for a started probe to die and passes only if
// it was killed by a signal. A probe still running after window is killed.
func CheckCrash(ctx context.Context, obs api.Observer, window time.Duration) api.Verdict {
	v := api.Verdict{Expect: api.ExpectCrash}
	waitCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	o, err := obs.Wait(waitCtx)
	v.MeanCPU = MeanCPU(obs.Samples())
	if err != nil {
		v.Outcome = o
		v.Err = fmt.Errorf("%w: still alive after %s: %w", api.ErrStillRunning, window, err)
		if kerr := obs.Kill(os.Kill); kerr != nil {
			slog.Warn("failed to kill probe", "pid", o.PID, "error", kerr)
		}
		return v
	}
	v.Outcome = o
	switch {
	case !o.Abnormal():
		v.Err = fmt.Errorf("%w: exit code %d", api.ErrCleanExit, o.ExitCode)
	case o.Termination != api.TerminationSignaled:
		v.Err = fmt.Errorf("%w: exit code %d", api.ErrNotSignaled, o.ExitCode)
	default:
		v.Passed = true
	}
	return v
}

type HangCheck struct {
	// Window is how long the probe has to stay alive.
	Window time.Duration
	// MaxCPU is the highest mean CPU percentage a hung probe may use.
	MaxCPU float64
	// Kill makes the check force-terminate the probe after Window and
	// require it to die within KillDeadline.
	Kill         bool
	KillDeadline time.Duration
}

// CheckHang passes if a started probe stays alive and idle for the whole
// window and, when asked to, dies promptly once killed.
func CheckHang(ctx context.Context, obs api.Observer, hc HangCheck) api.Verdict {
	v := api.Verdict{Expect: api.ExpectHang}
	waitCtx, cancel := context.WithTimeout(ctx, hc.Window)
	defer cancel()
	o, err := obs.Wait(waitCtx)
	v.Outcome = o
	samples := obs.Samples()
	v.MeanCPU = MeanCPU(samples)
	if err == nil {
		v.Err = fmt.Errorf("%w: %s after %s", api.ErrUnexpectedExit, o.Termination, o.Lifetime().Round(time.Millisecond))
		return v
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		v.Err = err
		return v
	}
	alive, err := obs.Alive()
	if err != nil {
		v.Err = err
		return v
	}
	if !alive {
		v.Err = fmt.Errorf("%w: pid %d vanished", api.ErrUnexpectedExit, o.PID)
		return v
	}
	if len(samples) == 0 {
		v.Err = fmt.Errorf("%w: window %s is too short for the sampling interval", api.ErrNoSamples, hc.Window)
		return v
	}
	if v.MeanCPU > hc.MaxCPU {
		v.Err = fmt.Errorf("%w: mean %.2f%% exceeds %.2f%%", api.ErrBusySpin, v.MeanCPU, hc.MaxCPU)
		return v
	}
	if !hc.Kill {
		v.Passed = true
		return v
	}

	sent := time.Now()
	if err = obs.Kill(os.Kill); err != nil {
		v.Err = err
		return v
	}
	killCtx, killCancel := context.WithTimeout(ctx, hc.KillDeadline)
	defer killCancel()
	o, err = obs.Wait(killCtx)
	if err != nil {
		v.Err = fmt.Errorf("%w: not dead %s after kill: %w", api.ErrKillTimeout, hc.KillDeadline, err)
		return v
	}
	v.Outcome = o
	v.KillLatency = o.Ended.Sub(sent)
	v.Passed = true
	return v
}
