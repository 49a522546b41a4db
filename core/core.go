package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/elankath/go-faultprobe/api"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/process"
)

const defaultInterval = 100 * time.Millisecond

type basicObserver struct {
	cfg    api.ObserverConfig
	runID  string
	cmd    *exec.Cmd
	proc   *process.Process
	cancel context.CancelCauseFunc
	done   chan struct{}

	stdout lockedBuffer
	stderr lockedBuffer

	mu         sync.Mutex
	started    time.Time
	outcome    api.Outcome
	samples    []api.Sample
	errCounter int
	lastCPU    float64
	lastProbe  time.Time
}

func NewBasicObserver(cfg api.ObserverConfig) (api.Observer, error) {
	if cfg.ProbePath == "" {
		return nil, fmt.Errorf("%w: probe path is empty", api.ErrLaunchProbe)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.ReportDir != "" {
		err := os.MkdirAll(cfg.ReportDir, 0755)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", api.ErrCreateReportDir, err)
		}
	}
	return &basicObserver{
		cfg:   cfg,
		runID: uuid.NewString(),
		done:  make(chan struct{}),
	}, nil
}

func (b *basicObserver) Start(ctx context.Context) error {
	if b.cmd != nil {
		return api.ErrAlreadyStarted
	}
	ctx, b.cancel = context.WithCancelCause(ctx)

	cmd := exec.Command(b.cfg.ProbePath, b.cfg.ProbeArgs...)
	if len(b.cfg.ProbeEnv) > 0 {
		cmd.Env = append(os.Environ(), b.cfg.ProbeEnv...)
	}
	cmd.Stdout = b.output(&b.stdout)
	cmd.Stderr = b.output(&b.stderr)
	err := cmd.Start()
	if err != nil {
		b.cancel(err)
		return fmt.Errorf("%w: %q: %w", api.ErrLaunchProbe, b.cfg.ProbePath, err)
	}
	b.cmd = cmd
	b.started = time.Now()

	pid := cmd.Process.Pid
	// The child is not reaped before reap runs, so it is still visible here
	// even if it has already crashed.
	b.proc, err = process.NewProcess(int32(pid))
	if err != nil {
		_ = cmd.Process.Kill()
		go b.reap()
		b.cancel(err)
		return fmt.Errorf("%w: pid %d of %q: %w", api.ErrCannotFindProcess, pid, b.cfg.ProbePath, err)
	}
	go b.reap()
	go b.monitorProbeEveryInterval(ctx)
	slog.Info("probe launched", "runID", b.runID, "path", b.cfg.ProbePath, "pid", pid)
	return nil
}

func (b *basicObserver) output(buf *lockedBuffer) io.Writer {
	if b.cfg.Echo == nil {
		return buf
	}
	return io.MultiWriter(buf, b.cfg.Echo)
}

func (b *basicObserver) reap() {
	err := b.cmd.Wait()
	ended := time.Now()
	o := classify(b.cmd.Process.Pid, b.cmd.ProcessState)
	if o.Termination == api.TerminationUnset && err != nil {
		slog.Warn("probe wait failed", "runID", b.runID, "pid", o.PID, "error", err)
	}
	o.Started = b.started
	o.Ended = ended
	o.Stdout = b.stdout.String()
	o.Stderr = b.stderr.String()

	b.mu.Lock()
	b.outcome = o
	b.mu.Unlock()
	close(b.done)
	slog.Info("probe terminated", "runID", b.runID, "pid", o.PID, "termination", o.Termination,
		"exitCode", o.ExitCode, "signal", o.Signal, "lifetime", o.Lifetime())
}

func (b *basicObserver) Alive() (bool, error) {
	if b.cmd == nil {
		return false, api.ErrNotStarted
	}
	select {
	case <-b.done:
		return false, nil
	default:
	}
	if b.proc == nil {
		return false, nil
	}
	running, err := b.proc.IsRunning()
	if err != nil {
		return false, fmt.Errorf("%w: pid %d: %w", api.ErrCannotFindProcess, b.proc.Pid, err)
	}
	return running, nil
}

func (b *basicObserver) Kill(sig os.Signal) error {
	if b.cmd == nil {
		return api.ErrNotStarted
	}
	select {
	case <-b.done:
		slog.Debug("probe already terminated, not signalling", "runID", b.runID, "signal", sig)
		return nil
	default:
	}
	slog.Info("signalling probe", "runID", b.runID, "pid", b.cmd.Process.Pid, "signal", sig)
	err := b.cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (b *basicObserver) Wait(ctx context.Context) (api.Outcome, error) {
	if b.cmd == nil {
		return api.Outcome{Termination: api.TerminationUnset}, api.ErrNotStarted
	}
	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.outcome, nil
	case <-ctx.Done():
		return api.Outcome{
			PID:         b.cmd.Process.Pid,
			Termination: api.TerminationUnset,
			Started:     b.started,
		}, ctx.Err()
	}
}

func (b *basicObserver) Samples() []api.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	samples := make([]api.Sample, len(b.samples))
	copy(samples, b.samples)
	return samples
}

func (b *basicObserver) Stdout() string {
	return b.stdout.String()
}

func (b *basicObserver) monitorProbeEveryInterval(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Stopping probe sampling due to context cancellation", "runID", b.runID, "reason", context.Cause(ctx))
			return
		case <-b.done:
			return
		case <-time.After(b.cfg.Interval):
			b.sampleProbe()
		}
	}
}

func (b *basicObserver) sampleProbe() {
	times, err := b.proc.Times()
	if err != nil {
		b.handleMetricErr(err)
		return
	}
	mem, err := b.proc.MemoryInfo()
	if err != nil {
		b.handleMetricErr(err)
		return
	}
	now := time.Now()
	total := times.User + times.System

	b.mu.Lock()
	defer b.mu.Unlock()
	// the first reading only sets the baseline, so process startup is not
	// counted against an idle probe
	if b.lastProbe.IsZero() {
		b.lastCPU = total
		b.lastProbe = now
		return
	}
	var cpu float64
	if elapsed := now.Sub(b.lastProbe).Seconds(); elapsed > 0 {
		cpu = (total - b.lastCPU) / elapsed * 100
	}
	b.lastCPU = total
	b.lastProbe = now
	m := api.Sample{
		ProbeTime: now,
		CPU:       cpu,
		MemRSS:    mem.RSS,
		MemVMS:    mem.VMS,
	}
	if b.samples == nil {
		b.samples = make([]api.Sample, 0, 200)
	}
	b.samples = append(b.samples, m)
	slog.Debug("Sample captured", "runID", b.runID, "pid", b.proc.Pid, "CPU", m.CPU, "MemRSS", m.MemRSS, "MemVMS", m.MemVMS)
}

func (b *basicObserver) handleMetricErr(err error) {
	select {
	case <-b.done:
		// metrics of a process that just died are expected to fail
		return
	default:
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errCounter > b.cfg.ErrThreshold {
		err = fmt.Errorf("%w: %w %d: %w", api.ErrGetMetrics, api.ErrThresholdExceeded, b.cfg.ErrThreshold, err)
		slog.Error("giving up on sampling probe", "runID", b.runID, "error", err)
		b.cancel(err)
		return
	}
	b.errCounter++
	slog.Warn("Failed to sample probe", "runID", b.runID, "errCounter", b.errCounter, "err", err)
}

func (b *basicObserver) stop(err error) {
	if b.cancel != nil {
		b.cancel(err)
	}
}

// Stop ends sampling and kills the probe if it is still running.
func (b *basicObserver) Stop() {
	slog.Info("Stopping observer", "runID", b.runID)
	b.stop(api.ErrStoppedByUser)
	if b.cmd == nil {
		return
	}
	if err := b.Kill(os.Kill); err != nil {
		slog.Warn("failed to kill probe", "runID", b.runID, "error", err)
		return
	}
	<-b.done
}

var _ api.Observer = (*basicObserver)(nil)

// MeanCPU averages the per-interval CPU percentages of samples.
func MeanCPU(samples []api.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.CPU
	}
	return sum / float64(len(samples))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}
