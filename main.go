package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/elankath/go-faultprobe/api"
	"github.com/elankath/go-faultprobe/cli"
	"github.com/elankath/go-faultprobe/core"
)

func main() {
	var mainOpts cli.MainOpts
	var err error
	var exitCode int

	mainFlags := cli.SetupMainFlagsToOpts(&mainOpts)
	err = mainFlags.Parse(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		mainFlags.Usage()
		os.Exit(cli.ExitOptsParseErr)
	}

	exitCode, err = cli.ValidateMainOpts(&mainOpts)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Err: %v\n", err.Error())
		mainFlags.Usage()
		os.Exit(exitCode)
	}
	args := mainFlags.Args()
	if len(args) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "probe path arg is mandatory")
		mainFlags.Usage()
		os.Exit(cli.ExitMissingArgs)
	}
	mainOpts.ProbePath, mainOpts.ProbeArgs = args[0], args[1:]
	if mainOpts.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg := api.ObserverConfig{
		ProbePath:        mainOpts.ProbePath,
		ProbeArgs:        mainOpts.ProbeArgs,
		Interval:         mainOpts.Interval,
		ErrThreshold:     mainOpts.ErrThreshold,
		ReportDir:        mainOpts.ReportDir,
		ReportNamePrefix: mainOpts.ReportNamePrefix,
		Echo:             os.Stderr,
	}
	obs, err := core.NewBasicObserver(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Err: %v\n", err.Error())
		os.Exit(cli.ExitCreateObserver)
	}
	defer obs.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = obs.Start(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Err: %v\n", err.Error())
		os.Exit(cli.ExitStartObserver)
	}

	var v api.Verdict
	switch api.Expectation(mainOpts.Expect) {
	case api.ExpectCrash:
		v = core.CheckCrash(ctx, obs, mainOpts.Observe)
	case api.ExpectHang:
		v = core.CheckHang(ctx, obs, core.HangCheck{
			Window:       mainOpts.Observe,
			MaxCPU:       mainOpts.MaxCPU,
			Kill:         mainOpts.Kill,
			KillDeadline: mainOpts.KillDeadline,
		})
	}
	if err = obs.Report(v); err != nil {
		slog.Error("failed to write report", "error", err)
	}

	o := v.Outcome
	if !v.Passed {
		slog.Error("probe verdict: FAIL", "expect", v.Expect, "pid", o.PID, "termination", o.Termination,
			"exitCode", o.ExitCode, "signal", o.Signal, "meanCPU", v.MeanCPU, "error", v.Err)
		obs.Stop()
		os.Exit(cli.ExitVerdictFailed)
	}
	slog.Info("probe verdict: PASS", "expect", v.Expect, "pid", o.PID, "termination", o.Termination,
		"signal", o.Signal, "lifetime", o.Lifetime(), "meanCPU", v.MeanCPU, "killLatency", v.KillLatency)
}
