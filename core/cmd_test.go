//go:build unix

package core

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/elankath/go-faultprobe/api"
	"github.com/elankath/go-faultprobe/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCommands compiles the executables under cmd/ into a temp dir.
func buildCommands(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping build of cmd/ executables in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not in PATH")
	}
	dir := t.TempDir()
	build := exec.Command(goBin, "build", "-o", dir,
		"../cmd/crashprobe", "../cmd/hangprobe", "../cmd/deadlockprobe")
	build.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build: %s", out)
	return dir
}

func newCommandObserver(t *testing.T, path string) api.Observer {
	t.Helper()
	obs, err := NewBasicObserver(api.ObserverConfig{
		ProbePath:    path,
		Interval:     50 * time.Millisecond,
		ErrThreshold: 3,
	})
	require.NoError(t, err)
	t.Cleanup(obs.Stop)
	return obs
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := buildCommands(t)

	t.Run("crashprobe", func(t *testing.T) {
		obs := newCommandObserver(t, filepath.Join(dir, "crashprobe"))
		require.NoError(t, obs.Start(context.Background()))

		v := CheckCrash(context.Background(), obs, time.Second)
		require.NoError(t, v.Err)
		assert.True(t, v.Passed)
		assert.Equal(t, api.TerminationSignaled, v.Outcome.Termination)
		assert.Equal(t, "SIGABRT", v.Outcome.Signal)
		assert.Equal(t, probe.CrashMessage+"\n", v.Outcome.Stdout)
		assert.Contains(t, v.Outcome.Stderr, "SIGSEGV")
	})

	for _, tt := range []struct {
		name    string
		message string
	}{
		{name: "hangprobe", message: probe.HangMessage},
		{name: "deadlockprobe", message: probe.DeadlockMessage},
	} {
		t.Run(tt.name, func(t *testing.T) {
			obs := newCommandObserver(t, filepath.Join(dir, tt.name))
			require.NoError(t, obs.Start(context.Background()))

			v := CheckHang(context.Background(), obs, HangCheck{
				Window:       2 * time.Second,
				MaxCPU:       5,
				Kill:         true,
				KillDeadline: time.Second,
			})
			require.NoError(t, v.Err)
			assert.True(t, v.Passed)
			assert.Equal(t, "SIGKILL", v.Outcome.Signal)
			assert.Less(t, v.KillLatency, time.Second)
			assert.Equal(t, tt.message+"\n", v.Outcome.Stdout)
		})
	}
}
