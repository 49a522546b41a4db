package cli

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMainFlagsToOpts_Defaults(t *testing.T) {
	var opts MainOpts
	fs := SetupMainFlagsToOpts(&opts)
	require.NoError(t, fs.Parse([]string{"./crashprobe"}))

	assert.Equal(t, "crash", opts.Expect)
	assert.Equal(t, time.Second, opts.Observe)
	assert.Equal(t, 100*time.Millisecond, opts.Interval)
	assert.True(t, opts.Kill)
	assert.Equal(t, 5.0, opts.MaxCPU)
	assert.Equal(t, []string{"./crashprobe"}, fs.Args())

	code, err := ValidateMainOpts(&opts)
	assert.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
}

func TestSetupMainFlagsToOpts_Hang(t *testing.T) {
	var opts MainOpts
	fs := SetupMainFlagsToOpts(&opts)
	require.NoError(t, fs.Parse([]string{"-expect", "hang", "-observe", "10s", "-max-cpu", "2.5", "-report-dir", "/tmp/r", "./hangprobe"}))

	assert.Equal(t, "hang", opts.Expect)
	assert.Equal(t, 10*time.Second, opts.Observe)
	assert.Equal(t, 2.5, opts.MaxCPU)
	assert.Equal(t, "/tmp/r", opts.ReportDir)
	assert.Equal(t, []string{"./hangprobe"}, fs.Args())
}

func TestSetupMainFlagsToOpts_BadDuration(t *testing.T) {
	var opts MainOpts
	fs := SetupMainFlagsToOpts(&opts)
	fs.SetOutput(io.Discard)
	assert.Error(t, fs.Parse([]string{"-observe", "soon"}))
}

func TestValidateMainOpts(t *testing.T) {
	valid := func() MainOpts {
		return MainOpts{
			Expect:       "hang",
			Observe:      time.Second,
			Interval:     100 * time.Millisecond,
			Kill:         true,
			KillDeadline: time.Second,
			MaxCPU:       5,
		}
	}
	tests := []struct {
		name   string
		mutate func(*MainOpts)
		ok     bool
	}{
		{name: "valid", mutate: func(*MainOpts) {}, ok: true},
		{name: "unknown fault", mutate: func(o *MainOpts) { o.Expect = "leak" }},
		{name: "zero observe", mutate: func(o *MainOpts) { o.Observe = 0 }},
		{name: "zero interval", mutate: func(o *MainOpts) { o.Interval = 0 }},
		{name: "cpu too high", mutate: func(o *MainOpts) { o.MaxCPU = 101 }},
		{name: "cpu zero", mutate: func(o *MainOpts) { o.MaxCPU = 0 }},
		{name: "hang window too short", mutate: func(o *MainOpts) { o.Observe = 150 * time.Millisecond }},
		{name: "hang window equals interval", mutate: func(o *MainOpts) { o.Interval = time.Second }},
		{name: "crash window shorter than interval", mutate: func(o *MainOpts) { o.Expect = "crash"; o.Observe = 50 * time.Millisecond }, ok: true},
		{name: "kill without deadline", mutate: func(o *MainOpts) { o.KillDeadline = 0 }},
		{name: "no kill no deadline", mutate: func(o *MainOpts) { o.Kill = false; o.KillDeadline = 0 }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.mutate(&opts)
			code, err := ValidateMainOpts(&opts)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, ExitSuccess, code)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidOpts)
			assert.Equal(t, ExitInvalidOpts, code)
		})
	}
}
