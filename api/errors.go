package api

import "errors"

var (
	ErrCreateReportDir   = errors.New("cannot create report directory")
	ErrCannotFindProcess = errors.New("cannot find process")
	ErrLaunchProbe       = errors.New("cannot launch probe")
	ErrNotStarted        = errors.New("observer not started")
	ErrAlreadyStarted    = errors.New("observer already started")

	ErrGetMetrics    = errors.New("cannot get metrics")
	ErrStoppedByUser = errors.New("stopped by user")

	ErrThresholdExceeded = errors.New("error threshold exceeded")

	ErrCleanExit      = errors.New("probe exited normally")
	ErrNotSignaled    = errors.New("probe exited without a fault signal")
	ErrStillRunning   = errors.New("probe did not terminate")
	ErrUnexpectedExit = errors.New("probe terminated on its own")
	ErrBusySpin       = errors.New("probe consumed cpu while hung")
	ErrNoSamples      = errors.New("no cpu samples taken during observation")
	ErrKillTimeout    = errors.New("probe survived forced termination")
)
