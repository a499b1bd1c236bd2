package compressor

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("already processing videos")

	// ErrBusy is returned by Move while a run is in progress.
	ErrBusy = errors.New("cannot change directory while processing")

	// ErrOutsideRoot is returned by Move for a target outside the media root.
	ErrOutsideRoot = errors.New("directory is outside the media root")

	// ErrNotDirectory is returned by Move for a target that is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrClosed is returned by Start after Shutdown.
	ErrClosed = errors.New("orchestrator is shut down")

	// ErrStopTimeout is returned by Stop when the run loop did not unwind in time.
	ErrStopTimeout = errors.New("timed out waiting for the run to stop")
)
