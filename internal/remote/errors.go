package remote

import "errors"

// Failure kinds surfaced by the remote clients and the polling loop.
// Poll failures propagate to callers unmodified; retry policy is theirs.
var (
	// ErrRemoteJobFailed means the remote service reported FAILURE.
	ErrRemoteJobFailed = errors.New("remote job failed")

	// ErrRemoteJobCancelled means an administrator terminated the job.
	ErrRemoteJobCancelled = errors.New("remote job terminated by admin")

	// ErrRemoteJobTimeout means no terminal status was observed within the
	// maximum wait.
	ErrRemoteJobTimeout = errors.New("remote job did not complete in time")

	// ErrServiceUnavailable means the remote could not be reached at
	// submission time.
	ErrServiceUnavailable = errors.New("remote service unavailable")
)
