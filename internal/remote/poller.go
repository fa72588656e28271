package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Terminal states reported by the remote job-status endpoints.
const (
	statusSuccess = "SUCCESS"
	statusFailure = "FAILURE"
	statusRevoked = "REVOKED"
)

// StatusFunc returns the current state of a remote job.
type StatusFunc func(ctx context.Context) (string, error)

// Poller turns a remote asynchronous job into a synchronous result with a
// hard deadline. It blocks the calling goroutine for up to MaxWait; callers
// that cannot tolerate blocking must use the dispatch endpoints instead.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration
	logger   *logrus.Logger
}

func NewPoller(interval, maxWait time.Duration, logger *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if maxWait <= 0 {
		maxWait = time.Hour
	}
	return &Poller{
		Interval: interval,
		MaxWait:  maxWait,
		logger:   logger,
	}
}

// AwaitCompletion polls status at Interval spacing until a terminal state is
// observed or MaxWait elapses. A failed status query (remote unreachable or
// non-2xx) is treated as transient: polling continues within the deadline.
// Terminal mapping: SUCCESS -> nil, FAILURE -> ErrRemoteJobFailed,
// REVOKED -> ErrRemoteJobCancelled, deadline -> ErrRemoteJobTimeout.
func (p *Poller) AwaitCompletion(ctx context.Context, status StatusFunc) error {
	deadline := time.Now().Add(p.MaxWait)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}

		state, err := status(ctx)
		if err != nil {
			// Transient unavailability is tolerated within the deadline.
			p.logger.WithError(err).Debug("Status query failed, continuing to poll")
		} else {
			switch state {
			case statusSuccess:
				return nil
			case statusFailure:
				return ErrRemoteJobFailed
			case statusRevoked:
				return ErrRemoteJobCancelled
			}
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w after %s: try again later, or use the non-blocking dispatch endpoints",
				ErrRemoteJobTimeout, p.MaxWait)
		}
	}
}
