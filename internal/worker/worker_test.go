package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/stretchr/testify/assert"
)

func TestJobOutcome_SuccessAndFailure(t *testing.T) {
	ctx := context.Background()

	state, requeue := jobOutcome(ctx, nil)
	assert.Equal(t, tasks.StateSuccess, state)
	assert.False(t, requeue)

	state, requeue = jobOutcome(ctx, remote.ErrRemoteJobFailed)
	assert.Equal(t, tasks.StateFailure, state)
	assert.False(t, requeue)

	state, requeue = jobOutcome(ctx, errors.New("no question for hash"))
	assert.Equal(t, tasks.StateFailure, state)
	assert.False(t, requeue)
}

func TestJobOutcome_AdminRevocation(t *testing.T) {
	state, requeue := jobOutcome(context.Background(), remote.ErrRemoteJobCancelled)
	assert.Equal(t, tasks.StateRevoked, state)
	assert.False(t, requeue)
}

func TestJobOutcome_ShutdownRequeuesInsteadOfTerminating(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Poll loop aborted by the cancelled worker context.
	_, requeue := jobOutcome(ctx, context.Canceled)
	assert.True(t, requeue)

	// Submission aborted mid-flight; the cancellation arrives wrapped in a
	// transport error.
	wrapped := fmt.Errorf("%w: %v", remote.ErrServiceUnavailable, context.Canceled)
	_, requeue = jobOutcome(ctx, wrapped)
	assert.True(t, requeue)
}

func TestJobOutcome_CancellationErrorWithLiveContextIsFailure(t *testing.T) {
	// A cancellation error without worker shutdown is a plain job failure,
	// not a reason to requeue.
	state, requeue := jobOutcome(context.Background(), context.Canceled)
	assert.Equal(t, tasks.StateFailure, state)
	assert.False(t, requeue)
}
