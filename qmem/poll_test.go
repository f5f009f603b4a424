package qmem_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// scriptedJob replays a fixed sequence of states, holding the last one.
type scriptedJob struct {
	states []qmem.JobState
	calls  int
	counts qmem.Counts
}

func (j *scriptedJob) ID() string { return "scripted" }

func (j *scriptedJob) Status(context.Context) (qmem.JobState, error) {
	idx := j.calls
	if idx >= len(j.states) {
		idx = len(j.states) - 1
	}
	j.calls++
	return j.states[idx], nil
}

func (j *scriptedJob) Result(context.Context) (qmem.Counts, error) {
	return j.counts, nil
}

func TestAwaitJobReachesDone(t *testing.T) {
	job := &scriptedJob{states: []qmem.JobState{qmem.JobQueued, qmem.JobRunning, qmem.JobDone}}

	state, err := qmem.AwaitJob(context.Background(), job, time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, qmem.JobDone, state)
	assert.Equal(t, 3, job.calls)
}

func TestAwaitJobReturnsBackendFailureState(t *testing.T) {
	for _, terminal := range []qmem.JobState{qmem.JobError, qmem.JobCancelled} {
		job := &scriptedJob{states: []qmem.JobState{qmem.JobQueued, terminal}}

		state, err := qmem.AwaitJob(context.Background(), job, time.Millisecond, time.Second)

		require.NoError(t, err)
		assert.Equal(t, terminal, state)
	}
}

func TestAwaitJobTimesOutOnNonTerminalJob(t *testing.T) {
	job := &scriptedJob{states: []qmem.JobState{qmem.JobRunning}}

	state, err := qmem.AwaitJob(context.Background(), job, time.Millisecond, 10*time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, qmem.ErrPollTimeout)
	assert.Equal(t, qmem.JobRunning, state)
}

func TestAwaitJobHonorsContextCancellation(t *testing.T) {
	job := &scriptedJob{states: []qmem.JobState{qmem.JobQueued}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := qmem.AwaitJob(ctx, job, time.Hour, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
}

// slowJob delays every status check before delegating to the script.
type slowJob struct {
	scriptedJob
	delay time.Duration
}

func (j *slowJob) Status(ctx context.Context) (qmem.JobState, error) {
	time.Sleep(j.delay)
	return j.scriptedJob.Status(ctx)
}

func TestAwaitJobWaitsFullIntervalAfterSlowStatusCheck(t *testing.T) {
	job := &slowJob{
		scriptedJob: scriptedJob{states: []qmem.JobState{qmem.JobQueued, qmem.JobQueued, qmem.JobDone}},
		delay:       30 * time.Millisecond,
	}
	interval := 20 * time.Millisecond

	start := time.Now()
	state, err := qmem.AwaitJob(context.Background(), job, interval, time.Second)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, qmem.JobDone, state)
	assert.Equal(t, 3, job.calls)
	// Three status checks and two full inter-poll waits; a status check that
	// outlasts the interval must not shorten the following wait.
	assert.GreaterOrEqual(t, elapsed, 3*job.delay+2*interval)
}

type erroringJob struct{}

func (erroringJob) ID() string { return "erroring" }

func (erroringJob) Status(context.Context) (qmem.JobState, error) {
	return "", errors.New("connection reset")
}

func (erroringJob) Result(context.Context) (qmem.Counts, error) {
	return nil, errors.New("not done")
}

func TestAwaitJobPropagatesStatusErrors(t *testing.T) {
	_, err := qmem.AwaitJob(context.Background(), erroringJob{}, time.Millisecond, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
