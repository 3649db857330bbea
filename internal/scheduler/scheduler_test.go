package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/newsviews/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failN    int32 // fail the first N runs
	runs     int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= j.failN {
		return errors.New("transient")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 30 8 * * 1-5"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunJobSync_Retry(t *testing.T) {
	s := New(logger.Nop()).WithRetry(2, time.Millisecond)
	job := &countingJob{name: "flaky", schedule: "@hourly", failN: 2}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJobSync_ExhaustsRetries(t *testing.T) {
	s := New(logger.Nop()).WithRetry(1, time.Millisecond)
	require.NoError(t, s.AddJob(&countingJob{name: "broken", schedule: "@hourly", failN: 100}))

	res, err := s.RunJobSync("broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "transient", res.Error)

	h, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	assert.Len(t, h.GetFailedResults(), 1)
	assert.Equal(t, 0.0, h.GetSuccessRate())
}

func TestRunJob_Async(t *testing.T) {
	s := New(logger.Nop())
	job := &countingJob{name: "bg", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("bg"))
	assert.Error(t, s.RunJob("missing"))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.runs) == 1 }, time.Second, 10*time.Millisecond)

	// Stop waits for in-flight runs, so the result is recorded afterwards
	s.Stop()

	h, err := s.GetJobHistory("bg")
	require.NoError(t, err)
	assert.Len(t, h.Results, 1)
}

func TestGetJobHistory_Snapshot(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "snap", schedule: "@hourly"}))

	_, err := s.RunJobSync("snap")
	require.NoError(t, err)

	snap, err := s.GetJobHistory("snap")
	require.NoError(t, err)
	require.Len(t, snap.Results, 1)

	// concurrent runs append to the live history while the snapshot is read
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_, _ = s.RunJobSync("snap")
		}
	}()
	for i := 0; i < 20; i++ {
		_ = snap.GetSuccessRate()
		_ = snap.GetLatestResults(1)
	}
	<-done

	assert.Len(t, snap.Results, 1)

	snap.Results[0].JobName = "mutated"
	fresh, err := s.GetJobHistory("snap")
	require.NoError(t, err)
	assert.Len(t, fresh.Results, 21)
	assert.Equal(t, "snap", fresh.Results[0].JobName)
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	_, err := s.NextRun("a")
	require.NoError(t, err)

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())

	_, err = s.RunJobSync("a")
	assert.Error(t, err)
}

func TestStartStop_RunsEverySecond(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	s := New(logger.Nop())
	job := &countingJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.runs) >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestJobHistory_Limit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
