package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
}

func TestDailySchedule_NextSameDay(t *testing.T) {
	s := NewDailySchedule(21, 30, timeutil.PlatformTZ)
	at := time.Date(2026, 5, 10, 9, 0, 0, 0, timeutil.PlatformTZ)

	next := s.Next(at)
	assert.Equal(t, 21, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, at.Day(), next.Day())
}

func TestDailySchedule_RollsToNextDay(t *testing.T) {
	s := NewDailySchedule(0, 5, timeutil.PlatformTZ)
	at := time.Date(2026, 5, 10, 0, 5, 0, 0, timeutil.PlatformTZ)

	next := s.Next(at)
	assert.Equal(t, 11, next.Day())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())
}

func TestScheduler_RegisterRejectsDuplicatesAndNils(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "sweep"}

	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "other"}, nil), ErrNilSchedule)
	assert.Equal(t, 1, s.JobCount())
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "sweep"}
	assert.NoError(t, s.Register(job, NewDailySchedule(0, 5, timeutil.PlatformTZ)))

	result, err := s.RunNow(context.Background(), "sweep")
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	last, ok := s.LastRun("sweep")
	assert.True(t, ok)
	assert.Equal(t, "sweep", last.JobName)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := New(DefaultConfig())
	job := &countingJob{name: "sweep", err: errors.New("boom")}
	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "sweep")
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestScheduler_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tick = 5 * time.Millisecond
	s := New(cfg)
	job := &countingJob{name: "fast"}
	assert.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))

	assert.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	assert.True(t, s.IsRunning())

	time.Sleep(30 * time.Millisecond)

	assert.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
	assert.Greater(t, job.runs.Load(), int64(0))
}
