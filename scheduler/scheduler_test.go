// ==============================================================================================
// FILE: scheduler/scheduler_test.go
// ==============================================================================================
// PURPOSE: Unit tests for the virtual-time scheduler - After/Every/Job
//          firing semantics driven deterministically through Step, plus the
//          cron phrase translator.
// ==============================================================================================

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfter_FiresOnceWhenDue(t *testing.T) {
	s := New(true)
	fired := 0
	s.After(0.25, func() error {
		fired++
		return nil
	})

	s.Step(0.1)
	assert.Equal(t, 0, fired, "should not fire before its due time")

	s.Step(0.1)
	assert.Equal(t, 0, fired)

	s.Step(0.1) // cumulative time now comfortably past 0.25
	assert.Equal(t, 1, fired)

	s.Step(0.1)
	assert.Equal(t, 1, fired, "a one-shot task must not fire twice")
}

func TestEvery_FiresRepeatedlyAtInterval(t *testing.T) {
	s := New(true)
	fired := 0
	s.Every(0.2, func() error {
		fired++
		return nil
	})

	for i := 0; i < 10; i++ {
		s.Step(0.1)
	}
	// Over one second at a 0.2s interval, expect multiple firings.
	assert.GreaterOrEqual(t, fired, 3)
}

func TestJob_ReplacesExistingJobOfSameName(t *testing.T) {
	s := New(true)
	firstCount := 0
	s.Job("ticker", 0.1, func() error {
		firstCount++
		return nil
	})
	secondCount := 0
	s.Job("ticker", 0.1, func() error {
		secondCount++
		return nil
	})

	for i := 0; i < 5; i++ {
		s.Step(0.1)
	}

	assert.Equal(t, 0, firstCount, "replaced job body should never run")
	assert.Greater(t, secondCount, 0)
}

func TestStopJob_RemovesFutureFirings(t *testing.T) {
	s := New(true)
	fired := 0
	s.Job("ticker", 0.1, func() error {
		fired++
		return nil
	})

	s.Step(0.1)
	require.Greater(t, fired, 0)

	s.StopJob("ticker")
	before := fired
	for i := 0; i < 5; i++ {
		s.Step(0.1)
	}
	assert.Equal(t, before, fired, "stopped job must not fire again")
}

func TestStopJob_UnknownNameIsNoop(t *testing.T) {
	s := New(true)
	s.StopJob("does-not-exist")
}

func TestWait_AdvancesVirtualTimeSynchronously(t *testing.T) {
	s := New(true)
	fired := false
	s.After(0.5, func() error {
		fired = true
		return nil
	})

	s.Wait(0.6)
	s.Step(0) // Step still drives the firing check even with a zero delta
	assert.True(t, fired)
}

func TestCron_RejectsInvalidSchedule(t *testing.T) {
	s := New(true)
	err := s.Cron("not a schedule", func() error { return nil })
	require.Error(t, err)
}

func TestCron_AcceptsFriendlyPhrases(t *testing.T) {
	s := New(true)
	require.NoError(t, s.Cron("every minute", func() error { return nil }))
	require.NoError(t, s.Cron("every hour", func() error { return nil }))
	require.NoError(t, s.Cron("every day at 09:30", func() error { return nil }))
	require.NoError(t, s.Cron("every monday at 08:00", func() error { return nil }))
}

func TestCron_AcceptsStandardFiveFieldExpression(t *testing.T) {
	s := New(true)
	require.NoError(t, s.Cron("30 9 * * 1", func() error { return nil }))
}

func TestStep_NoopWhenNotVirtualTime(t *testing.T) {
	s := New(false)
	fired := false
	s.After(0.01, func() error {
		fired = true
		return nil
	})
	s.Step(10)
	assert.False(t, fired, "Step must be a no-op outside virtual-time mode")
}
