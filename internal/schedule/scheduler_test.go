package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/schedule"
)

func TestNewSchedulerValidatesConfiguration(testInstance *testing.T) {
	noop := func(context.Context) {}
	testCases := []struct {
		name          string
		configuration schedule.Configuration
		job           schedule.Job
		expectedError error
	}{
		{name: "missing job", configuration: schedule.Configuration{Expression: "@daily"}, expectedError: schedule.ErrJobNotConfigured},
		{name: "missing expression", configuration: schedule.Configuration{Expression: "  "}, job: noop, expectedError: schedule.ErrExpressionNotConfigured},
		{name: "invalid expression", configuration: schedule.Configuration{Expression: "every day"}, job: noop},
		{name: "invalid time zone", configuration: schedule.Configuration{Expression: "@daily", TimeZone: "Mars/Olympus"}, job: noop},
	}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			_, schedulerError := schedule.NewScheduler(testCase.configuration, testCase.job, zap.NewNop())
			require.Error(subTest, schedulerError)
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, schedulerError, testCase.expectedError)
			}
		})
	}
}

func TestSchedulerNextRunHonorsTimeZone(testInstance *testing.T) {
	scheduler, schedulerError := schedule.NewScheduler(schedule.Configuration{Expression: "30 2 * * *", TimeZone: "UTC"}, func(context.Context) {}, nil)
	require.NoError(testInstance, schedulerError)

	next := scheduler.NextRun(time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC))
	require.True(testInstance, next.Equal(time.Date(2024, time.March, 16, 2, 30, 0, 0, time.UTC)))
}

func TestSchedulerRunsOnStartAndStopsWithContext(testInstance *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	runs := 0
	scheduler, schedulerError := schedule.NewScheduler(schedule.Configuration{Expression: "@yearly", RunOnStart: true}, func(context.Context) {
		runs++
		cancel()
	}, zap.NewNop())
	require.NoError(testInstance, schedulerError)

	done := make(chan error, 1)
	go func() {
		done <- scheduler.Run(executionContext)
	}()

	select {
	case runError := <-done:
		require.NoError(testInstance, runError)
	case <-time.After(5 * time.Second):
		testInstance.Fatal("scheduler did not stop after cancellation")
	}
	require.Equal(testInstance, 1, runs)
}
