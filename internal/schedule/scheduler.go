package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	expressionNotConfiguredMessageConstant = "schedule expression not configured"
	jobNotConfiguredMessageConstant        = "scheduled job not configured"
	invalidExpressionTemplateConstant      = "invalid schedule expression %q: %w"
	invalidTimeZoneTemplateConstant        = "unknown schedule time zone %q: %w"
	schedulerStartedMessageConstant        = "scheduler started"
	schedulerStoppedMessageConstant        = "scheduler stopped"
	scheduledRunMessageConstant            = "scheduled run triggered"
	logFieldExpressionConstant             = "expression"
	logFieldNextRunConstant                = "next_run"
	logFieldErrorConstant                  = "error"
)

var (
	// ErrExpressionNotConfigured indicates no cron expression was configured.
	ErrExpressionNotConfigured = errors.New(expressionNotConfiguredMessageConstant)
	// ErrJobNotConfigured indicates the scheduler was built without a job.
	ErrJobNotConfigured = errors.New(jobNotConfiguredMessageConstant)
)

// Configuration describes when scheduled runs happen.
type Configuration struct {
	Expression string `mapstructure:"expression"`
	TimeZone   string `mapstructure:"time_zone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Job is one triggered run.
type Job func(executionContext context.Context)

// Scheduler triggers a job on a cron schedule. A trigger that arrives while the job is still running is skipped.
type Scheduler struct {
	configuration Configuration
	job           Job
	logger        *zap.Logger
	location      *time.Location
	schedule      cron.Schedule
}

// NewScheduler parses the configured expression and constructs a Scheduler.
func NewScheduler(configuration Configuration, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, ErrJobNotConfigured
	}
	expression := strings.TrimSpace(configuration.Expression)
	if len(expression) == 0 {
		return nil, ErrExpressionNotConfigured
	}
	location := time.Local
	if timeZone := strings.TrimSpace(configuration.TimeZone); len(timeZone) > 0 {
		loadedLocation, locationError := time.LoadLocation(timeZone)
		if locationError != nil {
			return nil, fmt.Errorf(invalidTimeZoneTemplateConstant, timeZone, locationError)
		}
		location = loadedLocation
	}
	schedule, parseError := cron.ParseStandard(expression)
	if parseError != nil {
		return nil, fmt.Errorf(invalidExpressionTemplateConstant, expression, parseError)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	configuration.Expression = expression
	return &Scheduler{configuration: configuration, job: job, logger: logger, location: location, schedule: schedule}, nil
}

// NextRun returns the first trigger time after the given instant.
func (scheduler *Scheduler) NextRun(after time.Time) time.Time {
	return scheduler.schedule.Next(after.In(scheduler.location))
}

// Run triggers the job until the context is canceled, then waits for a running job to finish.
func (scheduler *Scheduler) Run(executionContext context.Context) error {
	cronLogger := zapCronLogger{logger: scheduler.logger}
	runner := cron.New(
		cron.WithLocation(scheduler.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	runner.Schedule(scheduler.schedule, cron.FuncJob(func() {
		scheduler.logger.Info(scheduledRunMessageConstant, zap.String(logFieldExpressionConstant, scheduler.configuration.Expression))
		scheduler.job(executionContext)
	}))

	if scheduler.configuration.RunOnStart {
		scheduler.job(executionContext)
	}
	if executionContext.Err() != nil {
		return nil
	}

	runner.Start()
	scheduler.logger.Info(schedulerStartedMessageConstant,
		zap.String(logFieldExpressionConstant, scheduler.configuration.Expression),
		zap.Time(logFieldNextRunConstant, scheduler.NextRun(time.Now())),
	)
	<-executionContext.Done()
	<-runner.Stop().Done()
	scheduler.logger.Info(schedulerStoppedMessageConstant)
	return nil
}

type zapCronLogger struct {
	logger *zap.Logger
}

func (cronLogger zapCronLogger) Info(message string, keysAndValues ...interface{}) {
	cronLogger.logger.Sugar().Debugw(message, keysAndValues...)
}

func (cronLogger zapCronLogger) Error(failure error, message string, keysAndValues ...interface{}) {
	cronLogger.logger.Sugar().Errorw(message, append(keysAndValues, logFieldErrorConstant, failure)...)
}
