package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/compliance"
	"github.com/temirov/portalaudit/internal/execshell"
	"github.com/temirov/portalaudit/internal/filesystem"
	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/portal"
	"github.com/temirov/portalaudit/internal/publish"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/utils"
)

// ReasonDisabled is the skip reason of a stage turned off by configuration.
const ReasonDisabled = "disabled"

const (
	prerequisiteReasonTemplateConstant   = "prerequisite %s did not succeed"
	canceledReasonTemplateConstant       = "run canceled: %v"
	stageFailedTemplateConstant          = "pipeline stage %s failed: %w"
	executorNotConfiguredMessageConstant = "pipeline executor requires a command executor"
	unknownStoreKindTemplateConstant     = "unknown table store kind %q"
	runStartedMessageConstant            = "portal audit started"
	runCompletedMessageConstant          = "portal audit completed"
	stageStartedMessageConstant          = "stage started"
	stageSucceededMessageConstant        = "stage succeeded"
	stageFailedMessageConstant           = "stage failed"
	stageSkippedMessageConstant          = "stage skipped"
	artifactFailedMessageConstant        = "run artifact not written"
	logFieldRunIDConstant                = "run_id"
	logFieldStageConstant                = "stage"
	logFieldReasonConstant               = "reason"
	logFieldDurationConstant             = "duration"
	logFieldEnabledStagesConstant        = "enabled_stages"
	logFieldReportsDirectoryConstant     = "reports_directory"
	logFieldPortalURLConstant            = "portal_url"
	logFieldSinkKindConstant             = "sink_kind"
	logFieldSinkModeConstant             = "sink_mode"
	logFieldPublishTargetConstant        = "publish_target"
	logFieldRetentionDaysConstant        = "retention_days"
	logFieldFailedConstant               = "failed"
	logFieldSkippedConstant              = "skipped"
)

// ErrCommandExecutorNotConfigured indicates the executor was built without a command executor.
var ErrCommandExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// PortalClient combines the portal operations used by the inventory and compliance stages.
type PortalClient interface {
	inventory.PortalClient
	compliance.PortalClient
	Authenticate(executionContext context.Context) error
}

// PortalClientFactory constructs an unauthenticated portal client.
type PortalClientFactory func(configuration portal.Configuration, logger *zap.Logger) (PortalClient, error)

// NotifierFactory constructs the governance notifier.
type NotifierFactory func(configuration compliance.MailConfiguration) (compliance.Notifier, error)

// TableStoreFactory constructs the sink table store.
type TableStoreFactory func(configuration sink.Configuration) (sink.TableStore, error)

// PublisherFactory constructs the run publisher.
type PublisherFactory func(configuration publish.Configuration, logger *zap.Logger) (publish.Publisher, error)

// Dependencies configures shared collaborators for pipeline execution. Nil factories use the production implementations.
type Dependencies struct {
	Logger              *zap.Logger
	Clock               utils.Clock
	FileSystem          filesystem.FileSystem
	CommandExecutor     execshell.CommandExecutor
	PortalClientFactory PortalClientFactory
	NotifierFactory     NotifierFactory
	TableStoreFactory   TableStoreFactory
	PublisherFactory    PublisherFactory
}

// Environment exposes shared dependencies and configuration to stages.
type Environment struct {
	Logger              *zap.Logger
	Clock               utils.Clock
	FileSystem          filesystem.FileSystem
	CommandExecutor     execshell.CommandExecutor
	Configuration       Configuration
	portalClientFactory PortalClientFactory
	notifierFactory     NotifierFactory
	tableStoreFactory   TableStoreFactory
	publisherFactory    PublisherFactory
}

// Executor runs stages in order and records one result per stage.
type Executor struct {
	stages      []Stage
	environment *Environment
}

// NewExecutor constructs an Executor instance.
func NewExecutor(stages []Stage, dependencies Dependencies, configuration Configuration) (*Executor, error) {
	if dependencies.CommandExecutor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	environment := &Environment{
		Logger:              dependencies.Logger,
		Clock:               dependencies.Clock,
		FileSystem:          dependencies.FileSystem,
		CommandExecutor:     dependencies.CommandExecutor,
		Configuration:       configuration,
		portalClientFactory: dependencies.PortalClientFactory,
		notifierFactory:     dependencies.NotifierFactory,
		tableStoreFactory:   dependencies.TableStoreFactory,
		publisherFactory:    dependencies.PublisherFactory,
	}
	if environment.Logger == nil {
		environment.Logger = zap.NewNop()
	}
	if environment.Clock == nil {
		environment.Clock = utils.SystemClock{}
	}
	if environment.FileSystem == nil {
		environment.FileSystem = filesystem.OSFileSystem{}
	}
	if environment.portalClientFactory == nil {
		environment.portalClientFactory = NewPortalClient
	}
	if environment.notifierFactory == nil {
		environment.notifierFactory = NewNotifier
	}
	if environment.tableStoreFactory == nil {
		environment.tableStoreFactory = NewTableStore
	}
	if environment.publisherFactory == nil {
		environment.publisherFactory = publish.NewPublisher
	}
	return &Executor{stages: append([]Stage{}, stages...), environment: environment}, nil
}

// Execute runs every stage. Stage failures are recorded in the returned state, never returned.
func (executor *Executor) Execute(executionContext context.Context) *State {
	environment := executor.environment
	state := &State{RunID: uuid.NewString(), StartedAt: environment.Clock.Now()}
	logger := environment.Logger.With(zap.String(logFieldRunIDConstant, state.RunID))
	executor.logConfiguration(logger)

	for _, stage := range executor.stages {
		result := executor.executeStage(executionContext, logger, stage, state)
		state.Results = append(state.Results, result)
	}

	state.CompletedAt = environment.Clock.Now()
	logger.Info(runCompletedMessageConstant,
		zap.Int(logFieldFailedConstant, state.Failed()),
		zap.Int(logFieldSkippedConstant, countStatus(state.Results, StatusSkipped)),
		zap.Duration(logFieldDurationConstant, state.CompletedAt.Sub(state.StartedAt)),
	)

	if len(state.Layout.RunDirectory) > 0 {
		if summaryError := WriteSummary(state); summaryError != nil {
			logger.Error(artifactFailedMessageConstant, zap.Error(summaryError))
		}
		if metricsError := WriteMetrics(state); metricsError != nil {
			logger.Error(artifactFailedMessageConstant, zap.Error(metricsError))
		}
	}
	return state
}

func (executor *Executor) executeStage(executionContext context.Context, logger *zap.Logger, stage Stage, state *State) StageResult {
	stageLogger := logger.With(zap.String(logFieldStageConstant, stage.Name))
	result := StageResult{Name: stage.Name, Status: StatusSkipped}

	if stage.Disabled || stage.Execute == nil {
		result.Reason = ReasonDisabled
		stageLogger.Info(stageSkippedMessageConstant, zap.String(logFieldReasonConstant, result.Reason))
		return result
	}
	if contextError := executionContext.Err(); contextError != nil {
		result.Reason = fmt.Sprintf(canceledReasonTemplateConstant, contextError)
		stageLogger.Warn(stageSkippedMessageConstant, zap.String(logFieldReasonConstant, result.Reason))
		return result
	}
	if blocking, blocked := blockingPrerequisite(stage, state); blocked {
		result.Reason = fmt.Sprintf(prerequisiteReasonTemplateConstant, blocking)
		stageLogger.Warn(stageSkippedMessageConstant, zap.String(logFieldReasonConstant, result.Reason))
		return result
	}

	stageLogger.Info(stageStartedMessageConstant)
	startedAt := executor.environment.Clock.Now()
	stageError := stage.Execute(executionContext, executor.environment, state)
	result.Duration = executor.environment.Clock.Now().Sub(startedAt)

	if stageError != nil {
		result.Status = StatusFailed
		result.Reason = stageError.Error()
		stageLogger.Error(stageFailedMessageConstant, zap.Error(fmt.Errorf(stageFailedTemplateConstant, stage.Name, stageError)), zap.Duration(logFieldDurationConstant, result.Duration))
		return result
	}
	result.Status = StatusSucceeded
	stageLogger.Info(stageSucceededMessageConstant, zap.Duration(logFieldDurationConstant, result.Duration))
	return result
}

func (executor *Executor) logConfiguration(logger *zap.Logger) {
	configuration := executor.environment.Configuration
	enabled := make([]string, 0, len(executor.stages))
	for _, stage := range executor.stages {
		if !stage.Disabled && stage.Execute != nil {
			enabled = append(enabled, stage.Name)
		}
	}
	logger.Info(runStartedMessageConstant,
		zap.Strings(logFieldEnabledStagesConstant, enabled),
		zap.String(logFieldReportsDirectoryConstant, configuration.Housekeeping.ReportsDirectory),
		zap.Int(logFieldRetentionDaysConstant, configuration.Housekeeping.RetentionDays),
		zap.String(logFieldPortalURLConstant, configuration.Portal.URL),
		zap.String(logFieldSinkKindConstant, configuration.Sink.Kind),
		zap.String(logFieldSinkModeConstant, string(configuration.Sink.Mode)),
		zap.String(logFieldPublishTargetConstant, configuration.Publish.Target),
	)
}

// blockingPrerequisite returns the first prerequisite that failed or was skipped for a reason other than being disabled.
func blockingPrerequisite(stage Stage, state *State) (string, bool) {
	for _, prerequisite := range stage.Requires {
		result, found := state.Result(prerequisite)
		if !found {
			continue
		}
		if result.Succeeded() || result.Reason == ReasonDisabled {
			continue
		}
		return prerequisite, true
	}
	return "", false
}

func countStatus(results []StageResult, status StageStatus) int {
	count := 0
	for _, result := range results {
		if result.Status == status {
			count++
		}
	}
	return count
}

// NewPortalClient constructs the resty-backed portal client.
func NewPortalClient(configuration portal.Configuration, logger *zap.Logger) (PortalClient, error) {
	client, clientError := portal.NewClient(configuration, logger)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

// NewNotifier constructs the SMTP relay notifier.
func NewNotifier(configuration compliance.MailConfiguration) (compliance.Notifier, error) {
	notifier, notifierError := compliance.NewSMTPNotifier(configuration, nil)
	if notifierError != nil {
		return nil, notifierError
	}
	return notifier, nil
}

// NewTableStore constructs the table store selected by configuration. An empty kind selects PostgreSQL.
func NewTableStore(configuration sink.Configuration) (sink.TableStore, error) {
	switch strings.TrimSpace(configuration.Kind) {
	case "", sink.StoreKindPostgres:
		return sink.NewPostgresStore(configuration.Postgres), nil
	case sink.StoreKindDirectory:
		store, storeError := sink.NewDirectoryStore(configuration.Directory)
		if storeError != nil {
			return nil, storeError
		}
		return store, nil
	default:
		return nil, fmt.Errorf(unknownStoreKindTemplateConstant, configuration.Kind)
	}
}

// Run builds the configured stages and executes them once.
func Run(executionContext context.Context, dependencies Dependencies, configuration Configuration) (*State, error) {
	executor, executorError := NewExecutor(BuildStages(configuration.Stages), dependencies, configuration)
	if executorError != nil {
		return nil, executorError
	}
	return executor.Execute(executionContext), nil
}
