package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/pipeline"
	"github.com/temirov/portalaudit/internal/schedule"
	"github.com/temirov/portalaudit/internal/sink"
	flagutils "github.com/temirov/portalaudit/internal/utils/flags"
)

const (
	runCommandUseConstant             = "run"
	runCommandShortConstant           = "Run the audit pipeline once"
	runCommandLongConstant            = "run executes every enabled stage in order. Stage failures are logged and recorded in the run summary; the command still exits successfully."
	scheduleCommandUseConstant        = "schedule"
	scheduleCommandShortConstant      = "Run the audit pipeline on a cron schedule"
	scheduleCommandLongConstant       = "schedule keeps running and triggers the audit pipeline on the configured cron expression until interrupted. Overlapping triggers are skipped."
	cleanCommandUseConstant           = "clean"
	cleanCommandShortConstant         = "Remove run directories older than the retention window"
	reportsDirectoryFlagNameConstant  = "reports-directory"
	reportsDirectoryFlagUsageConstant = "Directory holding the dated run directories."
	sinkModeFlagNameConstant          = "sink-mode"
	sinkModeFlagUsageConstant         = "Validation mode of the table store reload."
	retentionDaysFlagNameConstant     = "retention-days"
	retentionDaysFlagUsageConstant    = "Days a run directory is kept."
	expressionFlagNameConstant        = "expression"
	expressionFlagUsageConstant       = "Cron expression that triggers a run."
	runOnStartFlagNameConstant        = "run-on-start"
	runOnStartFlagUsageConstant       = "Run once immediately before waiting for the schedule."
	logReportToggleNameConstant       = "log-report"
	inventoryToggleNameConstant       = "inventory"
	usageToggleNameConstant           = "usage"
	complianceToggleNameConstant      = "compliance"
	sinkToggleNameConstant            = "sink"
	publishToggleNameConstant         = "publish"
	reportToggleNameConstant          = "report"
	cleanupToggleNameConstant         = "cleanup"
	logReportToggleUsageConstant      = "Generate the usage workbook from server logs."
	inventoryToggleUsageConstant      = "Extract users, groups, and items from the portal."
	usageToggleUsageConstant          = "Reconcile the usage workbook into CSV tables."
	complianceToggleUsageConstant     = "Check governance rules and notify item owners."
	sinkToggleUsageConstant           = "Reload the CSV tables into the table store."
	publishToggleUsageConstant        = "Publish the run directory to production."
	reportToggleUsageConstant         = "Compose the charts and the report document."
	cleanupToggleUsageConstant        = "Remove expired run directories."
	runSummaryMessageConstant         = "run finished"
	cleanSummaryMessageConstant       = "cleanup finished"
	logFieldRunIDConstant             = "run_id"
	logFieldRunDirectoryConstant      = "run_directory"
	logFieldFailedStagesConstant      = "failed_stages"
	logFieldRemovedConstant           = "removed"
	logFieldRetainedConstant          = "retained"
	logFieldFailedRemovalsConstant    = "failed"
)

type stageToggleDefinition struct {
	name  string
	usage string
	field func(toggles *pipeline.StageToggles) *bool
}

var stageToggleDefinitions = []stageToggleDefinition{
	{name: logReportToggleNameConstant, usage: logReportToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.LogReport }},
	{name: inventoryToggleNameConstant, usage: inventoryToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Inventory }},
	{name: usageToggleNameConstant, usage: usageToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Usage }},
	{name: complianceToggleNameConstant, usage: complianceToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Compliance }},
	{name: sinkToggleNameConstant, usage: sinkToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Sink }},
	{name: publishToggleNameConstant, usage: publishToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Publish }},
	{name: reportToggleNameConstant, usage: reportToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Report }},
	{name: cleanupToggleNameConstant, usage: cleanupToggleUsageConstant, field: func(toggles *pipeline.StageToggles) *bool { return &toggles.Cleanup }},
}

// auditFlags holds the command-line overrides shared by run and schedule.
type auditFlags struct {
	toggles          pipeline.StageToggles
	reportsDirectory string
	sinkMode         string
}

func (flags *auditFlags) register(flagSet *pflag.FlagSet) {
	defaults := pipeline.DefaultStageToggles()
	for _, definition := range stageToggleDefinitions {
		flagutils.AddToggleFlag(flagSet, definition.field(&flags.toggles), definition.name, *definition.field(&defaults), definition.usage)
	}
	flagSet.StringVar(&flags.reportsDirectory, reportsDirectoryFlagNameConstant, "", reportsDirectoryFlagUsageConstant)
	flagSet.StringVar(&flags.sinkMode, sinkModeFlagNameConstant, "", flagutils.FormatChoiceUsage(
		string(sink.ModeTest),
		[]string{string(sink.ModeTest), string(sink.ModeNoTest)},
		sinkModeFlagUsageConstant,
	))
}

// apply overlays the flags the user set on the loaded configuration.
func (flags *auditFlags) apply(command *cobra.Command, configuration pipeline.Configuration) pipeline.Configuration {
	for _, definition := range stageToggleDefinitions {
		if command.Flags().Changed(definition.name) {
			*definition.field(&configuration.Stages) = *definition.field(&flags.toggles)
		}
	}
	if command.Flags().Changed(reportsDirectoryFlagNameConstant) {
		configuration.Housekeeping.ReportsDirectory = strings.TrimSpace(flags.reportsDirectory)
	}
	if command.Flags().Changed(sinkModeFlagNameConstant) {
		configuration.Sink.Mode = sink.Mode(strings.ToUpper(strings.TrimSpace(flags.sinkMode)))
	}
	return configuration
}

func newRunCommand(application *Application) *cobra.Command {
	flags := &auditFlags{}
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortConstant,
		Long:  runCommandLongConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			dependencies, dependenciesError := application.resolveDependencies()
			if dependenciesError != nil {
				return dependenciesError
			}
			configuration := flags.apply(command, application.configuration.Audit)
			return application.runPipeline(command.Context(), dependencies, configuration)
		},
	}
	flags.register(command.Flags())
	return command
}

func newScheduleCommand(application *Application) *cobra.Command {
	flags := &auditFlags{}
	var expression string
	var runOnStart bool
	command := &cobra.Command{
		Use:   scheduleCommandUseConstant,
		Short: scheduleCommandShortConstant,
		Long:  scheduleCommandLongConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			dependencies, dependenciesError := application.resolveDependencies()
			if dependenciesError != nil {
				return dependenciesError
			}
			configuration := flags.apply(command, application.configuration.Audit)
			scheduleConfiguration := application.configuration.Schedule
			if command.Flags().Changed(expressionFlagNameConstant) {
				scheduleConfiguration.Expression = expression
			}
			if command.Flags().Changed(runOnStartFlagNameConstant) {
				scheduleConfiguration.RunOnStart = runOnStart
			}

			scheduler, schedulerError := schedule.NewScheduler(scheduleConfiguration, func(executionContext context.Context) {
				_ = application.runPipeline(executionContext, dependencies, configuration)
			}, application.logger)
			if schedulerError != nil {
				return schedulerError
			}

			signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return scheduler.Run(signalContext)
		},
	}
	flags.register(command.Flags())
	command.Flags().StringVar(&expression, expressionFlagNameConstant, "", expressionFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), &runOnStart, runOnStartFlagNameConstant, false, runOnStartFlagUsageConstant)
	return command
}

func newCleanCommand(application *Application) *cobra.Command {
	var reportsDirectory string
	var retentionDays int
	command := &cobra.Command{
		Use:   cleanCommandUseConstant,
		Short: cleanCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			dependencies, dependenciesError := application.resolveDependencies()
			if dependenciesError != nil {
				return dependenciesError
			}
			configuration := application.configuration.Audit.Housekeeping
			if command.Flags().Changed(reportsDirectoryFlagNameConstant) {
				configuration.ReportsDirectory = reportsDirectory
			}
			if command.Flags().Changed(retentionDaysFlagNameConstant) {
				configuration.RetentionDays = retentionDays
			}
			manager, managerError := housekeeping.NewManager(dependencies.FileSystem, dependencies.Clock, dependencies.Logger, configuration)
			if managerError != nil {
				return managerError
			}
			result, cleanError := manager.Clean(command.Context())
			if cleanError != nil {
				return cleanError
			}
			application.logger.Info(cleanSummaryMessageConstant,
				zap.Strings(logFieldRemovedConstant, result.Removed),
				zap.Int(logFieldRetainedConstant, result.Retained),
				zap.Int(logFieldFailedRemovalsConstant, result.Failed),
			)
			return nil
		},
	}
	command.Flags().StringVar(&reportsDirectory, reportsDirectoryFlagNameConstant, "", reportsDirectoryFlagUsageConstant)
	command.Flags().IntVar(&retentionDays, retentionDaysFlagNameConstant, 0, retentionDaysFlagUsageConstant)
	return command
}

// runPipeline executes one run. Stage failures are logged by the pipeline and never turn into an exit status.
func (application *Application) runPipeline(executionContext context.Context, dependencies pipeline.Dependencies, configuration pipeline.Configuration) error {
	state, runError := pipeline.Run(executionContext, dependencies, configuration)
	if runError != nil {
		return runError
	}
	failedStages := []string{}
	for _, result := range state.Results {
		if result.Status == pipeline.StatusFailed {
			failedStages = append(failedStages, result.Name)
		}
	}
	application.logger.Info(runSummaryMessageConstant,
		zap.String(logFieldRunIDConstant, state.RunID),
		zap.String(logFieldRunDirectoryConstant, state.Layout.RunDirectory),
		zap.Strings(logFieldFailedStagesConstant, failedStages),
	)
	return nil
}
