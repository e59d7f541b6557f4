package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/execshell"
	"github.com/temirov/portalaudit/internal/filesystem"
	"github.com/temirov/portalaudit/internal/pipeline"
	"github.com/temirov/portalaudit/internal/schedule"
	"github.com/temirov/portalaudit/internal/utils"
	flagutils "github.com/temirov/portalaudit/internal/utils/flags"
	pathutils "github.com/temirov/portalaudit/internal/utils/path"
)

const (
	applicationNameConstant                 = "portal-audit"
	applicationShortDescriptionConstant     = "Audit a web GIS portal and publish the results"
	applicationLongDescriptionConstant      = "portal-audit extracts the portal inventory, reconciles server usage logs, checks governance rules, loads the results into a table store, and composes a report."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "PORTALAUDIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationLogFileFieldConstant       = "log_file"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	shellExecutorErrorTemplateConstant      = "unable to construct command executor: %w"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common"`
	Audit    pipeline.Configuration         `mapstructure:",squash"`
	Schedule schedule.Configuration         `mapstructure:"schedule"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string               `mapstructure:"log_level"`
	LogFormat string               `mapstructure:"log_format"`
	LogFile   utils.LogFileOptions `mapstructure:"log_file"`
}

// expandHomePaths resolves a leading tilde in every configured filesystem path.
func (configuration ApplicationConfiguration) expandHomePaths(expander *pathutils.HomeExpander) ApplicationConfiguration {
	expander.ExpandAll(
		&configuration.Common.LogFile.Path,
		&configuration.Audit.Housekeeping.ReportsDirectory,
		&configuration.Audit.LogReport.ServerLogDirectory,
		&configuration.Audit.Sink.Directory,
		&configuration.Audit.Publish.Directory,
	)
	return configuration
}

// DependenciesFactory builds the pipeline collaborators once the logger exists.
type DependenciesFactory func(logger *zap.Logger) (pipeline.Dependencies, error)

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	dependenciesFactory   DependenciesFactory
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	return NewApplicationWithDependencies(nil)
}

// NewApplicationWithDependencies assembles an application whose pipeline collaborators come from factory.
// A nil factory uses the operating system shell, clock, and filesystem.
func NewApplicationWithDependencies(factory DependenciesFactory) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	if factory == nil {
		factory = defaultDependencies
	}

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		dependenciesFactory: factory,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(
		string(utils.LogFormatStructured),
		[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)},
		logFormatFlagUsageConstant,
	))

	cobraCommand.AddCommand(newRunCommand(application))
	cobraCommand.AddCommand(newScheduleCommand(application))
	cobraCommand.AddCommand(newCleanCommand(application))

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command hierarchy against the process arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy against arguments and ensures logger flushing.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(arguments, flagutils.ToggleNames(application.rootCommand)))
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// RootCommand exposes the root command for output redirection.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration = application.configuration.expandHomePaths(pathutils.NewHomeExpander())

	if command.Flags().Changed(logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if command.Flags().Changed(logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLoggerWithFile(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		application.configuration.Common.LogFile,
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationLogFileFieldConstant, application.configuration.Common.LogFile.Path),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) resolveDependencies() (pipeline.Dependencies, error) {
	dependencies, dependenciesError := application.dependenciesFactory(application.logger)
	if dependenciesError != nil {
		return pipeline.Dependencies{}, dependenciesError
	}
	if dependencies.Logger == nil {
		dependencies.Logger = application.logger
	}
	if dependencies.Clock == nil {
		dependencies.Clock = utils.SystemClock{}
	}
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = filesystem.OSFileSystem{}
	}
	return dependencies, nil
}

func defaultDependencies(logger *zap.Logger) (pipeline.Dependencies, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return pipeline.Dependencies{}, fmt.Errorf(shellExecutorErrorTemplateConstant, executorError)
	}
	return pipeline.Dependencies{
		Logger:          logger,
		Clock:           utils.SystemClock{},
		FileSystem:      filesystem.OSFileSystem{},
		CommandExecutor: shellExecutor,
	}, nil
}

// flushLogger syncs the logger. Terminals and pipes reject fsync, which is not a failure.
func (application *Application) flushLogger() error {
	syncError := application.logger.Sync()
	for _, ignorable := range []error{syscall.ENOTSUP, syscall.EINVAL, syscall.ENOTTY} {
		if errors.Is(syncError, ignorable) {
			return nil
		}
	}
	return syncError
}
