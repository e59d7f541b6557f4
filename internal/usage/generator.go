package usage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/execshell"
)

const (
	workbookExtensionConstant              = ".xlsx"
	defaultWindowHoursConstant             = 1440
	logFormatArgumentConstant              = "AGSFS"
	windowEndArgumentConstant              = "now"
	analysisArgumentConstant               = "complete"
	reportFormatArgumentConstant           = "spreadsheet"
	statisticsByUserArgumentConstant       = "true"
	executorNotConfiguredMessageConstant   = "log report command executor not configured"
	executableNotConfiguredMessageConstant = "log report executable not configured"
	serverLogsNotConfiguredMessageConstant = "server log directory not configured"
	workbookNotFoundTemplateConstant       = "no %s workbook produced in %s"
	reportDirectoryErrorTemplateConstant   = "unable to prepare %s: %w"
	generationFailedTemplateConstant       = "log report generation failed: %w"
	workbookLocatedMessageConstant         = "usage workbook located"
	logFieldReportDirectoryConstant        = "report_directory"
	reportDirectoryPermissionsConstant     = 0o755
)

var (
	// ErrCommandExecutorNotConfigured indicates the generator has no executor.
	ErrCommandExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrExecutableNotConfigured indicates the generator executable path is missing.
	ErrExecutableNotConfigured = errors.New(executableNotConfiguredMessageConstant)
	// ErrServerLogDirectoryNotConfigured indicates the server log directory is missing.
	ErrServerLogDirectoryNotConfigured = errors.New(serverLogsNotConfiguredMessageConstant)
)

// GeneratorConfiguration describes the external log report generator.
type GeneratorConfiguration struct {
	Executable         string `mapstructure:"executable"`
	ServerLogDirectory string `mapstructure:"server_log_directory"`
	WindowHours        int    `mapstructure:"window_hours" validate:"gte=0"`
}

// LogReportGenerator produces the usage workbook by running the external generator.
type LogReportGenerator struct {
	executor      execshell.CommandExecutor
	logger        *zap.Logger
	configuration GeneratorConfiguration
}

// NewLogReportGenerator validates collaborators and constructs a LogReportGenerator.
func NewLogReportGenerator(executor execshell.CommandExecutor, logger *zap.Logger, configuration GeneratorConfiguration) (*LogReportGenerator, error) {
	if executor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	if len(strings.TrimSpace(configuration.Executable)) == 0 {
		return nil, ErrExecutableNotConfigured
	}
	if len(strings.TrimSpace(configuration.ServerLogDirectory)) == 0 {
		return nil, ErrServerLogDirectoryNotConfigured
	}
	if configuration.WindowHours <= 0 {
		configuration.WindowHours = defaultWindowHoursConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReportGenerator{executor: executor, logger: logger, configuration: configuration}, nil
}

// Command builds the generator invocation writing into reportDirectory.
func (generator *LogReportGenerator) Command(reportDirectory string) execshell.ShellCommand {
	return execshell.ShellCommand{
		Name: execshell.CommandName(generator.configuration.Executable),
		Details: execshell.CommandDetails{
			Arguments: []string{
				"-f", logFormatArgumentConstant,
				"-i", generator.configuration.ServerLogDirectory,
				"-d", reportDirectory,
				"-eh", windowEndArgumentConstant,
				"-sh", strconv.Itoa(generator.configuration.WindowHours),
				"-a", analysisArgumentConstant,
				"-r", reportFormatArgumentConstant,
				"-sbu", statisticsByUserArgumentConstant,
			},
			WorkingDirectory: filepath.Dir(generator.configuration.Executable),
		},
	}
}

// Generate runs the generator and returns the path of the workbook it produced.
func (generator *LogReportGenerator) Generate(executionContext context.Context, reportDirectory string) (string, error) {
	if directoryError := os.MkdirAll(reportDirectory, reportDirectoryPermissionsConstant); directoryError != nil {
		return "", fmt.Errorf(reportDirectoryErrorTemplateConstant, reportDirectory, directoryError)
	}
	if _, executionError := generator.executor.Execute(executionContext, generator.Command(reportDirectory)); executionError != nil {
		return "", fmt.Errorf(generationFailedTemplateConstant, executionError)
	}
	workbookPath, locateError := LocateWorkbook(reportDirectory)
	if locateError != nil {
		return "", locateError
	}
	generator.logger.Info(workbookLocatedMessageConstant, zap.String(logFieldWorkbookConstant, workbookPath), zap.String(logFieldReportDirectoryConstant, reportDirectory))
	return workbookPath, nil
}

// LocateWorkbook returns the most recently modified workbook in reportDirectory.
func LocateWorkbook(reportDirectory string) (string, error) {
	entries, readError := os.ReadDir(reportDirectory)
	if readError != nil {
		return "", fmt.Errorf(workbookNotFoundTemplateConstant, workbookExtensionConstant, reportDirectory)
	}
	selectedPath := ""
	var selectedModification int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), workbookExtensionConstant) {
			continue
		}
		information, informationError := entry.Info()
		if informationError != nil {
			continue
		}
		modification := information.ModTime().UnixNano()
		candidatePath := filepath.Join(reportDirectory, entry.Name())
		if len(selectedPath) == 0 || modification > selectedModification || (modification == selectedModification && candidatePath > selectedPath) {
			selectedPath = candidatePath
			selectedModification = modification
		}
	}
	if len(selectedPath) == 0 {
		return "", fmt.Errorf(workbookNotFoundTemplateConstant, workbookExtensionConstant, reportDirectory)
	}
	return selectedPath, nil
}
