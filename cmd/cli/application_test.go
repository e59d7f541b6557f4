package cli_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/portalaudit/cmd/cli"
	"github.com/temirov/portalaudit/internal/execshell"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/pipeline"
	"github.com/temirov/portalaudit/internal/utils"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationTemplateConstant = `common:
  log_level: error
housekeeping:
  reports_directory: %s
  retention_days: 7
stages:
  log_report: false
  inventory: false
  usage: false
  compliance: true
  sink: false
  publish: false
  report: false
  cleanup: true
`
)

type recordingExecutor struct {
	commands []execshell.ShellCommand
}

func (executor *recordingExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	return execshell.ExecutionResult{}, nil
}

func writeConfiguration(testInstance *testing.T, reportsDirectory string) string {
	testInstance.Helper()
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	content := []byte(fmt.Sprintf(testConfigurationTemplateConstant, reportsDirectory))
	require.NoError(testInstance, os.WriteFile(configurationPath, content, 0o644))
	return configurationPath
}

func createRunDirectory(testInstance *testing.T, reportsDirectory string, date time.Time) string {
	testInstance.Helper()
	runDirectory := filepath.Join(reportsDirectory, date.Format(housekeeping.RunDirectoryDateLayout))
	require.NoError(testInstance, os.MkdirAll(runDirectory, 0o755))
	require.NoError(testInstance, os.Chtimes(runDirectory, date, date))
	return runDirectory
}

func fixedDependencies(now time.Time, executor *recordingExecutor) cli.DependenciesFactory {
	return func(logger *zap.Logger) (pipeline.Dependencies, error) {
		return pipeline.Dependencies{
			Logger:          logger,
			Clock:           utils.FixedClock{Instant: now},
			CommandExecutor: executor,
		}, nil
	}
}

func TestRunCommandAppliesFlagOverridesAndWritesSummary(testInstance *testing.T) {
	now := time.Date(2024, time.March, 15, 6, 0, 0, 0, time.UTC)
	reportsDirectory := testInstance.TempDir()
	expiredRun := createRunDirectory(testInstance, reportsDirectory, now.AddDate(0, 0, -30))
	recentRun := createRunDirectory(testInstance, reportsDirectory, now.AddDate(0, 0, -2))
	configurationPath := writeConfiguration(testInstance, reportsDirectory)

	application := cli.NewApplicationWithDependencies(fixedDependencies(now, &recordingExecutor{}))
	executionError := application.ExecuteWithArguments([]string{"run", "--config", configurationPath, "--compliance", "no"})
	require.NoError(testInstance, executionError)

	layout := housekeeping.NewRunLayout(reportsDirectory, now)
	for _, directory := range layout.Directories() {
		require.DirExists(testInstance, directory)
	}
	require.NoDirExists(testInstance, expiredRun)
	require.DirExists(testInstance, recentRun)

	encodedSummary, readError := os.ReadFile(filepath.Join(layout.RunDirectory, pipeline.SummaryFileName))
	require.NoError(testInstance, readError)
	var summary pipeline.Summary
	require.NoError(testInstance, yaml.Unmarshal(encodedSummary, &summary))

	statuses := map[string]pipeline.StageResult{}
	for _, result := range summary.Stages {
		statuses[result.Name] = result
	}
	require.Equal(testInstance, pipeline.StatusSucceeded, statuses[pipeline.StagePrepare].Status)
	require.Equal(testInstance, pipeline.StatusSucceeded, statuses[pipeline.StageCleanup].Status)
	require.Equal(testInstance, pipeline.StatusSkipped, statuses[pipeline.StageCompliance].Status)
	require.Equal(testInstance, pipeline.ReasonDisabled, statuses[pipeline.StageCompliance].Reason)
	require.Equal(testInstance, []string{expiredRun}, summary.Outputs.RemovedRuns)
}

func TestRunCommandSucceedsWhenStagesFail(testInstance *testing.T) {
	now := time.Date(2024, time.March, 15, 6, 0, 0, 0, time.UTC)
	reportsDirectory := testInstance.TempDir()
	configurationPath := writeConfiguration(testInstance, reportsDirectory)

	application := cli.NewApplicationWithDependencies(fixedDependencies(now, &recordingExecutor{}))
	executionError := application.ExecuteWithArguments([]string{"run", "--config", configurationPath, "--report", "yes"})
	require.NoError(testInstance, executionError)

	encodedSummary, readError := os.ReadFile(filepath.Join(housekeeping.NewRunLayout(reportsDirectory, now).RunDirectory, pipeline.SummaryFileName))
	require.NoError(testInstance, readError)
	var summary pipeline.Summary
	require.NoError(testInstance, yaml.Unmarshal(encodedSummary, &summary))

	failed := []string{}
	for _, result := range summary.Stages {
		if result.Status == pipeline.StatusFailed {
			failed = append(failed, result.Name)
		}
	}
	require.ElementsMatch(testInstance, []string{pipeline.StageCompliance, pipeline.StageReport}, failed)
}

func TestCleanCommandHonorsRetentionOverride(testInstance *testing.T) {
	now := time.Date(2024, time.March, 15, 6, 0, 0, 0, time.UTC)
	reportsDirectory := testInstance.TempDir()
	olderRun := createRunDirectory(testInstance, reportsDirectory, now.AddDate(0, 0, -3))
	newerRun := createRunDirectory(testInstance, reportsDirectory, now.AddDate(0, 0, -1))
	configurationPath := writeConfiguration(testInstance, reportsDirectory)

	application := cli.NewApplicationWithDependencies(fixedDependencies(now, &recordingExecutor{}))
	executionError := application.ExecuteWithArguments([]string{"clean", "--config", configurationPath, "--retention-days", "2"})
	require.NoError(testInstance, executionError)

	require.NoDirExists(testInstance, olderRun)
	require.DirExists(testInstance, newerRun)
}

func TestScheduleCommandRejectsInvalidExpression(testInstance *testing.T) {
	configurationPath := writeConfiguration(testInstance, testInstance.TempDir())

	application := cli.NewApplicationWithDependencies(fixedDependencies(time.Now(), &recordingExecutor{}))
	executionError := application.ExecuteWithArguments([]string{"schedule", "--config", configurationPath, "--expression", "whenever"})
	require.Error(testInstance, executionError)
}

func TestConfigurationRejectsUnknownSinkMode(testInstance *testing.T) {
	configurationPath := writeConfiguration(testInstance, testInstance.TempDir())
	testInstance.Setenv("PORTALAUDIT_SINK_MODE", "LOOSE")

	application := cli.NewApplicationWithDependencies(fixedDependencies(time.Now(), &recordingExecutor{}))
	executionError := application.ExecuteWithArguments([]string{"run", "--config", configurationPath})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "invalid configuration")
}

func TestEmbeddedDefaultConfigurationDisablesPublication(testInstance *testing.T) {
	content, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var defaults struct {
		Stages struct {
			Publish bool `yaml:"publish"`
			Cleanup bool `yaml:"cleanup"`
		} `yaml:"stages"`
		Housekeeping struct {
			RetentionDays int `yaml:"retention_days"`
		} `yaml:"housekeeping"`
		Sink struct {
			Mode string `yaml:"mode"`
		} `yaml:"sink"`
	}
	require.NoError(testInstance, yaml.Unmarshal(content, &defaults))
	require.False(testInstance, defaults.Stages.Publish)
	require.True(testInstance, defaults.Stages.Cleanup)
	require.Equal(testInstance, 7, defaults.Housekeeping.RetentionDays)
	require.Equal(testInstance, "TEST", defaults.Sink.Mode)
}
