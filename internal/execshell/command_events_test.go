package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/portalaudit/internal/execshell"
)

const (
	testEventCommandNameConstant             = execshell.CommandName("finalize-document")
	testEventWorkingDirectoryConstant        = "/tmp/reports"
	testEventArgumentConstant                = "report.xlsx"
	testEventCommandLabelConstant            = "finalize-document report.xlsx (in /tmp/reports)"
	testEventExecutionFailureReasonConstant  = "execution failed"
	testEventStandardErrorMessageConstant    = "document locked"
	testEventStartMessageExpectation         = "Running " + testEventCommandLabelConstant
	testEventSuccessMessageExpectation       = "Completed " + testEventCommandLabelConstant
	testEventFailureMessageExpectation       = testEventCommandLabelConstant + " failed with exit code 1: " + testEventStandardErrorMessageConstant
	testEventExecutionFailureMessageExpected = testEventCommandLabelConstant + " failed: " + testEventExecutionFailureReasonConstant
	testReportStartMessageExpectation        = "Generating spreadsheet log report into /runs/sys_log_report"
	testReportFailureMessageExpectation      = "Failed to generate spreadsheet log report into /runs/sys_log_report (exit code 2: no logs)"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: testEventCommandNameConstant,
		Details: execshell.CommandDetails{
			Arguments:        []string{testEventArgumentConstant},
			WorkingDirectory: testEventWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *execshell.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *execshell.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testEventStartMessageExpectation,
		},
		{
			name: "command_completed_success",
			invoke: func(logger *execshell.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testEventSuccessMessageExpectation,
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *execshell.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: testEventStandardErrorMessageConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testEventFailureMessageExpectation,
		},
		{
			name: "command_execution_failed",
			invoke: func(logger *execshell.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New(testEventExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testEventExecutionFailureMessageExpected,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := execshell.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}

func TestCommandMessageFormatterDescribesLogReports(testInstance *testing.T) {
	reportCommand := execshell.ShellCommand{
		Name: execshell.CommandName("SystemLogParser.exe"),
		Details: execshell.CommandDetails{
			Arguments: []string{"-f", "AGSFS", "-d", "/runs/sys_log_report", "-r", "spreadsheet"},
		},
	}
	formatter := execshell.CommandMessageFormatter{}

	require.Equal(testInstance, testReportStartMessageExpectation, formatter.BuildStartedMessage(reportCommand))
	require.Equal(testInstance, testReportFailureMessageExpectation, formatter.BuildFailureMessage(reportCommand, execshell.ExecutionResult{ExitCode: 2, StandardError: "no logs\n"}))
}
