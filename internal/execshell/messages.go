package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	reportFormatFlagConstant                = "-r"
	reportOutputDirectoryFlagConstant       = "-d"
	reportStartTemplateConstant             = "Generating %s log report into %s"
	reportSuccessTemplateConstant           = "Generated %s log report into %s"
	reportFailureTemplateConstant           = "Failed to generate %s log report into %s (exit code %d%s)"
	reportExecutionFailureTemplateConstant  = "Unable to generate %s log report into %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	if reportFormat, outputDirectory, isReport := formatter.reportArguments(command); isReport {
		return fmt.Sprintf(reportStartTemplateConstant, reportFormat, outputDirectory)
	}
	return fmt.Sprintf(genericStartTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	if reportFormat, outputDirectory, isReport := formatter.reportArguments(command); isReport {
		return fmt.Sprintf(reportSuccessTemplateConstant, reportFormat, outputDirectory)
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)
	if reportFormat, outputDirectory, isReport := formatter.reportArguments(command); isReport {
		return fmt.Sprintf(reportFailureTemplateConstant, reportFormat, outputDirectory, result.ExitCode, standardErrorSuffix)
	}
	return fmt.Sprintf(genericFailureTemplateConstant, formatter.formatCommandLabel(command), result.ExitCode, standardErrorSuffix)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	if reportFormat, outputDirectory, isReport := formatter.reportArguments(command); isReport {
		return fmt.Sprintf(reportExecutionFailureTemplateConstant, reportFormat, outputDirectory, failureMessage)
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

// reportArguments recognizes log report generator invocations by their format and output flags.
func (formatter CommandMessageFormatter) reportArguments(command ShellCommand) (string, string, bool) {
	reportFormat := flagValue(command.Details.Arguments, reportFormatFlagConstant)
	outputDirectory := flagValue(command.Details.Arguments, reportOutputDirectoryFlagConstant)
	if len(reportFormat) == 0 || len(outputDirectory) == 0 {
		return emptyStringConstant, emptyStringConstant, false
	}
	return reportFormat, outputDirectory, true
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, command.Label(), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := trimmedOutput(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func flagValue(arguments []string, flagName string) string {
	for argumentIndex := 0; argumentIndex+1 < len(arguments); argumentIndex++ {
		if arguments[argumentIndex] == flagName {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}

func trimmedOutput(output string) string {
	return strings.TrimSpace(output)
}
