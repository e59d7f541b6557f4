package execshell

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultWaitDelay bounds how long a canceled command may keep its output pipes open.
	DefaultWaitDelay = 10 * time.Second
)

// OSCommandRunner starts external programs such as the log report generator and the report finalizer.
type OSCommandRunner struct {
	waitDelay time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{waitDelay: DefaultWaitDelay}
}

// Run starts the command, waits for it, and reports its output. A non-zero exit is a result, not an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.WaitDelay = runner.waitDelay

	var standardOutput strings.Builder
	var standardError strings.Builder
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}

	var exitError *exec.ExitError
	switch {
	case runError == nil:
		return result, nil
	case executionContext.Err() != nil:
		return result, executionContext.Err()
	case errors.As(runError, &exitError):
		result.ExitCode = exitError.ExitCode()
		return result, nil
	default:
		return ExecutionResult{}, runError
	}
}
