package execshell

import (
	"context"
	"strings"
)

// CommandName identifies the executable invoked by a ShellCommand.
type CommandName string

// CommandDetails describes the arguments of a single invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand combines an executable name with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandExecutor is the collaborator consumed by stages that shell out.
type CommandExecutor interface {
	Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Label renders the command and its arguments on a single line.
func (command ShellCommand) Label() string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
}
