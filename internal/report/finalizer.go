package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/portalaudit/internal/execshell"
)

const (
	finalizerExecutorMissingMessageConstant = "document finalizer configured without a command executor"
	finalizeFailedTemplateConstant          = "unable to finalize document %s: %w"
)

// ErrFinalizerExecutorNotConfigured indicates a finalizer command without an executor to run it.
var ErrFinalizerExecutorNotConfigured = errors.New(finalizerExecutorMissingMessageConstant)

// Enabled reports whether a finalization command is configured.
func (configuration FinalizerConfiguration) Enabled() bool {
	return len(strings.TrimSpace(configuration.Executable)) > 0
}

// Command builds the finalization command for documentPath. Without arguments the document path is the only argument.
func (configuration FinalizerConfiguration) Command(documentPath string) execshell.ShellCommand {
	arguments := []string{documentPath}
	if len(configuration.Arguments) > 0 {
		arguments = make([]string, 0, len(configuration.Arguments))
		for _, argument := range configuration.Arguments {
			arguments = append(arguments, strings.ReplaceAll(argument, DocumentPlaceholder, documentPath))
		}
	}
	return execshell.ShellCommand{
		Name: execshell.CommandName(configuration.Executable),
		Details: execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: filepath.Dir(documentPath),
		},
	}
}

func finalizeDocument(executionContext context.Context, executor execshell.CommandExecutor, configuration FinalizerConfiguration, documentPath string) error {
	if executor == nil {
		return ErrFinalizerExecutorNotConfigured
	}
	if _, executeError := executor.Execute(executionContext, configuration.Command(documentPath)); executeError != nil {
		return fmt.Errorf(finalizeFailedTemplateConstant, documentPath, executeError)
	}
	return nil
}
