package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/portalaudit/internal/tabular"
)

const (
	tableFileExtensionConstant            = ".csv"
	temporarySuffixConstant               = ".tmp"
	temporaryPatternConstant              = "*" + temporarySuffixConstant
	directoryNotConfiguredMessageConstant = "table directory not configured"
	directoryTableReadTemplateConstant    = "unable to read table %s: %w"
	directoryTableMissingTemplateConstant = "%s: %w"
	directoryReplaceTemplateConstant      = "unable to replace table %s: %w"
	directoryCompactionTemplateConstant   = "unable to compact table %s: %w"
)

// ErrTableDirectoryNotConfigured indicates the directory store has no root.
var ErrTableDirectoryNotConfigured = errors.New(directoryNotConfiguredMessageConstant)

// DirectoryStore keeps each table as a CSV file inside one directory.
type DirectoryStore struct {
	rootDirectory string
}

// NewDirectoryStore constructs a store rooted at rootDirectory.
func NewDirectoryStore(rootDirectory string) (*DirectoryStore, error) {
	if len(rootDirectory) == 0 {
		return nil, ErrTableDirectoryNotConfigured
	}
	return &DirectoryStore{rootDirectory: rootDirectory}, nil
}

// Columns returns the header of the table file.
func (store *DirectoryStore) Columns(_ context.Context, table string) ([]string, error) {
	tablePath := store.tablePath(table)
	if _, statError := os.Stat(tablePath); errors.Is(statError, os.ErrNotExist) {
		return nil, fmt.Errorf(directoryTableMissingTemplateConstant, table, ErrTableNotFound)
	}
	existing, readError := tabular.ReadFile(tablePath)
	if readError != nil {
		return nil, fmt.Errorf(directoryTableReadTemplateConstant, table, readError)
	}
	return existing.Header(), nil
}

// Replace writes the rows to a temporary file and renames it over the table file.
func (store *DirectoryStore) Replace(executionContext context.Context, table string, data tabular.Table) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}
	tablePath := store.tablePath(table)
	temporaryPath := tablePath + temporarySuffixConstant
	if writeError := tabular.WriteFile(temporaryPath, data); writeError != nil {
		return fmt.Errorf(directoryReplaceTemplateConstant, table, writeError)
	}
	if renameError := os.Rename(temporaryPath, tablePath); renameError != nil {
		return fmt.Errorf(directoryReplaceTemplateConstant, table, renameError)
	}
	return nil
}

// Compact removes temporary files left behind for the table.
func (store *DirectoryStore) Compact(_ context.Context, table string) error {
	leftovers, globError := filepath.Glob(filepath.Join(store.rootDirectory, table+temporaryPatternConstant))
	if globError != nil {
		return fmt.Errorf(directoryCompactionTemplateConstant, table, globError)
	}
	for _, leftover := range leftovers {
		if removeError := os.Remove(leftover); removeError != nil && !errors.Is(removeError, os.ErrNotExist) {
			return fmt.Errorf(directoryCompactionTemplateConstant, table, removeError)
		}
	}
	return nil
}

func (store *DirectoryStore) tablePath(table string) string {
	return filepath.Join(store.rootDirectory, table+tableFileExtensionConstant)
}
