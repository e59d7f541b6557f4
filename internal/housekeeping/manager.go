package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/filesystem"
	"github.com/temirov/portalaudit/internal/utils"
)

const (
	defaultRetentionDaysConstant                 = 7
	runDirectoryPermissionsConstant              = 0o755
	reportsDirectoryNotConfiguredMessageConstant = "reports directory not configured"
	fileSystemNotConfiguredMessageConstant       = "filesystem not configured"
	createDirectoryTemplateConstant              = "unable to create run directory %s: %w"
	listReportsTemplateConstant                  = "unable to list reports directory %s: %w"
	runDirectoryPreparedMessageConstant          = "run directory prepared"
	expiredRunRemovedMessageConstant             = "expired run directory removed"
	expiredRunRemovalFailedMessageConstant       = "unable to remove expired run directory"
	expiredRunInspectionFailedMessageConstant    = "unable to inspect run directory"
	cleanupCompletedMessageConstant              = "retention cleanup completed"
	logFieldDirectoryConstant                    = "directory"
	logFieldRemovedConstant                      = "removed"
	logFieldRetainedConstant                     = "retained"
	logFieldRetentionDaysConstant                = "retention_days"
	hoursPerDayConstant                          = 24
)

var (
	// ErrReportsDirectoryNotConfigured indicates no reports root was configured.
	ErrReportsDirectoryNotConfigured = errors.New(reportsDirectoryNotConfiguredMessageConstant)
	// ErrFileSystemNotConfigured indicates the manager has no filesystem.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
)

// Configuration describes where runs live and how long they are kept.
type Configuration struct {
	ReportsDirectory string `mapstructure:"reports_directory"`
	RetentionDays    int    `mapstructure:"retention_days" validate:"gte=0"`
}

// CleanupResult summarizes a retention sweep.
type CleanupResult struct {
	Removed  []string
	Retained int
	Failed   int
}

// Manager prepares run directories and enforces retention.
type Manager struct {
	fileSystem    filesystem.FileSystem
	clock         utils.Clock
	logger        *zap.Logger
	configuration Configuration
}

// NewManager validates dependencies and constructs a Manager.
func NewManager(fileSystem filesystem.FileSystem, clock utils.Clock, logger *zap.Logger, configuration Configuration) (*Manager, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	configuration.ReportsDirectory = strings.TrimSpace(configuration.ReportsDirectory)
	if len(configuration.ReportsDirectory) == 0 {
		return nil, ErrReportsDirectoryNotConfigured
	}
	if configuration.RetentionDays <= 0 {
		configuration.RetentionDays = defaultRetentionDaysConstant
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{fileSystem: fileSystem, clock: clock, logger: logger, configuration: configuration}, nil
}

// Layout returns the run layout for the current date.
func (manager *Manager) Layout() RunLayout {
	return NewRunLayout(manager.configuration.ReportsDirectory, manager.clock.Now())
}

// Prepare creates the current run's directories. Existing directories are reused.
func (manager *Manager) Prepare(_ context.Context) (RunLayout, error) {
	layout := manager.Layout()
	for _, directory := range layout.Directories() {
		if directoryError := manager.fileSystem.MkdirAll(directory, runDirectoryPermissionsConstant); directoryError != nil {
			return RunLayout{}, fmt.Errorf(createDirectoryTemplateConstant, directory, directoryError)
		}
	}
	manager.logger.Info(runDirectoryPreparedMessageConstant, zap.String(logFieldDirectoryConstant, layout.RunDirectory))
	return layout, nil
}

// Clean removes run directories modified before the retention window. The current run directory is never removed.
func (manager *Manager) Clean(executionContext context.Context) (CleanupResult, error) {
	result := CleanupResult{}
	reportsDirectory := manager.configuration.ReportsDirectory
	entries, listError := manager.fileSystem.ReadDir(reportsDirectory)
	if listError != nil {
		return result, fmt.Errorf(listReportsTemplateConstant, reportsDirectory, listError)
	}

	now := manager.clock.Now()
	cutoff := now.Add(-time.Duration(manager.configuration.RetentionDays) * hoursPerDayConstant * time.Hour)
	currentRunDirectory := filepath.Clean(manager.Layout().RunDirectory)

	for _, entry := range entries {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		if !entry.IsDir() || !IsRunDirectoryName(entry.Name()) {
			continue
		}
		runDirectory := filepath.Join(reportsDirectory, entry.Name())
		if filepath.Clean(runDirectory) == currentRunDirectory {
			result.Retained++
			continue
		}
		info, statError := manager.fileSystem.Stat(runDirectory)
		if statError != nil {
			result.Failed++
			manager.logger.Warn(expiredRunInspectionFailedMessageConstant, zap.String(logFieldDirectoryConstant, runDirectory), zap.Error(statError))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			result.Retained++
			continue
		}
		if removeError := manager.fileSystem.RemoveAll(runDirectory); removeError != nil {
			result.Failed++
			manager.logger.Warn(expiredRunRemovalFailedMessageConstant, zap.String(logFieldDirectoryConstant, runDirectory), zap.Error(removeError))
			continue
		}
		result.Removed = append(result.Removed, runDirectory)
		manager.logger.Info(expiredRunRemovedMessageConstant, zap.String(logFieldDirectoryConstant, runDirectory))
	}

	manager.logger.Info(
		cleanupCompletedMessageConstant,
		zap.Int(logFieldRemovedConstant, len(result.Removed)),
		zap.Int(logFieldRetainedConstant, result.Retained),
		zap.Int(logFieldRetentionDaysConstant, manager.configuration.RetentionDays),
	)
	return result, nil
}
