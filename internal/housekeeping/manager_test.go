package housekeeping_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/filesystem"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/utils"
)

var testNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.Local)

type failingRemoveFileSystem struct {
	filesystem.OSFileSystem
	failure error
}

func (fileSystem failingRemoveFileSystem) RemoveAll(string) error {
	return fileSystem.failure
}

func createRunDirectory(testInstance *testing.T, reportsDirectory string, name string, modified time.Time) string {
	testInstance.Helper()
	runDirectory := filepath.Join(reportsDirectory, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(runDirectory, housekeeping.CSVDirectoryName), 0o755))
	require.NoError(testInstance, os.Chtimes(runDirectory, modified, modified))
	return runDirectory
}

func TestNewRunLayout(testInstance *testing.T) {
	layout := housekeeping.NewRunLayout("/reports", testNow)
	require.Equal(testInstance, filepath.Join("/reports", "03-15-2024"), layout.RunDirectory)
	require.Equal(testInstance, filepath.Join("/reports", "03-15-2024", "csv_files"), layout.CSVDirectory)
	require.Equal(testInstance, filepath.Join("/reports", "03-15-2024", "sys_log_report"), layout.LogReportDirectory)
	require.Equal(testInstance, filepath.Join("/reports", "03-15-2024", "charts"), layout.ChartsDirectory)
}

func TestManagerPrepareCreatesRunDirectories(testInstance *testing.T) {
	reportsDirectory := testInstance.TempDir()
	manager, managerError := housekeeping.NewManager(filesystem.OSFileSystem{}, utils.FixedClock{Instant: testNow}, zap.NewNop(), housekeeping.Configuration{ReportsDirectory: reportsDirectory})
	require.NoError(testInstance, managerError)

	layout, prepareError := manager.Prepare(context.Background())
	require.NoError(testInstance, prepareError)
	for _, directory := range layout.Directories() {
		info, statError := os.Stat(directory)
		require.NoError(testInstance, statError)
		require.True(testInstance, info.IsDir())
	}

	_, secondPrepareError := manager.Prepare(context.Background())
	require.NoError(testInstance, secondPrepareError)
}

func TestManagerCleanRemovesExpiredRunsOnly(testInstance *testing.T) {
	reportsDirectory := testInstance.TempDir()
	expired := createRunDirectory(testInstance, reportsDirectory, "03-01-2024", testNow.AddDate(0, 0, -14))
	recent := createRunDirectory(testInstance, reportsDirectory, "03-12-2024", testNow.AddDate(0, 0, -3))
	current := createRunDirectory(testInstance, reportsDirectory, "03-15-2024", testNow.AddDate(0, 0, -30))
	unrelated := createRunDirectory(testInstance, reportsDirectory, "archive", testNow.AddDate(0, 0, -60))

	manager, managerError := housekeeping.NewManager(filesystem.OSFileSystem{}, utils.FixedClock{Instant: testNow}, zap.NewNop(), housekeeping.Configuration{ReportsDirectory: reportsDirectory, RetentionDays: 7})
	require.NoError(testInstance, managerError)

	result, cleanError := manager.Clean(context.Background())
	require.NoError(testInstance, cleanError)
	require.Equal(testInstance, []string{expired}, result.Removed)
	require.Equal(testInstance, 2, result.Retained)

	_, expiredStatError := os.Stat(expired)
	require.True(testInstance, os.IsNotExist(expiredStatError))
	for _, kept := range []string{recent, current, unrelated} {
		_, statError := os.Stat(kept)
		require.NoError(testInstance, statError)
	}
}

func TestManagerCleanContinuesAfterRemovalFailure(testInstance *testing.T) {
	reportsDirectory := testInstance.TempDir()
	createRunDirectory(testInstance, reportsDirectory, "02-01-2024", testNow.AddDate(0, 0, -40))
	createRunDirectory(testInstance, reportsDirectory, "02-02-2024", testNow.AddDate(0, 0, -39))

	fileSystem := failingRemoveFileSystem{failure: errors.New("permission denied")}
	manager, managerError := housekeeping.NewManager(fileSystem, utils.FixedClock{Instant: testNow}, zap.NewNop(), housekeeping.Configuration{ReportsDirectory: reportsDirectory})
	require.NoError(testInstance, managerError)

	result, cleanError := manager.Clean(context.Background())
	require.NoError(testInstance, cleanError)
	require.Equal(testInstance, 2, result.Failed)
	require.Empty(testInstance, result.Removed)
}

func TestNewManagerValidatesConfiguration(testInstance *testing.T) {
	_, fileSystemError := housekeeping.NewManager(nil, nil, nil, housekeeping.Configuration{ReportsDirectory: "/reports"})
	require.ErrorIs(testInstance, fileSystemError, housekeeping.ErrFileSystemNotConfigured)

	_, directoryError := housekeeping.NewManager(filesystem.OSFileSystem{}, nil, nil, housekeeping.Configuration{ReportsDirectory: " "})
	require.ErrorIs(testInstance, directoryError, housekeeping.ErrReportsDirectoryNotConfigured)
}
