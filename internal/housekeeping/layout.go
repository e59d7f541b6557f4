package housekeeping

import (
	"path/filepath"
	"time"
)

const (
	// RunDirectoryDateLayout names run directories after the run date.
	RunDirectoryDateLayout = "01-02-2006"
	// CSVDirectoryName holds the extracted and reconciled tables.
	CSVDirectoryName = "csv_files"
	// LogReportDirectoryName holds the generated log workbook.
	LogReportDirectoryName = "sys_log_report"
	// ChartsDirectoryName holds the rendered chart images.
	ChartsDirectoryName = "charts"
)

// RunLayout locates every directory of one run.
type RunLayout struct {
	ReportsDirectory   string
	RunDirectory       string
	CSVDirectory       string
	LogReportDirectory string
	ChartsDirectory    string
}

// NewRunLayout derives the run directories for runDate under reportsDirectory.
func NewRunLayout(reportsDirectory string, runDate time.Time) RunLayout {
	runDirectory := filepath.Join(reportsDirectory, runDate.Format(RunDirectoryDateLayout))
	return RunLayout{
		ReportsDirectory:   reportsDirectory,
		RunDirectory:       runDirectory,
		CSVDirectory:       filepath.Join(runDirectory, CSVDirectoryName),
		LogReportDirectory: filepath.Join(runDirectory, LogReportDirectoryName),
		ChartsDirectory:    filepath.Join(runDirectory, ChartsDirectoryName),
	}
}

// Directories lists the directories Prepare creates.
func (layout RunLayout) Directories() []string {
	return []string{layout.CSVDirectory, layout.LogReportDirectory, layout.ChartsDirectory}
}

// IsRunDirectoryName reports whether name follows the run directory date layout.
func IsRunDirectoryName(name string) bool {
	_, parseError := time.Parse(RunDirectoryDateLayout, name)
	return parseError == nil
}
