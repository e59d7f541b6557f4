package usage

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/tabular"
)

const (
	csvDirectoryNotConfiguredMessageConstant = "usage csv directory not configured"
	readItemsErrorTemplateConstant           = "unable to read inventory items: %w"
	selectColumnsErrorTemplateConstant       = "sheet %q: %w"
	writeOutputErrorTemplateConstant         = "unable to write %s: %w"
	outputWrittenMessageConstant             = "usage file written"
	reconciliationStartedMessageConstant     = "processing usage workbook"
	logFieldWorkbookConstant                 = "workbook"
	logFieldFileConstant                     = "file"
	logFieldRowsConstant                     = "rows"
)

// ErrCSVDirectoryNotConfigured indicates the reconciler has no directory to read from and write to.
var ErrCSVDirectoryNotConfigured = errors.New(csvDirectoryNotConfiguredMessageConstant)

// Result lists the normalized outputs and their row counts.
type Result struct {
	Files map[string]string
	Rows  map[string]int
}

// Reconciler converts a usage workbook plus the inventory items into normalized CSV tables.
type Reconciler struct {
	csvDirectory string
	logger       *zap.Logger
}

// NewReconciler constructs a Reconciler writing into csvDirectory, where items.csv is also read.
func NewReconciler(csvDirectory string, logger *zap.Logger) (*Reconciler, error) {
	if len(csvDirectory) == 0 {
		return nil, ErrCSVDirectoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{csvDirectory: csvDirectory, logger: logger}, nil
}

// Reconcile reads the workbook and writes throughput, stats_by_user, stats_by_resource,
// item_metrics, and all_requests. Any failure aborts the remaining outputs.
func (reconciler *Reconciler) Reconcile(workbookPath string) (Result, error) {
	reconciler.logger.Info(reconciliationStartedMessageConstant, zap.String(logFieldWorkbookConstant, workbookPath))

	workbook, workbookError := ReadWorkbook(workbookPath)
	if workbookError != nil {
		return Result{}, workbookError
	}
	items, itemsError := tabular.ReadFile(filepath.Join(reconciler.csvDirectory, inventory.ItemsFileName))
	if itemsError != nil {
		return Result{}, fmt.Errorf(readItemsErrorTemplateConstant, itemsError)
	}

	allRequests, allRequestsError := NormalizeAllRequests(workbook.AllRequests)
	if allRequestsError != nil {
		return Result{}, fmt.Errorf(selectColumnsErrorTemplateConstant, AllRequestsSheet, allRequestsError)
	}
	itemMetrics, itemMetricsError := BuildItemMetrics(items, allRequests)
	if itemMetricsError != nil {
		return Result{}, itemMetricsError
	}

	outputs := []struct {
		fileName string
		table    tabular.Table
	}{
		{fileName: ThroughputFileName, table: NormalizeThroughput(workbook.Throughput)},
		{fileName: StatisticsByUserFileName, table: NormalizeStatisticsByUser(workbook.StatisticsByUser)},
		{fileName: StatisticsByResourceFileName, table: NormalizeStatisticsByResource(workbook.StatisticsByResource)},
		{fileName: ItemMetricsFileName, table: itemMetrics},
		{fileName: AllRequestsFileName, table: allRequests},
	}

	result := Result{Files: map[string]string{}, Rows: map[string]int{}}
	for _, output := range outputs {
		outputPath := filepath.Join(reconciler.csvDirectory, output.fileName)
		if writeError := tabular.WriteFile(outputPath, output.table); writeError != nil {
			return result, fmt.Errorf(writeOutputErrorTemplateConstant, outputPath, writeError)
		}
		result.Files[output.fileName] = outputPath
		result.Rows[output.fileName] = output.table.Len()
		reconciler.logger.Info(outputWrittenMessageConstant, zap.String(logFieldFileConstant, outputPath), zap.Int(logFieldRowsConstant, output.table.Len()))
	}
	return result, nil
}

// NormalizeThroughput renames the throughput columns and derives the day of each sample.
func NormalizeThroughput(throughput tabular.Table) tabular.Table {
	return throughput.
		WithColumn(DateColumn, func(record tabular.Record) string {
			return dayOf(record.Get(sourceDateTimeColumn))
		}).
		Rename(throughputColumnRenames)
}

// NormalizeStatisticsByUser drops geoprocessing and placeholder-user rows and renames the percentage columns.
func NormalizeStatisticsByUser(statistics tabular.Table) tabular.Table {
	return statistics.
		Filter(func(record tabular.Record) bool {
			if IsGeoprocessingResource(record.Get(sourceResourceColumn)) || IsGeoprocessingResource(record.Get(sourceCapabilityColumn)) {
				return false
			}
			user := record.Trimmed(sourceUserColumn)
			return len(user) > 0 && user != placeholderUserValue
		}).
		Rename(statisticsColumnRenames)
}

// NormalizeStatisticsByResource drops aggregate, banner, and geoprocessing rows and renames the percentage columns.
func NormalizeStatisticsByResource(statistics tabular.Table) tabular.Table {
	return statistics.
		Filter(func(record tabular.Record) bool {
			resource := record.Trimmed(sourceResourceColumn)
			if resource == allResourcesAggregateValue || resource == columnDescriptionBannerValue {
				return false
			}
			return !IsGeoprocessingResource(resource) && !IsGeoprocessingResource(record.Get(sourceCapabilityColumn))
		}).
		Rename(statisticsColumnRenames)
}

// NormalizeAllRequests keeps the sixteen request columns and renames them.
func NormalizeAllRequests(allRequests tabular.Table) (tabular.Table, error) {
	selected, selectError := allRequests.Select(allRequestsSourceColumns)
	if selectError != nil {
		return tabular.Table{}, selectError
	}
	return selected.Rename(allRequestsColumnRenames), nil
}
