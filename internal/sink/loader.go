package sink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/tabular"
	"github.com/temirov/portalaudit/internal/usage"
)

// Mode selects how source columns are checked against the destination schema.
type Mode string

const (
	// ModeTest requires the source header to equal the destination schema, ignoring case.
	ModeTest Mode = "TEST"
	// ModeNoTest maps columns by case-insensitive name, dropping unknown and blanking missing ones.
	ModeNoTest Mode = "NO_TEST"
)

const (
	storeNotConfiguredMessageConstant = "table store not configured"
	unknownModeTemplateConstant       = "unknown sink validation mode %q"
	tableLoadErrorTemplateConstant    = "load of table %s (%d of %d) failed: %v"
	schemaMismatchTemplateConstant    = "source columns [%s] do not match destination columns [%s]"
	readSourceTemplateConstant        = "unable to read source %s: %w"
	compactionStageTemplateConstant   = "compaction of %s failed: %w"
	columnListSeparatorConstant       = ", "
	loadingTableMessageConstant       = "loading table"
	tableLoadedMessageConstant        = "table loaded"
	tableFailedMessageConstant        = "table load failed"
	compactionSkippedMessageConstant  = "compaction skipped after failed load"
	compactedMessageConstant          = "tables compacted"
	logFieldTableConstant             = "table"
	logFieldRowsConstant              = "rows"
	logFieldModeConstant              = "mode"
	logFieldTablesConstant            = "tables"
)

// ErrTableStoreNotConfigured indicates the loader has no store.
var ErrTableStoreNotConfigured = errors.New(storeNotConfiguredMessageConstant)

// TableSource binds a destination table to the CSV file that feeds it.
type TableSource struct {
	Table    string
	FileName string
}

// LoadOrder lists the tables in the order they are reloaded.
var LoadOrder = []TableSource{
	{Table: "users", FileName: inventory.UsersFileName},
	{Table: "groups", FileName: inventory.GroupsFileName},
	{Table: "items", FileName: inventory.ItemsFileName},
	{Table: "throughput", FileName: usage.ThroughputFileName},
	{Table: "item_metrics", FileName: usage.ItemMetricsFileName},
	{Table: "stats_by_resource", FileName: usage.StatisticsByResourceFileName},
	{Table: "stats_by_user", FileName: usage.StatisticsByUserFileName},
	{Table: "all_requests", FileName: usage.AllRequestsFileName},
}

// SchemaMismatchError reports a TEST mode header that differs from the destination schema.
type SchemaMismatchError struct {
	SourceColumns      []string
	DestinationColumns []string
}

// Error describes the mismatch.
func (mismatch SchemaMismatchError) Error() string {
	return fmt.Sprintf(
		schemaMismatchTemplateConstant,
		strings.Join(mismatch.SourceColumns, columnListSeparatorConstant),
		strings.Join(mismatch.DestinationColumns, columnListSeparatorConstant),
	)
}

// TableLoadError identifies the table at which a load pass stopped.
type TableLoadError struct {
	Table    string
	Position int
	Total    int
	Cause    error
}

// Error describes the failed table.
func (loadError TableLoadError) Error() string {
	return fmt.Sprintf(tableLoadErrorTemplateConstant, loadError.Table, loadError.Position, loadError.Total, loadError.Cause)
}

// Unwrap exposes the underlying failure.
func (loadError TableLoadError) Unwrap() error {
	return loadError.Cause
}

// Result summarizes a load pass.
type Result struct {
	LoadedTables []string
	RowsLoaded   int
	Compacted    bool
}

// Loader reloads the run's CSV outputs into a TableStore.
type Loader struct {
	store  TableStore
	mode   Mode
	logger *zap.Logger
}

// NewLoader validates collaborators and constructs a Loader. An empty mode defaults to TEST.
func NewLoader(store TableStore, mode Mode, logger *zap.Logger) (*Loader, error) {
	if store == nil {
		return nil, ErrTableStoreNotConfigured
	}
	switch mode {
	case "":
		mode = ModeTest
	case ModeTest, ModeNoTest:
	default:
		return nil, fmt.Errorf(unknownModeTemplateConstant, mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, mode: mode, logger: logger}, nil
}

// Load reloads every table in LoadOrder from csvDirectory and compacts them after a complete pass.
func (loader *Loader) Load(executionContext context.Context, csvDirectory string) (Result, error) {
	result := Result{}
	for sourceIndex, source := range LoadOrder {
		loader.logger.Info(loadingTableMessageConstant, zap.String(logFieldTableConstant, source.Table), zap.String(logFieldModeConstant, string(loader.mode)))
		rowCount, loadError := loader.loadTable(executionContext, csvDirectory, source)
		if loadError != nil {
			loader.logger.Error(tableFailedMessageConstant, zap.String(logFieldTableConstant, source.Table), zap.Error(loadError))
			loader.logger.Warn(compactionSkippedMessageConstant, zap.Strings(logFieldTablesConstant, result.LoadedTables))
			return result, TableLoadError{Table: source.Table, Position: sourceIndex + 1, Total: len(LoadOrder), Cause: loadError}
		}
		result.LoadedTables = append(result.LoadedTables, source.Table)
		result.RowsLoaded += rowCount
		loader.logger.Info(tableLoadedMessageConstant, zap.String(logFieldTableConstant, source.Table), zap.Int(logFieldRowsConstant, rowCount))
	}

	for _, source := range LoadOrder {
		if compactError := loader.store.Compact(executionContext, source.Table); compactError != nil {
			return result, fmt.Errorf(compactionStageTemplateConstant, source.Table, compactError)
		}
	}
	result.Compacted = true
	loader.logger.Info(compactedMessageConstant, zap.Strings(logFieldTablesConstant, result.LoadedTables))
	return result, nil
}

func (loader *Loader) loadTable(executionContext context.Context, csvDirectory string, source TableSource) (int, error) {
	sourcePath := filepath.Join(csvDirectory, source.FileName)
	sourceTable, readError := tabular.ReadFile(sourcePath)
	if readError != nil {
		return 0, fmt.Errorf(readSourceTemplateConstant, sourcePath, readError)
	}

	destinationColumns, columnsError := loader.store.Columns(executionContext, source.Table)
	if columnsError != nil {
		return 0, columnsError
	}

	if loader.mode == ModeTest && !slices.EqualFunc(sourceTable.Header(), destinationColumns, strings.EqualFold) {
		return 0, SchemaMismatchError{SourceColumns: sourceTable.Header(), DestinationColumns: destinationColumns}
	}
	prepared := sourceTable.Project(destinationColumns)

	if replaceError := loader.store.Replace(executionContext, source.Table, prepared); replaceError != nil {
		return 0, replaceError
	}
	return prepared.Len(), nil
}
