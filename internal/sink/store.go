package sink

import (
	"context"
	"errors"

	"github.com/temirov/portalaudit/internal/tabular"
)

const tableNotFoundMessageConstant = "table not found in store"

// ErrTableNotFound indicates the destination table does not exist.
var ErrTableNotFound = errors.New(tableNotFoundMessageConstant)

// TableStore is a durable destination of named tables.
type TableStore interface {
	// Columns returns the destination schema of table in order.
	Columns(executionContext context.Context, table string) ([]string, error)
	// Replace truncates table and appends every row of data as one atomic unit.
	Replace(executionContext context.Context, table string, data tabular.Table) error
	// Compact reclaims space held by table.
	Compact(executionContext context.Context, table string) error
}
