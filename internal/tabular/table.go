package tabular

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	missingColumnTemplateConstant    = "column %q not present"
	rowWidthMismatchTemplateConstant = "row %d has %d values, header has %d"
	emptyHeaderMessageConstant       = "table header is empty"
)

// ErrEmptyHeader indicates a table without columns.
var ErrEmptyHeader = errors.New(emptyHeaderMessageConstant)

// Table is an ordered header with string rows. Methods return new tables and never mutate the receiver.
type Table struct {
	header []string
	rows   [][]string
}

// Record is a read-only view of one table row.
type Record struct {
	columnIndexes map[string]int
	values        []string
}

// NewTable builds a table from a header and rows; rows are padded or truncated to the header width.
func NewTable(header []string, rows [][]string) Table {
	duplicatedHeader := slices.Clone(header)
	normalizedRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalizedRows = append(normalizedRows, fitRow(row, len(duplicatedHeader)))
	}
	return Table{header: duplicatedHeader, rows: normalizedRows}
}

// Header returns a copy of the column names.
func (table Table) Header() []string {
	return slices.Clone(table.header)
}

// Rows returns a copy of the rows.
func (table Table) Rows() [][]string {
	duplicatedRows := make([][]string, 0, len(table.rows))
	for _, row := range table.rows {
		duplicatedRows = append(duplicatedRows, slices.Clone(row))
	}
	return duplicatedRows
}

// Len returns the number of rows.
func (table Table) Len() int {
	return len(table.rows)
}

// HasColumn reports whether the header contains column.
func (table Table) HasColumn(column string) bool {
	return slices.Contains(table.header, column)
}

// Records returns read-only views over every row.
func (table Table) Records() []Record {
	columnIndexes := table.columnIndexes()
	records := make([]Record, 0, len(table.rows))
	for _, row := range table.rows {
		records = append(records, Record{columnIndexes: columnIndexes, values: row})
	}
	return records
}

// Column returns the values of column in row order.
func (table Table) Column(column string) ([]string, error) {
	columnIndex := slices.Index(table.header, column)
	if columnIndex < 0 {
		return nil, fmt.Errorf(missingColumnTemplateConstant, column)
	}
	values := make([]string, 0, len(table.rows))
	for _, row := range table.rows {
		values = append(values, row[columnIndex])
	}
	return values, nil
}

// Rename returns a table whose columns are renamed according to renames; unknown columns keep their names.
func (table Table) Rename(renames map[string]string) Table {
	renamedHeader := make([]string, 0, len(table.header))
	for _, column := range table.header {
		if renamedColumn, shouldRename := renames[column]; shouldRename {
			renamedHeader = append(renamedHeader, renamedColumn)
			continue
		}
		renamedHeader = append(renamedHeader, column)
	}
	return Table{header: renamedHeader, rows: table.Rows()}
}

// Select returns a table restricted to columns, in the given order.
func (table Table) Select(columns []string) (Table, error) {
	sourceIndexes := make([]int, 0, len(columns))
	for _, column := range columns {
		columnIndex := slices.Index(table.header, column)
		if columnIndex < 0 {
			return Table{}, fmt.Errorf(missingColumnTemplateConstant, column)
		}
		sourceIndexes = append(sourceIndexes, columnIndex)
	}

	selectedRows := make([][]string, 0, len(table.rows))
	for _, row := range table.rows {
		selectedRow := make([]string, 0, len(sourceIndexes))
		for _, sourceIndex := range sourceIndexes {
			selectedRow = append(selectedRow, row[sourceIndex])
		}
		selectedRows = append(selectedRows, selectedRow)
	}
	return Table{header: slices.Clone(columns), rows: selectedRows}, nil
}

// Project maps the table onto columns by name; columns absent from the table are filled with empty values.
// Names match exactly first and then without regard to case.
func (table Table) Project(columns []string) Table {
	sourceIndexes := make([]int, 0, len(columns))
	for _, column := range columns {
		sourceIndexes = append(sourceIndexes, table.columnIndexFolded(column))
	}

	projectedRows := make([][]string, 0, len(table.rows))
	for _, row := range table.rows {
		projectedRow := make([]string, 0, len(columns))
		for _, sourceIndex := range sourceIndexes {
			if sourceIndex < 0 {
				projectedRow = append(projectedRow, "")
				continue
			}
			projectedRow = append(projectedRow, row[sourceIndex])
		}
		projectedRows = append(projectedRows, projectedRow)
	}
	return Table{header: slices.Clone(columns), rows: projectedRows}
}

func (table Table) columnIndexFolded(column string) int {
	if columnIndex := slices.Index(table.header, column); columnIndex >= 0 {
		return columnIndex
	}
	return slices.IndexFunc(table.header, func(candidate string) bool {
		return strings.EqualFold(candidate, column)
	})
}

// Filter returns a table holding only the rows for which keep returns true.
func (table Table) Filter(keep func(Record) bool) Table {
	columnIndexes := table.columnIndexes()
	keptRows := [][]string{}
	for _, row := range table.rows {
		if keep(Record{columnIndexes: columnIndexes, values: row}) {
			keptRows = append(keptRows, slices.Clone(row))
		}
	}
	return Table{header: table.Header(), rows: keptRows}
}

// WithColumn returns a table with an extra column whose values derive from each record.
func (table Table) WithColumn(column string, derive func(Record) string) Table {
	columnIndexes := table.columnIndexes()
	extendedRows := make([][]string, 0, len(table.rows))
	for _, row := range table.rows {
		extendedRow := append(slices.Clone(row), derive(Record{columnIndexes: columnIndexes, values: row}))
		extendedRows = append(extendedRows, extendedRow)
	}
	return Table{header: append(table.Header(), column), rows: extendedRows}
}

// SortStable returns a table whose rows are ordered by compare, keeping the original order of equal rows.
func (table Table) SortStable(compare func(left Record, right Record) int) Table {
	columnIndexes := table.columnIndexes()
	sortedRows := table.Rows()
	slices.SortStableFunc(sortedRows, func(left []string, right []string) int {
		return compare(Record{columnIndexes: columnIndexes, values: left}, Record{columnIndexes: columnIndexes, values: right})
	})
	return Table{header: table.Header(), rows: sortedRows}
}

// Head returns a table holding at most the first limit rows.
func (table Table) Head(limit int) Table {
	rows := table.Rows()
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return Table{header: table.Header(), rows: rows}
}

// Validate checks the header is usable and every row matches its width.
func (table Table) Validate() error {
	if len(table.header) == 0 {
		return ErrEmptyHeader
	}
	for rowIndex, row := range table.rows {
		if len(row) != len(table.header) {
			return fmt.Errorf(rowWidthMismatchTemplateConstant, rowIndex, len(row), len(table.header))
		}
	}
	return nil
}

func (table Table) columnIndexes() map[string]int {
	columnIndexes := make(map[string]int, len(table.header))
	for columnIndex, column := range table.header {
		if _, seen := columnIndexes[column]; !seen {
			columnIndexes[column] = columnIndex
		}
	}
	return columnIndexes
}

// Get returns the value of column, or an empty string when the column is absent.
func (record Record) Get(column string) string {
	columnIndex, present := record.columnIndexes[column]
	if !present || columnIndex >= len(record.values) {
		return ""
	}
	return record.values[columnIndex]
}

// Has reports whether column is present.
func (record Record) Has(column string) bool {
	_, present := record.columnIndexes[column]
	return present
}

// Trimmed returns the whitespace-trimmed value of column.
func (record Record) Trimmed(column string) string {
	return strings.TrimSpace(record.Get(column))
}

func fitRow(row []string, width int) []string {
	fitted := make([]string, width)
	copy(fitted, row)
	return fitted
}
