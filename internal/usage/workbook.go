package usage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/temirov/portalaudit/internal/tabular"
)

const (
	openWorkbookErrorTemplateConstant = "unable to open workbook %s: %w"
	readSheetErrorTemplateConstant    = "unable to read sheet %q: %w"
	missingHeaderTemplateConstant     = "sheet %q has %d rows, header expected at row %d"
	emptyHeaderTemplateConstant       = "sheet %q has an empty header row %d"
)

// ErrMalformedSheet indicates a sheet whose header is not where it is expected.
var ErrMalformedSheet = errors.New("malformed workbook sheet")

// Workbook holds the four usage sheets as tables with their original column names.
type Workbook struct {
	StatisticsByUser     tabular.Table
	StatisticsByResource tabular.Table
	AllRequests          tabular.Table
	Throughput           tabular.Table
}

type sheetSpecification struct {
	name      string
	headerRow int
	target    *tabular.Table
}

// ReadWorkbook loads the four usage sheets from the workbook at workbookPath.
func ReadWorkbook(workbookPath string) (Workbook, error) {
	workbookFile, openError := excelize.OpenFile(workbookPath)
	if openError != nil {
		return Workbook{}, fmt.Errorf(openWorkbookErrorTemplateConstant, workbookPath, openError)
	}
	defer workbookFile.Close()

	workbook := Workbook{}
	sheets := []sheetSpecification{
		{name: StatisticsByUserSheet, headerRow: StatisticsByUserHeaderRow, target: &workbook.StatisticsByUser},
		{name: StatisticsByResourceSheet, headerRow: StatisticsByResourceHeaderRow, target: &workbook.StatisticsByResource},
		{name: AllRequestsSheet, headerRow: AllRequestsHeaderRow, target: &workbook.AllRequests},
		{name: ThroughputSheet, headerRow: ThroughputHeaderRow, target: &workbook.Throughput},
	}
	for _, sheet := range sheets {
		table, sheetError := readSheet(workbookFile, sheet.name, sheet.headerRow)
		if sheetError != nil {
			return Workbook{}, sheetError
		}
		*sheet.target = table
	}
	return workbook, nil
}

func readSheet(workbookFile *excelize.File, sheetName string, headerRow int) (tabular.Table, error) {
	rows, rowsError := workbookFile.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if rowsError != nil {
		return tabular.Table{}, fmt.Errorf(readSheetErrorTemplateConstant, sheetName, rowsError)
	}
	if len(rows) <= headerRow {
		return tabular.Table{}, fmt.Errorf("%w: "+missingHeaderTemplateConstant, ErrMalformedSheet, sheetName, len(rows), headerRow+1)
	}

	header := make([]string, 0, len(rows[headerRow]))
	for _, cell := range rows[headerRow] {
		header = append(header, strings.TrimSpace(cell))
	}
	if len(header) == 0 || len(header[0]) == 0 {
		return tabular.Table{}, fmt.Errorf("%w: "+emptyHeaderTemplateConstant, ErrMalformedSheet, sheetName, headerRow+1)
	}

	timestampColumns := map[int]struct{}{}
	for columnIndex, column := range header {
		if _, isTimestamp := timestampSourceColumns[column]; isTimestamp {
			timestampColumns[columnIndex] = struct{}{}
		}
	}

	dataRows := make([][]string, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		normalizedRow := make([]string, len(row))
		for columnIndex, cell := range row {
			if _, isTimestamp := timestampColumns[columnIndex]; isTimestamp {
				normalizedRow[columnIndex] = normalizeTimestamp(cell)
				continue
			}
			normalizedRow[columnIndex] = cell
		}
		dataRows = append(dataRows, normalizedRow)
	}
	return tabular.NewTable(header, dataRows), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if len(strings.TrimSpace(cell)) > 0 {
			return false
		}
	}
	return true
}
