package report

import (
	"errors"
	"fmt"
	_ "image/png"

	"github.com/xuri/excelize/v2"

	"github.com/temirov/portalaudit/internal/tabular"
)

// ContentsSheetName is the first sheet of every document.
const ContentsSheetName = "Contents"

// ChartsSheetName is the sheet holding the chart images.
const ChartsSheetName = "Charts"

const (
	defaultSheetNameConstant       = "Sheet1"
	contentsTitleConstant          = "Portal Audit Report"
	contentsSectionHeaderConstant  = "Section"
	contentsRowsHeaderConstant     = "Rows"
	contentsChartsTitleConstant    = "Charts"
	sheetLocationTemplateConstant  = "'%s'!A1"
	hyperlinkLocationTypeConstant  = "Location"
	sectionColumnWidthConstant     = 28
	chartRowSpanConstant           = 28
	chartScaleConstant             = 0.75
	firstColumnConstant            = "A"
	lastContentsColumnConstant     = "B"
	createSheetTemplateConstant    = "unable to create sheet %s: %w"
	writeCellTemplateConstant      = "unable to write sheet %s: %w"
	placeChartTemplateConstant     = "unable to place chart %s: %w"
	saveDocumentTemplateConstant   = "unable to save document %s: %w"
	duplicateSheetTemplateConstant = "%q: %w"
	duplicateSheetMessageConstant  = "duplicate section sheet"
	sheetNameLimitTemplateConstant = "sheet name %q exceeds %d characters"
	maximumSheetNameLengthConstant = 31
	boldHeaderStyleFailureConstant = "unable to create header style: %w"
)

// ErrDuplicateSheet indicates two sections share a sheet name.
var ErrDuplicateSheet = errors.New(duplicateSheetMessageConstant)

// Section is one titled table of the document.
type Section struct {
	Title     string
	SheetName string
	Table     tabular.Table
}

// ChartImage is one rendered chart embedded in the document.
type ChartImage struct {
	Title string
	Path  string
}

// WriteDocument saves a workbook with a contents sheet linking every section, the sections in order, and a charts sheet.
func WriteDocument(documentPath string, sections []Section, charts []ChartImage) error {
	if validationError := validateSheetNames(sections); validationError != nil {
		return validationError
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	if renameError := workbook.SetSheetName(defaultSheetNameConstant, ContentsSheetName); renameError != nil {
		return fmt.Errorf(createSheetTemplateConstant, ContentsSheetName, renameError)
	}
	headerStyle, styleError := workbook.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if styleError != nil {
		return fmt.Errorf(boldHeaderStyleFailureConstant, styleError)
	}

	contentsRows := [][]interface{}{{contentsTitleConstant}, {contentsSectionHeaderConstant, contentsRowsHeaderConstant}}
	for _, section := range sections {
		contentsRows = append(contentsRows, []interface{}{section.Title, section.Table.Len()})
	}
	contentsRows = append(contentsRows, []interface{}{contentsChartsTitleConstant, len(charts)})
	if writeError := writeRows(workbook, ContentsSheetName, contentsRows); writeError != nil {
		return writeError
	}
	if styleError := workbook.SetCellStyle(ContentsSheetName, firstColumnConstant+"1", lastContentsColumnConstant+"2", headerStyle); styleError != nil {
		return fmt.Errorf(writeCellTemplateConstant, ContentsSheetName, styleError)
	}
	if widthError := workbook.SetColWidth(ContentsSheetName, firstColumnConstant, lastContentsColumnConstant, sectionColumnWidthConstant); widthError != nil {
		return fmt.Errorf(writeCellTemplateConstant, ContentsSheetName, widthError)
	}

	linkedSheets := make([]string, 0, len(sections)+1)
	for _, section := range sections {
		if sectionError := writeSection(workbook, section, headerStyle); sectionError != nil {
			return sectionError
		}
		linkedSheets = append(linkedSheets, section.SheetName)
	}
	if chartsError := writeCharts(workbook, charts); chartsError != nil {
		return chartsError
	}
	linkedSheets = append(linkedSheets, ChartsSheetName)

	for linkIndex, sheetName := range linkedSheets {
		cell, _ := excelize.CoordinatesToCellName(1, linkIndex+3)
		if linkError := workbook.SetCellHyperLink(ContentsSheetName, cell, fmt.Sprintf(sheetLocationTemplateConstant, sheetName), hyperlinkLocationTypeConstant); linkError != nil {
			return fmt.Errorf(writeCellTemplateConstant, ContentsSheetName, linkError)
		}
	}

	workbook.SetActiveSheet(0)
	if saveError := workbook.SaveAs(documentPath); saveError != nil {
		return fmt.Errorf(saveDocumentTemplateConstant, documentPath, saveError)
	}
	return nil
}

func writeSection(workbook *excelize.File, section Section, headerStyle int) error {
	if _, sheetError := workbook.NewSheet(section.SheetName); sheetError != nil {
		return fmt.Errorf(createSheetTemplateConstant, section.SheetName, sheetError)
	}
	header := section.Table.Header()
	rows := [][]interface{}{{section.Title}, toCells(header)}
	for _, row := range section.Table.Rows() {
		rows = append(rows, toCells(row))
	}
	if writeError := writeRows(workbook, section.SheetName, rows); writeError != nil {
		return writeError
	}
	if len(header) == 0 {
		return nil
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(header), 2)
	if styleError := workbook.SetCellStyle(section.SheetName, "A1", lastHeaderCell, headerStyle); styleError != nil {
		return fmt.Errorf(writeCellTemplateConstant, section.SheetName, styleError)
	}
	return nil
}

func writeCharts(workbook *excelize.File, charts []ChartImage) error {
	if _, sheetError := workbook.NewSheet(ChartsSheetName); sheetError != nil {
		return fmt.Errorf(createSheetTemplateConstant, ChartsSheetName, sheetError)
	}
	for chartIndex, chartImage := range charts {
		titleRow := chartIndex*chartRowSpanConstant + 1
		titleCell, _ := excelize.CoordinatesToCellName(1, titleRow)
		if titleError := workbook.SetCellValue(ChartsSheetName, titleCell, chartImage.Title); titleError != nil {
			return fmt.Errorf(writeCellTemplateConstant, ChartsSheetName, titleError)
		}
		pictureCell, _ := excelize.CoordinatesToCellName(1, titleRow+1)
		pictureOptions := &excelize.GraphicOptions{ScaleX: chartScaleConstant, ScaleY: chartScaleConstant, AltText: chartImage.Title}
		if pictureError := workbook.AddPicture(ChartsSheetName, pictureCell, chartImage.Path, pictureOptions); pictureError != nil {
			return fmt.Errorf(placeChartTemplateConstant, chartImage.Path, pictureError)
		}
	}
	return nil
}

func writeRows(workbook *excelize.File, sheetName string, rows [][]interface{}) error {
	for rowIndex := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIndex+1)
		if writeError := workbook.SetSheetRow(sheetName, cell, &rows[rowIndex]); writeError != nil {
			return fmt.Errorf(writeCellTemplateConstant, sheetName, writeError)
		}
	}
	return nil
}

func validateSheetNames(sections []Section) error {
	seen := map[string]struct{}{ContentsSheetName: {}, ChartsSheetName: {}}
	for _, section := range sections {
		if len([]rune(section.SheetName)) > maximumSheetNameLengthConstant {
			return fmt.Errorf(sheetNameLimitTemplateConstant, section.SheetName, maximumSheetNameLengthConstant)
		}
		if _, duplicate := seen[section.SheetName]; duplicate {
			return fmt.Errorf(duplicateSheetTemplateConstant, section.SheetName, ErrDuplicateSheet)
		}
		seen[section.SheetName] = struct{}{}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, 0, len(values))
	for _, value := range values {
		cells = append(cells, value)
	}
	return cells
}
