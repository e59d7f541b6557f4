package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	openFileErrorTemplateConstant   = "unable to open %s: %w"
	createFileErrorTemplateConstant = "unable to create %s: %w"
	readFileErrorTemplateConstant   = "unable to read %s: %w"
	writeFileErrorTemplateConstant  = "unable to write %s: %w"
	emptyFileTemplateConstant       = "%s has no header row"
	directoryPermissionsConstant    = 0o755
	byteOrderMarkConstant           = "\ufeff"
)

// ReadCSV decodes a table whose first record is the header.
func ReadCSV(reader io.Reader) (Table, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	records, readError := csvReader.ReadAll()
	if readError != nil {
		return Table{}, readError
	}
	if len(records) == 0 {
		return Table{}, ErrEmptyHeader
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMarkConstant)
	}
	return NewTable(header, records[1:]), nil
}

// WriteCSV encodes the table with its header as the first record.
func WriteCSV(writer io.Writer, table Table) error {
	csvWriter := csv.NewWriter(writer)
	if writeError := csvWriter.Write(table.header); writeError != nil {
		return writeError
	}
	if writeError := csvWriter.WriteAll(table.rows); writeError != nil {
		return writeError
	}
	return csvWriter.Error()
}

// ReadFile reads a CSV table from filePath.
func ReadFile(filePath string) (Table, error) {
	file, openError := os.Open(filePath)
	if openError != nil {
		return Table{}, fmt.Errorf(openFileErrorTemplateConstant, filePath, openError)
	}
	defer file.Close()

	table, readError := ReadCSV(file)
	if errors.Is(readError, ErrEmptyHeader) {
		return Table{}, fmt.Errorf(emptyFileTemplateConstant, filePath)
	}
	if readError != nil {
		return Table{}, fmt.Errorf(readFileErrorTemplateConstant, filePath, readError)
	}
	return table, nil
}

// WriteFile writes table to filePath, creating parent directories when needed.
func WriteFile(filePath string, table Table) error {
	if directoryError := os.MkdirAll(filepath.Dir(filePath), directoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, filePath, directoryError)
	}
	file, createError := os.Create(filePath)
	if createError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, filePath, createError)
	}
	writeError := WriteCSV(file, table)
	closeError := file.Close()
	if writeError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, filePath, writeError)
	}
	if closeError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, filePath, closeError)
	}
	return nil
}
