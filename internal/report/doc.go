// Package report renders ranked charts and a multi-section workbook document
// from one run's CSV outputs, then hands the document to an optional
// finalization command.
package report
