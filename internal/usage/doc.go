// Package usage turns the vendor usage-log workbook into normalized CSV tables.
//
// LogReportGenerator runs the external log report generator through an
// injected command executor. Reconciler reads the four workbook sheets with
// excelize, applies the fixed rename tables and filters, and derives the
// item_metrics table by outer-joining the inventory against the latest request
// timestamp per resource key.
package usage
