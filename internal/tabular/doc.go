// Package tabular holds the header-plus-rows tables exchanged between pipeline
// stages and their CSV file representation.
package tabular
