package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	chartWidthConstant                   = 1024
	chartHeightConstant                  = 512
	chartBarWidthConstant                = 60
	chartTopPaddingConstant              = 40
	chartHeadroomConstant                = 1.1
	chartLabelLimitConstant              = 18
	chartLabelEllipsisConstant           = "..."
	chartDirectoryPermissionsConstant    = 0o755
	insufficientChartDataMessageConstant = "not enough data to chart"
	createChartTemplateConstant          = "unable to create chart %s: %w"
	renderChartTemplateConstant          = "unable to render chart %s: %w"
)

// ErrInsufficientChartData indicates a chart has no positive values to draw.
var ErrInsufficientChartData = errors.New(insufficientChartDataMessageConstant)

// RenderBarChart draws values as a PNG bar chart at filePath.
func RenderBarChart(filePath string, title string, values []RankedValue) error {
	maximum := 0.0
	bars := make([]chart.Value, 0, len(values))
	for _, value := range values {
		if value.Value > maximum {
			maximum = value.Value
		}
		bars = append(bars, chart.Value{Label: shortLabel(value.Label), Value: value.Value})
	}
	if maximum <= 0 {
		return ErrInsufficientChartData
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: chartTopPaddingConstant}},
		Width:      chartWidthConstant,
		Height:     chartHeightConstant,
		BarWidth:   chartBarWidthConstant,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maximum * chartHeadroomConstant}},
		Bars:       bars,
	}

	if directoryError := os.MkdirAll(filepath.Dir(filePath), chartDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(createChartTemplateConstant, filePath, directoryError)
	}
	chartFile, createError := os.Create(filePath)
	if createError != nil {
		return fmt.Errorf(createChartTemplateConstant, filePath, createError)
	}
	renderError := graph.Render(chart.PNG, chartFile)
	closeError := chartFile.Close()
	if renderError != nil {
		return fmt.Errorf(renderChartTemplateConstant, filePath, renderError)
	}
	if closeError != nil {
		return fmt.Errorf(renderChartTemplateConstant, filePath, closeError)
	}
	return nil
}

func shortLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= chartLabelLimitConstant {
		return label
	}
	return string(runes[:chartLabelLimitConstant]) + chartLabelEllipsisConstant
}
