package report

import "strings"

const (
	defaultDocumentFileNameConstant = "portal_audit_report.xlsx"
	defaultTopCountConstant         = 5
	defaultListingCountConstant     = 10
	// DocumentPlaceholder is replaced by the document path in finalizer arguments.
	DocumentPlaceholder = "{document}"
)

var defaultChartItemTypes = []string{"Web Map", "Web Mapping Application"}

// FinalizerConfiguration names the editor automation command run on the finished document.
type FinalizerConfiguration struct {
	Executable string   `mapstructure:"executable"`
	Arguments  []string `mapstructure:"arguments"`
}

// Configuration controls the composed charts and document.
type Configuration struct {
	DocumentFileName string                 `mapstructure:"document_file_name"`
	ChartItemTypes   []string               `mapstructure:"chart_item_types" validate:"omitempty,max=2"`
	TopCount         int                    `mapstructure:"top_count" validate:"gte=0"`
	ListingCount     int                    `mapstructure:"listing_count" validate:"gte=0"`
	Finalizer        FinalizerConfiguration `mapstructure:"finalizer"`
}

// Sanitize fills unset values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	if len(strings.TrimSpace(configuration.DocumentFileName)) == 0 {
		configuration.DocumentFileName = defaultDocumentFileNameConstant
	}
	if len(configuration.ChartItemTypes) == 0 {
		configuration.ChartItemTypes = append([]string{}, defaultChartItemTypes...)
	}
	if configuration.TopCount <= 0 {
		configuration.TopCount = defaultTopCountConstant
	}
	if configuration.ListingCount <= 0 {
		configuration.ListingCount = defaultListingCountConstant
	}
	return configuration
}
