package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/execshell"
	"github.com/temirov/portalaudit/internal/utils"
)

// Section sheet names in document order.
const (
	UsersSheetName            = "Users"
	GroupsSheetName           = "Groups"
	GroupItemsSheetName       = "Group Items"
	RecentItemsSheetName      = "Recent Items"
	UntaggedItemsSheetName    = "Untagged Items"
	InactiveItemsSheetName    = "Inactive Items"
	PopularResourcesSheetName = "Popular Resources"
	ActiveUsersSheetName      = "Active Users"
)

const (
	topViewsChartTemplateConstant       = "top_views_%s.png"
	topViewsTitleTemplateConstant       = "Top %d %s items by views"
	topGroupsChartFileConstant          = "top_groups_by_content.png"
	topGroupsTitleTemplateConstant      = "Top %d groups by content"
	requestsPerDayChartFileConstant     = "requests_per_day.png"
	requestsPerDayTitleTemplateConstant = "Requests per day, %s to %s"
	topResourcesChartFileConstant       = "top_resources.png"
	topResourcesTitleTemplateConstant   = "Top %d resources by requests, last %d days"
	activeUsersChartFileConstant        = "active_users.png"
	activeUsersTitleTemplateConstant    = "Most active users, last %d days"
	usersSectionTitleConstant           = "Users"
	groupsSectionTitleConstant          = "Groups"
	groupItemsSectionTitleConstant      = "Items shared with each group"
	recentItemsTitleTemplateConstant    = "Items created in the last %d days"
	untaggedItemsSectionTitleConstant   = "Items without tags"
	inactiveItemsTitleTemplateConstant  = "Services not accessed in the last %d days"
	popularResourcesTitleConstant       = "Most requested resources"
	activeUsersSectionTitleConstant     = "Most active users"
	slugSeparatorConstant               = "_"
	renderChartsFailedTemplateConstant  = "chart %s failed: %w"
	loadInputsFailedTemplateConstant    = "report inputs unavailable: %w"
	writeDocumentFailedTemplateConstant = "document not written: %w"
	directoriesMissingMessageConstant   = "report directories not configured"
	composingMessageConstant            = "composing report"
	chartSkippedMessageConstant         = "chart skipped for lack of data"
	chartRenderedMessageConstant        = "chart rendered"
	documentWrittenMessageConstant      = "report document written"
	documentFinalizedMessageConstant    = "report document finalized"
	finalizerSkippedMessageConstant     = "report finalizer not configured"
	logFieldChartConstant               = "chart"
	logFieldDocumentConstant            = "document"
	logFieldSectionsConstant            = "sections"
	logFieldWindowStartConstant         = "window_start"
)

// ErrReportDirectoriesNotConfigured indicates Compose was called without input or output directories.
var ErrReportDirectoriesNotConfigured = errors.New(directoriesMissingMessageConstant)

// Paths locates the composer inputs and outputs.
type Paths struct {
	CSVDirectory      string
	ChartsDirectory   string
	DocumentDirectory string
}

// Result summarizes one composition.
type Result struct {
	Window        Window
	DocumentPath  string
	Charts        []string
	SkippedCharts []string
	Finalized     bool
}

type chartSpecification struct {
	fileName string
	title    string
	values   []RankedValue
}

// Composer renders charts and the report document.
type Composer struct {
	executor      execshell.CommandExecutor
	clock         utils.Clock
	logger        *zap.Logger
	configuration Configuration
}

// NewComposer constructs a Composer. The executor is only required when a finalizer is configured.
func NewComposer(executor execshell.CommandExecutor, clock utils.Clock, logger *zap.Logger, configuration Configuration) (*Composer, error) {
	configuration = configuration.Sanitize()
	if configuration.Finalizer.Enabled() && executor == nil {
		return nil, ErrFinalizerExecutorNotConfigured
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{executor: executor, clock: clock, logger: logger, configuration: configuration}, nil
}

// Compose renders the charts, writes the document, and finalizes it when configured.
func (composer *Composer) Compose(executionContext context.Context, paths Paths) (Result, error) {
	if len(paths.CSVDirectory) == 0 || len(paths.ChartsDirectory) == 0 || len(paths.DocumentDirectory) == 0 {
		return Result{}, ErrReportDirectoriesNotConfigured
	}
	dataset, loadError := LoadDataset(paths.CSVDirectory)
	if loadError != nil {
		return Result{}, fmt.Errorf(loadInputsFailedTemplateConstant, loadError)
	}

	window := NewWindow(composer.clock.Now())
	result := Result{Window: window}
	composer.logger.Info(composingMessageConstant, zap.Time(logFieldWindowStartConstant, window.FirstDay))

	chartImages := []ChartImage{}
	for _, specification := range composer.chartSpecifications(dataset, window) {
		chartPath := filepath.Join(paths.ChartsDirectory, specification.fileName)
		renderError := RenderBarChart(chartPath, specification.title, specification.values)
		if errors.Is(renderError, ErrInsufficientChartData) {
			result.SkippedCharts = append(result.SkippedCharts, specification.fileName)
			composer.logger.Info(chartSkippedMessageConstant, zap.String(logFieldChartConstant, specification.fileName))
			continue
		}
		if renderError != nil {
			return result, fmt.Errorf(renderChartsFailedTemplateConstant, specification.fileName, renderError)
		}
		result.Charts = append(result.Charts, chartPath)
		chartImages = append(chartImages, ChartImage{Title: specification.title, Path: chartPath})
		composer.logger.Debug(chartRenderedMessageConstant, zap.String(logFieldChartConstant, chartPath))
	}

	sections := composer.sections(dataset, window)
	documentPath := filepath.Join(paths.DocumentDirectory, composer.configuration.DocumentFileName)
	if writeError := WriteDocument(documentPath, sections, chartImages); writeError != nil {
		return result, fmt.Errorf(writeDocumentFailedTemplateConstant, writeError)
	}
	result.DocumentPath = documentPath
	composer.logger.Info(documentWrittenMessageConstant, zap.String(logFieldDocumentConstant, documentPath), zap.Int(logFieldSectionsConstant, len(sections)))

	if !composer.configuration.Finalizer.Enabled() {
		composer.logger.Debug(finalizerSkippedMessageConstant)
		return result, nil
	}
	if finalizeError := finalizeDocument(executionContext, composer.executor, composer.configuration.Finalizer, documentPath); finalizeError != nil {
		return result, finalizeError
	}
	result.Finalized = true
	composer.logger.Info(documentFinalizedMessageConstant, zap.String(logFieldDocumentConstant, documentPath))
	return result, nil
}

func (composer *Composer) chartSpecifications(dataset Dataset, window Window) []chartSpecification {
	topCount := composer.configuration.TopCount
	listingCount := composer.configuration.ListingCount
	specifications := []chartSpecification{}
	for _, itemType := range composer.configuration.ChartItemTypes {
		specifications = append(specifications, chartSpecification{
			fileName: fmt.Sprintf(topViewsChartTemplateConstant, slug(itemType)),
			title:    fmt.Sprintf(topViewsTitleTemplateConstant, topCount, itemType),
			values:   TopItemsByViews(dataset.Items, itemType, topCount),
		})
	}
	return append(specifications,
		chartSpecification{
			fileName: topGroupsChartFileConstant,
			title:    fmt.Sprintf(topGroupsTitleTemplateConstant, listingCount),
			values:   TopGroupsByContent(dataset.Groups, listingCount),
		},
		chartSpecification{
			fileName: requestsPerDayChartFileConstant,
			title:    fmt.Sprintf(requestsPerDayTitleTemplateConstant, window.FirstDay.Format(dayLabelLayoutConstant), window.LastDay.Format(dayLabelLayoutConstant)),
			values:   RequestsPerDay(dataset.AllRequests, window),
		},
		chartSpecification{
			fileName: topResourcesChartFileConstant,
			title:    fmt.Sprintf(topResourcesTitleTemplateConstant, topCount, WindowDays),
			values:   TopResourcesInWindow(dataset.AllRequests, window, topCount),
		},
		chartSpecification{
			fileName: activeUsersChartFileConstant,
			title:    fmt.Sprintf(activeUsersTitleTemplateConstant, WindowDays),
			values:   ActiveUsersInWindow(dataset.AllRequests, window, listingCount),
		},
	)
}

func (composer *Composer) sections(dataset Dataset, window Window) []Section {
	listingCount := composer.configuration.ListingCount
	return []Section{
		{Title: usersSectionTitleConstant, SheetName: UsersSheetName, Table: dataset.Users},
		{Title: groupsSectionTitleConstant, SheetName: GroupsSheetName, Table: dataset.Groups},
		{Title: groupItemsSectionTitleConstant, SheetName: GroupItemsSheetName, Table: GroupItemListing(dataset.Groups, dataset.Items)},
		{Title: fmt.Sprintf(recentItemsTitleTemplateConstant, WindowDays), SheetName: RecentItemsSheetName, Table: RecentItems(dataset.Items, window)},
		{Title: untaggedItemsSectionTitleConstant, SheetName: UntaggedItemsSheetName, Table: UntaggedItems(dataset.Items)},
		{Title: fmt.Sprintf(inactiveItemsTitleTemplateConstant, WindowDays), SheetName: InactiveItemsSheetName, Table: InactiveItems(dataset.ItemMetrics, window)},
		{Title: popularResourcesTitleConstant, SheetName: PopularResourcesSheetName, Table: PopularResources(dataset.StatisticsByResource, listingCount)},
		{Title: activeUsersSectionTitleConstant, SheetName: ActiveUsersSheetName, Table: ActiveUsers(dataset.StatisticsByUser, listingCount)},
	}
}

func slug(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), slugSeparatorConstant))
}
