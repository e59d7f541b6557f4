package usage

// Workbook sheet names and the zero-based row holding each sheet's header.
const (
	StatisticsByUserSheet     = "Statistics By User"
	StatisticsByResourceSheet = "Statistics By Resource"
	AllRequestsSheet          = "Elapsed Time - All Resources"
	ThroughputSheet           = "Throughput per Minute"

	StatisticsByUserHeaderRow     = 4
	StatisticsByResourceHeaderRow = 4
	AllRequestsHeaderRow          = 3
	ThroughputHeaderRow           = 3
)

// Output file names.
const (
	ThroughputFileName           = "throughput.csv"
	StatisticsByUserFileName     = "stats_by_user.csv"
	StatisticsByResourceFileName = "stats_by_resource.csv"
	AllRequestsFileName          = "all_requests.csv"
	ItemMetricsFileName          = "item_metrics.csv"
)

// Source column names read from the workbook.
const (
	sourceDateTimeColumn       = "Date Time (Local Time)"
	sourceResourceColumn       = "Resource"
	sourceUserColumn           = "User"
	sourceCapabilityColumn     = "Capability"
	sourceCountPctColumn       = "Count Pct"
	sourceSumPctColumn         = "Sum Pct"
	sourceDateTimeDayColumn    = "Date Time (Day)"
	sourceDateTimeHourColumn   = "Date Time (Hour)"
	sourceDateTimeMinuteColumn = "Date Time (Minute)"
)

// Canonical column names written to the CSV outputs.
const (
	DateTimeColumn       = "Date_Time"
	DateColumn           = "date"
	ResourceColumn       = "Resource"
	UserColumn           = "User"
	LastAccessedColumn   = "LAST_ACCESSED"
	RequestsMinuteColumn = "Requests_Minute"
	CountColumn          = "Count"
)

// Values excluded from the statistics sheets.
const (
	geoprocessingCapabilityMarker = "GPServer"
	placeholderUserValue          = "-"
	allResourcesAggregateValue    = "All Resources"
	columnDescriptionBannerValue  = "Hover over each column header for description"
	mapServiceItemType            = "Map Service"
	featureServiceItemType        = "Feature Service"
	mapServiceResourceSuffix      = ".MapServer"
	featureServiceResourceSuffix  = ".FeatureServer"
	resourceFolderSeparator       = "/"
)

var throughputColumnRenames = map[string]string{
	sourceDateTimeColumn: DateTimeColumn,
	"Epoch Time":         "Epoch_Time",
	"Requests/Minute":    RequestsMinuteColumn,
	"Requests/Seccond":   "Requests_Seccond",
	"Avg Response Time":  "Avg_Response_Time",
	"Min Response Time":  "Min_Response_Time",
	"P95 Response Time":  "P95_Response_Time",
	"P99 Response Time":  "P99_Response_Time",
	"Max Response Time":  "Max_Response_Time",
	"HTTP 200":           "HTTP_200",
	"HTTP 300":           "HTTP_300",
	"HTTP 400":           "HTTP_400",
	"HTTP 500":           "HTTP_500",
}

var statisticsColumnRenames = map[string]string{
	sourceCountPctColumn: "Count_Pct",
	sourceSumPctColumn:   "Sum_Pct",
}

var allRequestsSourceColumns = []string{
	sourceDateTimeColumn,
	"Epoch Time",
	sourceDateTimeDayColumn,
	sourceDateTimeHourColumn,
	sourceDateTimeMinuteColumn,
	"Domain",
	sourceUserColumn,
	"Server Machine",
	"Content Length (Bytes)",
	"HTTP Code",
	"Elapsed Time (>= 0 sec)",
	"Elapsed Time (Floor)",
	sourceResourceColumn,
	"ArcGIS Method",
	"ArcGIS Code",
	"ArcGIS Type",
}

var allRequestsColumnRenames = map[string]string{
	sourceDateTimeColumn:       DateTimeColumn,
	"Epoch Time":               "Epoch_Time",
	sourceDateTimeDayColumn:    "Date_Time_Day",
	sourceDateTimeHourColumn:   "Date_Time_Hour",
	sourceDateTimeMinuteColumn: "Date_Time_Minute",
	"Domain":                   "Domain",
	sourceUserColumn:           UserColumn,
	"Server Machine":           "Server_Machine",
	"Content Length (Bytes)":   "Content_Length_Bits",
	"HTTP Code":                "HTTP_Code",
	"Elapsed Time (>= 0 sec)":  "Elapsed_Time",
	"Elapsed Time (Floor)":     "Elapsed_Time_Floor",
	sourceResourceColumn:       ResourceColumn,
	"ArcGIS Method":            "ArcGIS_Method",
	"ArcGIS Code":              "ArcGIS_Code",
	"ArcGIS Type":              "ArcGIS_Type",
}

var timestampSourceColumns = map[string]struct{}{
	sourceDateTimeColumn:       {},
	sourceDateTimeDayColumn:    {},
	sourceDateTimeHourColumn:   {},
	sourceDateTimeMinuteColumn: {},
}
