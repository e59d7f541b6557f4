package usage

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/tabular"
)

const missingItemsColumnTemplateConstant = "items table lacks column %q"

// ItemMetricColumns lists the item_metrics.csv header in order.
var ItemMetricColumns = append(append([]string{}, inventory.ItemColumns...), ResourceColumn, DateTimeColumn, LastAccessedColumn)

// ResourceKey synthesizes the usage-log resource key of a map or feature service item.
func ResourceKey(itemType string, title string) (string, bool) {
	switch itemType {
	case mapServiceItemType:
		return title + mapServiceResourceSuffix, true
	case featureServiceItemType:
		return title + featureServiceResourceSuffix, true
	default:
		return "", false
	}
}

// NormalizeResource drops the folder segment that precedes the first slash of a usage-log resource.
func NormalizeResource(resource string) string {
	if _, remainder, hasFolder := strings.Cut(resource, resourceFolderSeparator); hasFolder {
		return remainder
	}
	return resource
}

// IsGeoprocessingResource reports whether a resource or capability refers to a geoprocessing service.
func IsGeoprocessingResource(value string) bool {
	return strings.Contains(value, geoprocessingCapabilityMarker)
}

type lastAccess struct {
	resource string
	latest   time.Time
}

// LastAccessByResource returns the latest request timestamp per normalized resource key,
// excluding geoprocessing resources. Rows with unreadable timestamps are ignored.
func LastAccessByResource(allRequests tabular.Table) map[string]time.Time {
	latestByResource := map[string]time.Time{}
	for _, record := range allRequests.Records() {
		resource := record.Get(ResourceColumn)
		if len(resource) == 0 || IsGeoprocessingResource(resource) {
			continue
		}
		requestTime, parsed := ParseTimestamp(record.Get(DateTimeColumn))
		if !parsed {
			continue
		}
		normalizedResource := NormalizeResource(resource)
		if current, seen := latestByResource[normalizedResource]; !seen || requestTime.After(current) {
			latestByResource[normalizedResource] = requestTime
		}
	}
	return latestByResource
}

// BuildItemMetrics outer-joins map and feature service items against the last access time of
// their resource keys. Unmatched items keep empty access fields; unmatched resources keep empty
// item fields. Rows are ordered by resource key.
func BuildItemMetrics(items tabular.Table, allRequests tabular.Table) (tabular.Table, error) {
	for _, requiredColumn := range []string{inventory.ItemColumnType, inventory.ItemColumnTitle} {
		if !items.HasColumn(requiredColumn) {
			return tabular.Table{}, fmt.Errorf(missingItemsColumnTemplateConstant, requiredColumn)
		}
	}

	latestByResource := LastAccessByResource(allRequests)
	joinedRows := [][]string{}
	matchedResources := map[string]struct{}{}

	for _, record := range items.Records() {
		resourceKey, eligible := ResourceKey(record.Get(inventory.ItemColumnType), record.Get(inventory.ItemColumnTitle))
		if !eligible {
			continue
		}
		row := make([]string, 0, len(ItemMetricColumns))
		for _, column := range inventory.ItemColumns {
			row = append(row, record.Get(column))
		}
		row = append(row, resourceKey)
		if latest, accessed := latestByResource[resourceKey]; accessed {
			matchedResources[resourceKey] = struct{}{}
			row = append(row, latest.Format(TimestampLayout), latest.Format(DayLayout))
		} else {
			row = append(row, "", "")
		}
		joinedRows = append(joinedRows, row)
	}

	unmatched := []lastAccess{}
	for resource, latest := range latestByResource {
		if _, matched := matchedResources[resource]; matched {
			continue
		}
		unmatched = append(unmatched, lastAccess{resource: resource, latest: latest})
	}
	for _, access := range unmatched {
		row := make([]string, len(inventory.ItemColumns), len(ItemMetricColumns))
		row = append(row, access.resource, access.latest.Format(TimestampLayout), access.latest.Format(DayLayout))
		joinedRows = append(joinedRows, row)
	}

	resourceIndex := slices.Index(ItemMetricColumns, ResourceColumn)
	sort.SliceStable(joinedRows, func(leftIndex int, rightIndex int) bool {
		return joinedRows[leftIndex][resourceIndex] < joinedRows[rightIndex][resourceIndex]
	})
	return tabular.NewTable(ItemMetricColumns, joinedRows), nil
}
