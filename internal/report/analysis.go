package report

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/tabular"
	"github.com/temirov/portalaudit/internal/usage"
)

// GroupColumn names the group of each row of the per-group item listing.
const GroupColumn = "GROUP"

const (
	dayLabelLayoutConstant  = "01-02"
	placeholderUserConstant = "-"
)

var (
	itemListingColumns      = []string{inventory.ItemColumnTitle, inventory.ItemColumnOwner, inventory.ItemColumnType}
	recentItemColumns       = []string{inventory.ItemColumnTitle, inventory.ItemColumnOwner, inventory.ItemColumnType, inventory.ItemColumnCreated}
	inactiveItemColumns     = []string{inventory.ItemColumnTitle, inventory.ItemColumnOwner, inventory.ItemColumnType, usage.ResourceColumn, usage.LastAccessedColumn}
	groupItemListingColumns = append([]string{GroupColumn}, itemListingColumns...)
)

// RankedValue is one labelled bar of a ranking chart.
type RankedValue struct {
	Label string
	Value float64
}

// TopItemsByViews ranks items of itemType by view count.
func TopItemsByViews(items tabular.Table, itemType string, limit int) []RankedValue {
	ranked := []RankedValue{}
	for _, record := range items.Records() {
		if record.Trimmed(inventory.ItemColumnType) != itemType {
			continue
		}
		ranked = append(ranked, RankedValue{Label: record.Get(inventory.ItemColumnTitle), Value: numericValue(record.Get(inventory.ItemColumnViews))})
	}
	return topRanked(ranked, limit)
}

// TopGroupsByContent ranks groups by content item count.
func TopGroupsByContent(groups tabular.Table, limit int) []RankedValue {
	ranked := []RankedValue{}
	for _, record := range groups.Records() {
		ranked = append(ranked, RankedValue{Label: record.Get(inventory.GroupColumnTitle), Value: numericValue(record.Get(inventory.GroupColumnItems))})
	}
	return topRanked(ranked, limit)
}

// RequestsPerDay counts requests for every day of the window, including days without requests.
func RequestsPerDay(requests tabular.Table, window Window) []RankedValue {
	counts := map[time.Time]float64{}
	for _, record := range requests.Records() {
		requestTime, parsed := usage.ParseTimestamp(record.Get(usage.DateTimeColumn))
		if !parsed || !window.Contains(requestTime) {
			continue
		}
		counts[calendarDay(requestTime)]++
	}
	perDay := []RankedValue{}
	for _, day := range window.Days() {
		perDay = append(perDay, RankedValue{Label: day.Format(dayLabelLayoutConstant), Value: counts[day]})
	}
	return perDay
}

// TopResourcesInWindow ranks resources by request count inside the window.
func TopResourcesInWindow(requests tabular.Table, window Window, limit int) []RankedValue {
	return countInWindow(requests, window, usage.ResourceColumn, limit)
}

// ActiveUsersInWindow ranks named users by request count inside the window.
func ActiveUsersInWindow(requests tabular.Table, window Window, limit int) []RankedValue {
	return countInWindow(requests, window, usage.UserColumn, limit)
}

// GroupItemListing lists, for every group in title order, the items shared with it.
func GroupItemListing(groups tabular.Table, items tabular.Table) tabular.Table {
	itemsByGroup := map[string][][]string{}
	for _, record := range items.Records() {
		for _, groupTitle := range inventory.ParseQuotedList(record.Get(inventory.ItemColumnSharedWithGroups)) {
			itemsByGroup[groupTitle] = append(itemsByGroup[groupTitle], []string{
				groupTitle,
				record.Get(inventory.ItemColumnTitle),
				record.Get(inventory.ItemColumnOwner),
				record.Get(inventory.ItemColumnType),
			})
		}
	}

	groupTitles := []string{}
	for _, record := range groups.Records() {
		groupTitles = append(groupTitles, record.Get(inventory.GroupColumnTitle))
	}
	slices.Sort(groupTitles)

	rows := [][]string{}
	for _, groupTitle := range slices.Compact(groupTitles) {
		rows = append(rows, itemsByGroup[groupTitle]...)
	}
	return tabular.NewTable(groupItemListingColumns, rows)
}

// RecentItems lists items created inside the window.
func RecentItems(items tabular.Table, window Window) tabular.Table {
	return items.Filter(func(record tabular.Record) bool {
		created, parseError := time.Parse(inventory.DateLayout, record.Trimmed(inventory.ItemColumnCreated))
		return parseError == nil && window.Contains(created)
	}).Project(recentItemColumns)
}

// UntaggedItems lists items without tags.
func UntaggedItems(items tabular.Table) tabular.Table {
	return items.Filter(func(record tabular.Record) bool {
		return len(inventory.ParseQuotedList(record.Get(inventory.ItemColumnTags))) == 0
	}).Project(itemListingColumns)
}

// InactiveItems lists inventoried services with no recorded access inside the window.
func InactiveItems(itemMetrics tabular.Table, window Window) tabular.Table {
	return itemMetrics.Filter(func(record tabular.Record) bool {
		if len(record.Trimmed(inventory.ItemColumnID)) == 0 {
			return false
		}
		lastAccessed, parsed := usage.ParseTimestamp(record.Get(usage.LastAccessedColumn))
		return !parsed || !window.Contains(lastAccessed)
	}).Project(inactiveItemColumns)
}

// PopularResources returns the statistics rows with the highest request counts.
func PopularResources(statisticsByResource tabular.Table, limit int) tabular.Table {
	return byCountDescending(statisticsByResource).Head(limit)
}

// ActiveUsers returns the statistics rows of the users with the highest request counts.
func ActiveUsers(statisticsByUser tabular.Table, limit int) tabular.Table {
	return byCountDescending(statisticsByUser).Head(limit)
}

func byCountDescending(table tabular.Table) tabular.Table {
	return table.SortStable(func(left tabular.Record, right tabular.Record) int {
		return cmp.Compare(numericValue(right.Get(usage.CountColumn)), numericValue(left.Get(usage.CountColumn)))
	})
}

func countInWindow(requests tabular.Table, window Window, column string, limit int) []RankedValue {
	counts := map[string]float64{}
	for _, record := range requests.Records() {
		label := record.Trimmed(column)
		if len(label) == 0 || label == placeholderUserConstant {
			continue
		}
		requestTime, parsed := usage.ParseTimestamp(record.Get(usage.DateTimeColumn))
		if !parsed || !window.Contains(requestTime) {
			continue
		}
		counts[label]++
	}
	ranked := make([]RankedValue, 0, len(counts))
	for label, count := range counts {
		ranked = append(ranked, RankedValue{Label: label, Value: count})
	}
	return topRanked(ranked, limit)
}

func topRanked(values []RankedValue, limit int) []RankedValue {
	ranked := slices.Clone(values)
	slices.SortStableFunc(ranked, func(left RankedValue, right RankedValue) int {
		if order := cmp.Compare(right.Value, left.Value); order != 0 {
			return order
		}
		return strings.Compare(left.Label, right.Label)
	})
	if limit >= 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func numericValue(rawValue string) float64 {
	parsedValue, parseError := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if parseError != nil {
		return 0
	}
	return parsedValue
}
