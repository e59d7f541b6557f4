package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/portalaudit/internal/tabular"
	"github.com/temirov/portalaudit/internal/usage"
)

func TestResourceKey(testInstance *testing.T) {
	testCases := []struct {
		name          string
		itemType      string
		title         string
		expectedKey   string
		expectedValid bool
	}{
		{name: "map_service", itemType: "Map Service", title: "Roads", expectedKey: "Roads.MapServer", expectedValid: true},
		{name: "feature_service", itemType: "Feature Service", title: "Parcels", expectedKey: "Parcels.FeatureServer", expectedValid: true},
		{name: "web_map", itemType: "Web Map", title: "Overview"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resourceKey, valid := usage.ResourceKey(testCase.itemType, testCase.title)
			require.Equal(testInstance, testCase.expectedValid, valid)
			require.Equal(testInstance, testCase.expectedKey, resourceKey)
		})
	}
}

func TestNormalizeResource(testInstance *testing.T) {
	require.Equal(testInstance, "Roads.MapServer", usage.NormalizeResource("System/Roads.MapServer"))
	require.Equal(testInstance, "Roads.MapServer", usage.NormalizeResource("Roads.MapServer"))
	require.Equal(testInstance, "Sub/Roads.MapServer", usage.NormalizeResource("Top/Sub/Roads.MapServer"))
}

func TestParseTimestampAcceptsSerialAndText(testInstance *testing.T) {
	serialTime, serialParsed := usage.ParseTimestamp("45353.5")
	require.True(testInstance, serialParsed)
	require.Equal(testInstance, time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC), serialTime)

	textTime, textParsed := usage.ParseTimestamp("3/2/2024 12:00")
	require.True(testInstance, textParsed)
	require.Equal(testInstance, serialTime, textTime)

	_, blankParsed := usage.ParseTimestamp(" ")
	require.False(testInstance, blankParsed)
}

func TestLastAccessByResourceExcludesGeoprocessing(testInstance *testing.T) {
	allRequests := tabular.NewTable([]string{"Date_Time", "Resource"}, [][]string{
		{"2024-03-01 10:00:00", "Roads.MapServer"},
		{"2024-03-03 10:00:00", "Folder/Roads.MapServer"},
		{"2024-03-04 10:00:00", "Tools.GPServer"},
		{"not a date", "Parcels.FeatureServer"},
	})

	latest := usage.LastAccessByResource(allRequests)
	require.Len(testInstance, latest, 1)
	require.Equal(testInstance, time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC), latest["Roads.MapServer"])
}
