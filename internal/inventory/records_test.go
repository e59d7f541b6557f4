package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/portalaudit/internal/inventory"
)

func TestItemRecordRoundTripsQuotedLists(testInstance *testing.T) {
	record := inventory.ItemRecord{
		Title:            "Roads",
		Tags:             []string{"transport", "roads, highways"},
		SharedWithGroups: []string{"Public Works"},
		Views:            12,
		SizeMegabytes:    1.5,
	}
	row := record.CSVRecord()
	require.Equal(testInstance, "'transport', 'roads, highways'", row[5])
	require.Equal(testInstance, "false", row[7])
	require.Equal(testInstance, "12", row[10])
	require.Equal(testInstance, "1.5", row[15])

	require.Equal(testInstance, []string{"transport", "roads, highways"}, inventory.ParseQuotedList(row[5]))
	require.Equal(testInstance, []string{"Public Works"}, inventory.ParseQuotedList(row[9]))
	require.Nil(testInstance, inventory.ParseQuotedList(" "))
}

func TestGroupRecordOptionalCounts(testInstance *testing.T) {
	record := inventory.GroupRecord{Title: "Editors", Owner: "alice", Managers: []string{"alice"}, Members: []string{"bob", "carol"}, ItemCount: 4}
	require.Equal(testInstance, []string{"Editors", "alice", "alice", "bob, carol", "4"}, record.CSVRecord(false))
	require.Equal(testInstance, []string{"Editors", "alice", "alice", "bob, carol", "4", "1", "2"}, record.CSVRecord(true))
	require.Len(testInstance, inventory.GroupColumnsWithCounts, 7)
}
