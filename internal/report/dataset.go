package report

import (
	"fmt"
	"path/filepath"

	"github.com/temirov/portalaudit/internal/inventory"
	"github.com/temirov/portalaudit/internal/tabular"
	"github.com/temirov/portalaudit/internal/usage"
)

const missingInputTemplateConstant = "report input %s unavailable: %w"

// Dataset holds the run tables the report reads.
type Dataset struct {
	Users                tabular.Table
	Groups               tabular.Table
	Items                tabular.Table
	ItemMetrics          tabular.Table
	AllRequests          tabular.Table
	StatisticsByResource tabular.Table
	StatisticsByUser     tabular.Table
}

// LoadDataset reads every report input from csvDirectory.
func LoadDataset(csvDirectory string) (Dataset, error) {
	dataset := Dataset{}
	inputs := []struct {
		fileName string
		target   *tabular.Table
	}{
		{fileName: inventory.UsersFileName, target: &dataset.Users},
		{fileName: inventory.GroupsFileName, target: &dataset.Groups},
		{fileName: inventory.ItemsFileName, target: &dataset.Items},
		{fileName: usage.ItemMetricsFileName, target: &dataset.ItemMetrics},
		{fileName: usage.AllRequestsFileName, target: &dataset.AllRequests},
		{fileName: usage.StatisticsByResourceFileName, target: &dataset.StatisticsByResource},
		{fileName: usage.StatisticsByUserFileName, target: &dataset.StatisticsByUser},
	}
	for _, input := range inputs {
		table, readError := tabular.ReadFile(filepath.Join(csvDirectory, input.fileName))
		if readError != nil {
			return Dataset{}, fmt.Errorf(missingInputTemplateConstant, input.fileName, readError)
		}
		*input.target = table
	}
	return dataset, nil
}
