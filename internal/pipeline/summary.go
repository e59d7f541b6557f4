package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/temirov/portalaudit/internal/inventory"
)

const (
	// SummaryFileName is the run summary written into the run directory.
	SummaryFileName = "run_summary.yaml"
	// MetricsFileName is the textfile-collector exposition written into the run directory.
	MetricsFileName = "run_metrics.prom"

	summaryFilePermissionsConstant           = 0o644
	metricsNamespaceConstant                 = "portalaudit"
	metricLabelStageConstant                 = "stage"
	metricLabelStatusConstant                = "status"
	metricLabelTableConstant                 = "table"
	summaryEncodeErrorTemplateConstant       = "unable to encode run summary: %w"
	summaryWriteErrorTemplateConstant        = "unable to write run summary %s: %w"
	metricsRegistrationErrorTemplateConstant = "unable to register run metrics: %w"
	metricsWriteErrorTemplateConstant        = "unable to write run metrics %s: %w"
)

// Summary is the persisted record of one run.
type Summary struct {
	RunID        string         `yaml:"run_id"`
	StartedAt    time.Time      `yaml:"started_at"`
	CompletedAt  time.Time      `yaml:"completed_at"`
	RunDirectory string         `yaml:"run_directory"`
	Stages       []StageResult  `yaml:"stages"`
	Outputs      SummaryOutputs `yaml:"outputs"`
}

// SummaryOutputs lists what the succeeded stages produced.
type SummaryOutputs struct {
	Workbook             string         `yaml:"workbook,omitempty"`
	InventoryRows        map[string]int `yaml:"inventory_rows,omitempty"`
	ExcludedItems        int            `yaml:"excluded_items"`
	SkippedRows          int            `yaml:"skipped_rows"`
	UsageRows            map[string]int `yaml:"usage_rows,omitempty"`
	ItemsChecked         int            `yaml:"items_checked"`
	Findings             int            `yaml:"findings"`
	NotificationsSent    int            `yaml:"notifications_sent"`
	NotificationFailures int            `yaml:"notification_failures"`
	LoadedTables         []string       `yaml:"loaded_tables,omitempty"`
	Compacted            bool           `yaml:"compacted"`
	PublishedTo          string         `yaml:"published_to,omitempty"`
	ReportDocument       string         `yaml:"report_document,omitempty"`
	Charts               []string       `yaml:"charts,omitempty"`
	RemovedRuns          []string       `yaml:"removed_runs,omitempty"`
}

// NewSummary captures the state of a finished run.
func NewSummary(state *State) Summary {
	return Summary{
		RunID:        state.RunID,
		StartedAt:    state.StartedAt,
		CompletedAt:  state.CompletedAt,
		RunDirectory: state.Layout.RunDirectory,
		Stages:       append([]StageResult{}, state.Results...),
		Outputs: SummaryOutputs{
			Workbook:             state.WorkbookPath,
			InventoryRows:        inventoryRows(state.Inventory),
			ExcludedItems:        state.Inventory.ExcludedItems,
			SkippedRows:          state.Inventory.SkippedRows,
			UsageRows:            state.Usage.Rows,
			ItemsChecked:         state.Compliance.ItemsChecked,
			Findings:             len(state.Compliance.Findings),
			NotificationsSent:    state.Compliance.NotificationsSent,
			NotificationFailures: state.Compliance.NotificationFailures,
			LoadedTables:         state.Sink.LoadedTables,
			Compacted:            state.Sink.Compacted,
			PublishedTo:          state.Publication.Destination,
			ReportDocument:       state.Report.DocumentPath,
			Charts:               state.Report.Charts,
			RemovedRuns:          state.Cleanup.Removed,
		},
	}
}

// WriteSummary writes run_summary.yaml into the run directory.
func WriteSummary(state *State) error {
	encoded, encodeError := yaml.Marshal(NewSummary(state))
	if encodeError != nil {
		return fmt.Errorf(summaryEncodeErrorTemplateConstant, encodeError)
	}
	summaryPath := filepath.Join(state.Layout.RunDirectory, SummaryFileName)
	if writeError := os.WriteFile(summaryPath, encoded, summaryFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, summaryPath, writeError)
	}
	return nil
}

// WriteMetrics writes run_metrics.prom into the run directory.
func WriteMetrics(state *State) error {
	registry := prometheus.NewRegistry()

	runStarted := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "run_started_timestamp_seconds",
		Help:      "Start time of the last run.",
	})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	stageDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of each stage of the last run.",
	}, []string{metricLabelStageConstant})
	stageStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "stage_status",
		Help:      "Outcome of each stage of the last run.",
	}, []string{metricLabelStageConstant, metricLabelStatusConstant})
	tableRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "table_rows",
		Help:      "Rows written per output table in the last run.",
	}, []string{metricLabelTableConstant})
	complianceFindings := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespaceConstant,
		Name:      "compliance_findings",
		Help:      "Governance rule violations found in the last run.",
	})

	for _, collector := range []prometheus.Collector{runStarted, runDuration, stageDuration, stageStatus, tableRows, complianceFindings} {
		if registerError := registry.Register(collector); registerError != nil {
			return fmt.Errorf(metricsRegistrationErrorTemplateConstant, registerError)
		}
	}

	runStarted.Set(float64(state.StartedAt.Unix()))
	runDuration.Set(state.CompletedAt.Sub(state.StartedAt).Seconds())
	for _, result := range state.Results {
		stageDuration.WithLabelValues(result.Name).Set(result.Duration.Seconds())
		for _, status := range []StageStatus{StatusSucceeded, StatusFailed, StatusSkipped} {
			value := 0.0
			if result.Status == status {
				value = 1
			}
			stageStatus.WithLabelValues(result.Name, string(status)).Set(value)
		}
	}
	for table, rows := range inventoryRows(state.Inventory) {
		tableRows.WithLabelValues(table).Set(float64(rows))
	}
	for table, rows := range state.Usage.Rows {
		tableRows.WithLabelValues(table).Set(float64(rows))
	}
	complianceFindings.Set(float64(len(state.Compliance.Findings)))

	metricsPath := filepath.Join(state.Layout.RunDirectory, MetricsFileName)
	if writeError := prometheus.WriteToTextfile(metricsPath, registry); writeError != nil {
		return fmt.Errorf(metricsWriteErrorTemplateConstant, metricsPath, writeError)
	}
	return nil
}

func inventoryRows(result inventory.Result) map[string]int {
	if len(result.UsersFile) == 0 && len(result.GroupsFile) == 0 && len(result.ItemsFile) == 0 {
		return nil
	}
	return map[string]int{
		inventory.UsersFileName:  result.UserRows,
		inventory.GroupsFileName: result.GroupRows,
		inventory.ItemsFileName:  result.ItemRows,
	}
}
