package pipeline

import (
	"github.com/temirov/portalaudit/internal/compliance"
	"github.com/temirov/portalaudit/internal/housekeeping"
	"github.com/temirov/portalaudit/internal/portal"
	"github.com/temirov/portalaudit/internal/publish"
	"github.com/temirov/portalaudit/internal/report"
	"github.com/temirov/portalaudit/internal/sink"
	"github.com/temirov/portalaudit/internal/usage"
)

// StageToggles enables or disables the optional stages. Prepare always runs.
type StageToggles struct {
	LogReport  bool `mapstructure:"log_report"`
	Inventory  bool `mapstructure:"inventory"`
	Usage      bool `mapstructure:"usage"`
	Compliance bool `mapstructure:"compliance"`
	Sink       bool `mapstructure:"sink"`
	Publish    bool `mapstructure:"publish"`
	Report     bool `mapstructure:"report"`
	Cleanup    bool `mapstructure:"cleanup"`
}

// InventoryConfiguration tunes the inventory extraction.
type InventoryConfiguration struct {
	IncludeMemberCounts bool   `mapstructure:"include_member_counts"`
	TimeZone            string `mapstructure:"time_zone"`
}

// Configuration aggregates the settings of every stage.
type Configuration struct {
	Stages       StageToggles                 `mapstructure:"stages"`
	Portal       portal.Configuration         `mapstructure:"portal"`
	Housekeeping housekeeping.Configuration   `mapstructure:"housekeeping"`
	LogReport    usage.GeneratorConfiguration `mapstructure:"log_report"`
	Inventory    InventoryConfiguration       `mapstructure:"inventory"`
	Compliance   compliance.Configuration     `mapstructure:"compliance"`
	Sink         sink.Configuration           `mapstructure:"sink"`
	Publish      publish.Configuration        `mapstructure:"publish"`
	Report       report.Configuration         `mapstructure:"report"`
}

// DefaultStageToggles enables every stage except publication.
func DefaultStageToggles() StageToggles {
	return StageToggles{
		LogReport:  true,
		Inventory:  true,
		Usage:      true,
		Compliance: true,
		Sink:       true,
		Publish:    false,
		Report:     true,
		Cleanup:    true,
	}
}
