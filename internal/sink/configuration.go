package sink

import (
	"strings"

	"github.com/go-pg/pg/v10"
)

const (
	// StoreKindPostgres selects the PostgreSQL table store.
	StoreKindPostgres = "postgres"
	// StoreKindDirectory selects the CSV directory table store.
	StoreKindDirectory = "directory"

	defaultPostgresSchemaConstant     = "public"
	defaultPostgresMaxRetriesConstant = 3
)

// PostgresConfiguration describes the PostgreSQL connection.
type PostgresConfiguration struct {
	Address    string `mapstructure:"address"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	Schema     string `mapstructure:"schema"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=0"`
}

// Options converts the configuration into go-pg connection options.
func (configuration PostgresConfiguration) Options() *pg.Options {
	maxRetries := configuration.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultPostgresMaxRetriesConstant
	}
	return &pg.Options{
		Addr:       configuration.Address,
		User:       configuration.User,
		Password:   configuration.Password,
		Database:   configuration.Database,
		MaxRetries: maxRetries,
	}
}

// SchemaName returns the configured schema or public.
func (configuration PostgresConfiguration) SchemaName() string {
	schema := strings.TrimSpace(configuration.Schema)
	if len(schema) == 0 {
		return defaultPostgresSchemaConstant
	}
	return schema
}

// Configuration selects the table store and the validation mode.
type Configuration struct {
	Kind      string                `mapstructure:"kind" validate:"omitempty,oneof=postgres directory"`
	Mode      Mode                  `mapstructure:"mode" validate:"omitempty,oneof=TEST NO_TEST"`
	Directory string                `mapstructure:"directory"`
	Postgres  PostgresConfiguration `mapstructure:"postgres"`
}
