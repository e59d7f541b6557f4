package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pg/pg/v10"

	"github.com/temirov/portalaudit/internal/tabular"
)

const (
	columnsQueryConstant                  = "SELECT column_name FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position"
	truncateQueryConstant                 = "TRUNCATE TABLE ?"
	copyQueryTemplateConstant             = "COPY ? (%s) FROM STDIN WITH CSV HEADER"
	vacuumQueryConstant                   = "VACUUM ANALYZE ?"
	queryPlaceholderConstant              = "?"
	placeholderSeparatorConstant          = ", "
	qualifiedTableTemplateConstant        = "%s.%s"
	columnsLookupTemplateConstant         = "unable to read columns of %s: %w"
	tableMissingTemplateConstant          = "%s: %w"
	encodeTableTemplateConstant           = "unable to encode rows of %s: %w"
	truncateFailedTemplateConstant        = "unable to truncate %s: %w"
	copyFailedTemplateConstant            = "unable to copy rows into %s: %w"
	compactionFailedTemplateConstant      = "unable to vacuum %s: %w"
	closeConnectionFailedTemplateConstant = "unable to close database connection: %w"
)

// PostgresStore keeps tables in a PostgreSQL schema.
type PostgresStore struct {
	database *pg.DB
	schema   string
}

// NewPostgresStore opens a connection pool for the configured database.
func NewPostgresStore(configuration PostgresConfiguration) *PostgresStore {
	return &PostgresStore{database: pg.Connect(configuration.Options()), schema: configuration.SchemaName()}
}

// Columns reads the table's columns from information_schema.
func (store *PostgresStore) Columns(executionContext context.Context, table string) ([]string, error) {
	var columns []string
	if _, queryError := store.database.QueryContext(executionContext, &columns, columnsQueryConstant, store.schema, table); queryError != nil {
		return nil, fmt.Errorf(columnsLookupTemplateConstant, table, queryError)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf(tableMissingTemplateConstant, table, ErrTableNotFound)
	}
	return columns, nil
}

// Replace truncates the table and streams the rows with COPY inside one transaction.
func (store *PostgresStore) Replace(executionContext context.Context, table string, data tabular.Table) error {
	var payload bytes.Buffer
	if encodeError := tabular.WriteCSV(&payload, data); encodeError != nil {
		return fmt.Errorf(encodeTableTemplateConstant, table, encodeError)
	}

	qualifiedTable := store.qualifiedTable(table)
	header := data.Header()
	placeholders := make([]string, 0, len(header))
	copyParameters := make([]interface{}, 0, len(header)+1)
	copyParameters = append(copyParameters, qualifiedTable)
	for _, column := range header {
		placeholders = append(placeholders, queryPlaceholderConstant)
		copyParameters = append(copyParameters, pg.Ident(column))
	}
	copyQuery := fmt.Sprintf(copyQueryTemplateConstant, strings.Join(placeholders, placeholderSeparatorConstant))

	return store.database.RunInTransaction(executionContext, func(transaction *pg.Tx) error {
		if _, truncateError := transaction.ExecContext(executionContext, truncateQueryConstant, qualifiedTable); truncateError != nil {
			return fmt.Errorf(truncateFailedTemplateConstant, table, truncateError)
		}
		if _, copyError := transaction.CopyFrom(&payload, copyQuery, copyParameters...); copyError != nil {
			return fmt.Errorf(copyFailedTemplateConstant, table, copyError)
		}
		return nil
	})
}

// Compact runs VACUUM ANALYZE on the table.
func (store *PostgresStore) Compact(executionContext context.Context, table string) error {
	if _, vacuumError := store.database.ExecContext(executionContext, vacuumQueryConstant, store.qualifiedTable(table)); vacuumError != nil {
		return fmt.Errorf(compactionFailedTemplateConstant, table, vacuumError)
	}
	return nil
}

// Close releases the connection pool.
func (store *PostgresStore) Close() error {
	if closeError := store.database.Close(); closeError != nil {
		return fmt.Errorf(closeConnectionFailedTemplateConstant, closeError)
	}
	return nil
}

func (store *PostgresStore) qualifiedTable(table string) pg.Ident {
	return pg.Ident(fmt.Sprintf(qualifiedTableTemplateConstant, store.schema, table))
}
