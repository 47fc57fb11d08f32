package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// Name returns the canonical dialect name ("sqlite", "postgres", "mysql")
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertSubmissionQuery returns the insert-or-update statement for one
	// (user_id, scene_n, round_n) row. Arguments in order: user_id, scene_n,
	// round_n, status, sentence1_built, sentence2_built. Only the answer and
	// status columns are overwritten on conflict.
	UpsertSubmissionQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictUpsert is shared by SQLite and PostgreSQL, which both accept
// the ON CONFLICT ... DO UPDATE form with the excluded pseudo-table.
const onConflictUpsert = `
	INSERT INTO submissions (user_id, scene_n, round_n, status, sentence1_built, sentence2_built)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, scene_n, round_n) DO UPDATE SET
		status = excluded.status,
		sentence1_built = excluded.sentence1_built,
		sentence2_built = excluded.sentence2_built,
		updated_at = CURRENT_TIMESTAMP
`
