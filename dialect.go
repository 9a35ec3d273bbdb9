// Package objstore provides a document store with a prioritized lifecycle hook engine.
// This file implements database dialect abstraction to handle SQL differences between databases.
//
// Documents of every class live in one table with the columns class_name, id and
// data (JSON text). A Dialect is responsible for:
//   - Database identification (MySQL, PostgreSQL, SQLite)
//   - Placeholder format (? vs $1, $2)
//   - Reading a document field out of the JSON data column
//   - The DDL of the document table
//
// Usage example:
//
//	session := objstore.NewSession(db, objstore.SQLite)
package objstore

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const (
	// IDField is the document field holding the object id. It is stored in its
	// own column and never inside the JSON data.
	IDField = "id"

	// DefaultTable is the document table used when none is configured.
	DefaultTable = "_objects"
)

var (
	SQLite     = SQLiteDialect{}
	MySQL      = MySQLDialect{}
	PostgreSQL = PostgreSQLDialect{}
)

// Dialect abstracts database-specific SQL features.
//
// Implementations:
//   - MySQLDialect: MySQL 5.7+
//   - PostgreSQLDialect: PostgreSQL 12+
//   - SQLiteDialect: SQLite 3.38+ (JSON functions built in)
type Dialect interface {
	// Name returns the driver name ("mysql", "postgres", "sqlite3").
	// Used for logging, metrics collection, and driver selection.
	Name() string

	// PlaceholderFormat returns the placeholder format used by the database.
	PlaceholderFormat() sq.PlaceholderFormat

	// FieldSQL returns the SQL that reads a document field, with its arguments.
	// The id field maps to the id column.
	FieldSQL(field string) (string, []any)

	// NumericFieldSQL is FieldSQL for use inside numeric aggregates.
	NumericFieldSQL(field string) (string, []any)

	// CreateTableSQL returns the DDL of the document table.
	CreateTableSQL(table string) string
}

// DialectByName returns the Dialect registered for a driver name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "pgx":
		return PostgreSQL, nil
	default:
		return nil, fmt.Errorf("objstore: unsupported driver %q", name)
	}
}

func jsonPath(field string) string { return "$." + field }

// SQLiteDialect implements SQLite database dialect.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite3" }

func (SQLiteDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (SQLiteDialect) FieldSQL(field string) (string, []any) {
	if field == IDField {
		return "id", nil
	}
	return "json_extract(data, ?)", []any{jsonPath(field)}
}

func (d SQLiteDialect) NumericFieldSQL(field string) (string, []any) { return d.FieldSQL(field) }

func (SQLiteDialect) CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	class_name TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (class_name, id)
)`, table)
}

// MySQLDialect implements MySQL database dialect.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

func (MySQLDialect) FieldSQL(field string) (string, []any) {
	if field == IDField {
		return "id", nil
	}
	return "JSON_UNQUOTE(JSON_EXTRACT(data, ?))", []any{jsonPath(field)}
}

// NumericFieldSQL relies on MySQL converting the unquoted text in numeric context.
func (d MySQLDialect) NumericFieldSQL(field string) (string, []any) { return d.FieldSQL(field) }

func (MySQLDialect) CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	class_name VARCHAR(191) NOT NULL,
	id VARCHAR(64) NOT NULL,
	data JSON NOT NULL,
	PRIMARY KEY (class_name, id)
)`, table)
}

// PostgreSQLDialect implements PostgreSQL database dialect.
type PostgreSQLDialect struct{}

func (PostgreSQLDialect) Name() string { return "postgres" }

func (PostgreSQLDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }

func (PostgreSQLDialect) FieldSQL(field string) (string, []any) {
	if field == IDField {
		return "id", nil
	}
	return "(data->>?)", []any{field}
}

func (d PostgreSQLDialect) NumericFieldSQL(field string) (string, []any) {
	sql, args := d.FieldSQL(field)
	return "CAST(" + sql + " AS DOUBLE PRECISION)", args
}

func (PostgreSQLDialect) CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	class_name TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL,
	PRIMARY KEY (class_name, id)
)`, table)
}
