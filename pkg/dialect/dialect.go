package dialect

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect represents a SQL dialect for the destination database and for
// the literals written into generated dumps
type Dialect interface {
	// Name returns the dialect name (e.g., "postgresql", "mysql", "sqlite")
	Name() string

	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string

	// Placeholder returns the bind parameter for the n-th argument (1-based)
	Placeholder(n int) string

	// GetDriverName returns the database/sql driver name
	GetDriverName() string

	// FormatDSN converts a URL-style connection string to the driver's native DSN format
	FormatDSN(connStr string) string

	// SetupConnection tunes a freshly opened pool
	SetupConnection(db *sql.DB) error

	// InsertIgnore builds an INSERT that silently skips rows conflicting
	// on conflictColumn
	InsertIgnore(table string, columns []string, conflictColumn string) string

	// ArrayValue converts a string list into a bind argument for a
	// TypeTextArray column
	ArrayValue(values []string) any

	// IsUniqueViolation reports whether err is a unique constraint failure
	IsUniqueViolation(err error) bool

	// FormatString formats a string value for SQL, with proper escaping
	FormatString(s string) string

	// FormatInt formats an integer value for SQL
	FormatInt(i int64) string

	// FormatFloat formats a float value for SQL; the result always has a
	// decimal point
	FormatFloat(f float64) string

	// FormatBool formats a boolean value for SQL
	// PostgreSQL uses true/false, MySQL and SQLite use 1/0
	FormatBool(b bool) string

	// FormatTimestamp formats a time.Time value for SQL
	FormatTimestamp(t time.Time) string

	// FormatDate formats a time.Time as a date-only value for SQL
	FormatDate(t time.Time) string

	// FormatNull returns the NULL literal for SQL
	FormatNull() string

	// TypeUUID returns the column type for UUID values
	// PostgreSQL: "UUID", MySQL: "CHAR(36)"
	TypeUUID() string

	// TypeText returns the column type for unbounded text
	TypeText() string

	// TypeVarchar returns a bounded text type usable in unique indexes
	TypeVarchar(n int) string

	// TypeTimestamp returns the column type for timestamp with timezone
	// PostgreSQL: "TIMESTAMP WITH TIME ZONE", MySQL: "DATETIME(6)"
	TypeTimestamp() string

	// TypeDecimal returns the column type for decimal numbers
	TypeDecimal(precision, scale int) string

	// TypeInteger returns the column type for integers
	TypeInteger() string

	// TypeBigInt returns the column type for 64-bit integers
	TypeBigInt() string

	// TypeBoolean returns the column type for booleans
	TypeBoolean() string

	// TypeJSON returns the column type for JSON documents
	TypeJSON() string

	// TypeTextArray returns the column type for a list of strings
	// PostgreSQL: "TEXT[]", others store a JSON array
	TypeTextArray() string

	// TableOptions returns the suffix appended to CREATE TABLE
	TableOptions() string
}

// Insert builds a plain parameterized INSERT statement.
func Insert(d Dialect, table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table), quoteList(d, columns), placeholders(d, len(columns)))
}

func quoteList(d Dialect, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(d Dialect, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
