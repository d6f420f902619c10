package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDialect is returned when a connection string or name maps to no
// supported database
var ErrUnknownDialect = errors.New("unknown dialect")

// FromConnectionString returns the appropriate dialect based on the connection string
func FromConnectionString(connStr string) (Dialect, error) {
	lower := strings.ToLower(strings.TrimSpace(connStr))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return NewPostgreSQL(), nil
	case strings.HasPrefix(lower, "mysql://"):
		return NewMySQL(), nil
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"):
		return NewSQLite(), nil
	}

	return nil, fmt.Errorf("%w: cannot infer database from %q", ErrUnknownDialect, redact(connStr))
}

// FromName returns the dialect by name
func FromName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgresql", "postgres", "pg":
		return NewPostgreSQL(), nil
	case "mysql", "mariadb":
		return NewMySQL(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, name)
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(connStr string) string {
	if i := strings.Index(connStr, "://"); i >= 0 {
		return connStr[:i+3] + "..."
	}
	if len(connStr) > 8 {
		return connStr[:8] + "..."
	}
	return connStr
}
