package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite implements the Dialect interface for SQLite databases via the
// pure-Go modernc driver
type SQLite struct{}

// NewSQLite creates a new SQLite dialect
func NewSQLite() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) QuoteIdentifier(name string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\""))
}

func (s *SQLite) Placeholder(int) string {
	return "?"
}

func (s *SQLite) GetDriverName() string {
	return "sqlite"
}

// FormatDSN strips a sqlite:// scheme; file: URIs and bare paths pass through
func (s *SQLite) FormatDSN(connStr string) string {
	if len(connStr) >= len("sqlite://") && strings.EqualFold(connStr[:len("sqlite://")], "sqlite://") {
		return connStr[len("sqlite://"):]
	}
	return connStr
}

// SetupConnection pins the pool to one connection so in-memory databases
// and PRAGMAs stay on the same handle
func (s *SQLite) SetupConnection(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	_, err := db.Exec("PRAGMA foreign_keys = ON")
	return err
}

func (s *SQLite) InsertIgnore(table string, columns []string, conflictColumn string) string {
	return Insert(s, table, columns) + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", s.QuoteIdentifier(conflictColumn))
}

func (s *SQLite) ArrayValue(values []string) any {
	return jsonArray(values)
}

func (s *SQLite) IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

func (s *SQLite) FormatString(str string) string {
	return "'" + strings.ReplaceAll(str, "'", "''") + "'"
}

func (s *SQLite) FormatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

func (s *SQLite) FormatFloat(f float64) string {
	return formatFloat(f)
}

func (s *SQLite) FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (s *SQLite) FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("'%s'", t.UTC().Format("2006-01-02 15:04:05"))
}

func (s *SQLite) FormatDate(t time.Time) string {
	return fmt.Sprintf("'%s'", t.Format("2006-01-02"))
}

func (s *SQLite) FormatNull() string {
	return "NULL"
}

func (s *SQLite) TypeUUID() string {
	return "TEXT"
}

func (s *SQLite) TypeText() string {
	return "TEXT"
}

func (s *SQLite) TypeVarchar(int) string {
	return "TEXT"
}

func (s *SQLite) TypeTimestamp() string {
	return "TIMESTAMP"
}

func (s *SQLite) TypeDecimal(int, int) string {
	return "NUMERIC"
}

func (s *SQLite) TypeInteger() string {
	return "INTEGER"
}

func (s *SQLite) TypeBigInt() string {
	return "INTEGER"
}

func (s *SQLite) TypeBoolean() string {
	return "BOOLEAN"
}

func (s *SQLite) TypeJSON() string {
	return "TEXT"
}

func (s *SQLite) TypeTextArray() string {
	return "TEXT"
}

func (s *SQLite) TableOptions() string {
	return ""
}
