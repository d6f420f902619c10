package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// PostgreSQL implements the Dialect interface for PostgreSQL databases
type PostgreSQL struct{}

// NewPostgreSQL creates a new PostgreSQL dialect
func NewPostgreSQL() *PostgreSQL {
	return &PostgreSQL{}
}

func (p *PostgreSQL) Name() string {
	return "postgresql"
}

func (p *PostgreSQL) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (p *PostgreSQL) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (p *PostgreSQL) GetDriverName() string {
	return "pgx"
}

// FormatDSN returns the URL unchanged; pgx accepts postgres:// URLs natively
func (p *PostgreSQL) FormatDSN(connStr string) string {
	return connStr
}

func (p *PostgreSQL) SetupConnection(db *sql.DB) error {
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

func (p *PostgreSQL) InsertIgnore(table string, columns []string, conflictColumn string) string {
	return Insert(p, table, columns) + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", p.QuoteIdentifier(conflictColumn))
}

// ArrayValue hands the slice to pgx, which encodes []string as text[]
func (p *PostgreSQL) ArrayValue(values []string) any {
	if values == nil {
		return []string{}
	}
	return values
}

func (p *PostgreSQL) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// FormatString quotes s as a literal; backslashes switch to E'' syntax
func (p *PostgreSQL) FormatString(s string) string {
	return pq.QuoteLiteral(s)
}

func (p *PostgreSQL) FormatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

func (p *PostgreSQL) FormatFloat(f float64) string {
	return formatFloat(f)
}

func (p *PostgreSQL) FormatBool(b bool) string {
	return fmt.Sprintf("%t", b)
}

func (p *PostgreSQL) FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("'%s'", t.Format(time.RFC3339))
}

func (p *PostgreSQL) FormatDate(t time.Time) string {
	return fmt.Sprintf("'%s'", t.Format("2006-01-02"))
}

func (p *PostgreSQL) FormatNull() string {
	return "NULL"
}

func (p *PostgreSQL) TypeUUID() string {
	return "UUID"
}

func (p *PostgreSQL) TypeText() string {
	return "TEXT"
}

func (p *PostgreSQL) TypeVarchar(n int) string {
	return fmt.Sprintf("VARCHAR(%d)", n)
}

func (p *PostgreSQL) TypeTimestamp() string {
	return "TIMESTAMP WITH TIME ZONE"
}

func (p *PostgreSQL) TypeDecimal(precision, scale int) string {
	return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
}

func (p *PostgreSQL) TypeInteger() string {
	return "INTEGER"
}

func (p *PostgreSQL) TypeBigInt() string {
	return "BIGINT"
}

func (p *PostgreSQL) TypeBoolean() string {
	return "BOOLEAN"
}

func (p *PostgreSQL) TypeJSON() string {
	return "JSONB"
}

func (p *PostgreSQL) TypeTextArray() string {
	return "TEXT[]"
}

func (p *PostgreSQL) TableOptions() string {
	return ""
}
