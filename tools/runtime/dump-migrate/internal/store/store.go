// Package store writes migrated users and transactions into the destination
// database through a SQL dialect.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SWASSFinance/uoking-sub001/pkg/dialect"
)

// User is one row of the destination users table
type User struct {
	ID             string
	LegacyUserID   *int64
	Email          string
	Username       string
	PasswordHash   string
	FirstName      string
	LastName       string
	DiscordName    string
	MainShard      string
	CharacterNames []string
	Status         string
	EmailVerified  bool
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

// Transaction is one row of the destination transactions table
type Transaction struct {
	ID                string
	UserID            string
	CategoryID        int
	Type              string
	Status            string
	AmountUSD         float64
	Currency          string
	PaymentMethod     string
	Shard             string
	CharacterName     string
	DeliveryLocation  string
	Items             json.RawMessage
	PaymentProviderID string
	InternalReference string
	DeliveryStatus    string
	CustomerNotes     string
	StaffNotes        string
	CreatedAt         time.Time
}

var userColumns = []string{
	"id", "legacy_user_id", "email", "username", "password_hash",
	"first_name", "last_name", "discord_username", "main_shard",
	"character_names", "status", "email_verified", "created_at", "last_login_at",
}

var transactionColumns = []string{
	"id", "user_id", "category_id", "type", "status", "amount_usd",
	"currency", "payment_method", "shard", "character_name",
	"delivery_location", "items", "payment_provider_id", "internal_reference",
	"delivery_status", "customer_notes", "staff_notes", "created_at",
}

// Store is the destination database
type Store struct {
	db      *sql.DB
	dialect dialect.Dialect

	insertUser        string
	userExists        string
	insertTransaction string
}

// ErrUniqueConflict is returned when a user collides with an existing row on
// a unique key other than email
var ErrUniqueConflict = errors.New("unique key conflict")

// Open connects to the database named by connStr; the scheme picks the
// dialect
func Open(ctx context.Context, connStr string) (*Store, error) {
	d, err := dialect.FromConnectionString(connStr)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.GetDriverName(), d.FormatDSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.Name(), err)
	}
	if err := d.SetupConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.Name(), err)
	}

	slog.Info("Connected to destination database", "dialect", d.Name())
	return New(db, d), nil
}

// New wraps an open pool
func New(db *sql.DB, d dialect.Dialect) *Store {
	return &Store{
		db:                db,
		dialect:           d,
		insertUser:        d.InsertIgnore("users", userColumns, "email"),
		userExists:        fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s", d.QuoteIdentifier("users"), d.QuoteIdentifier("email"), d.Placeholder(1)),
		insertTransaction: dialect.Insert(d, "transactions", transactionColumns),
	}
}

func (s *Store) Dialect() dialect.Dialect { return s.dialect }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the users and transactions tables when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) schema() []string {
	d := s.dialect
	q := d.QuoteIdentifier

	users := []string{
		q("id") + " " + d.TypeUUID() + " PRIMARY KEY",
		q("legacy_user_id") + " " + d.TypeBigInt(),
		q("email") + " " + d.TypeVarchar(255) + " NOT NULL UNIQUE",
		q("username") + " " + d.TypeVarchar(50) + " NOT NULL",
		q("password_hash") + " " + d.TypeText() + " NOT NULL",
		q("first_name") + " " + d.TypeVarchar(50),
		q("last_name") + " " + d.TypeVarchar(50),
		q("discord_username") + " " + d.TypeVarchar(100),
		q("main_shard") + " " + d.TypeVarchar(100),
		q("character_names") + " " + d.TypeTextArray(),
		q("status") + " " + d.TypeVarchar(20) + " NOT NULL",
		q("email_verified") + " " + d.TypeBoolean() + " NOT NULL",
		q("created_at") + " " + d.TypeTimestamp() + " NOT NULL",
		q("last_login_at") + " " + d.TypeTimestamp(),
	}

	transactions := []string{
		q("id") + " " + d.TypeUUID() + " PRIMARY KEY",
		q("user_id") + " " + d.TypeUUID() + " NOT NULL REFERENCES " + q("users") + " (" + q("id") + ")",
		q("category_id") + " " + d.TypeInteger() + " NOT NULL",
		q("type") + " " + d.TypeVarchar(20) + " NOT NULL",
		q("status") + " " + d.TypeVarchar(20) + " NOT NULL",
		q("amount_usd") + " " + d.TypeDecimal(10, 2) + " NOT NULL",
		q("currency") + " " + d.TypeVarchar(3) + " NOT NULL",
		q("payment_method") + " " + d.TypeVarchar(50),
		q("shard") + " " + d.TypeVarchar(100),
		q("character_name") + " " + d.TypeVarchar(100),
		q("delivery_location") + " " + d.TypeText(),
		q("items") + " " + d.TypeJSON(),
		q("payment_provider_id") + " " + d.TypeVarchar(255),
		q("internal_reference") + " " + d.TypeVarchar(255),
		q("delivery_status") + " " + d.TypeVarchar(20) + " NOT NULL",
		q("customer_notes") + " " + d.TypeText(),
		q("staff_notes") + " " + d.TypeText(),
		q("created_at") + " " + d.TypeTimestamp() + " NOT NULL",
	}

	return []string{
		createTable(q("users"), users, d.TableOptions()),
		createTable(q("transactions"), transactions, d.TableOptions()),
	}
}

func createTable(name string, columns []string, options string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)%s",
		name, strings.Join(columns, ",\n  "), options)
}

// InsertUser writes u unless its email is already present. inserted is
// false when the email conflicted; a conflict on any other unique key is
// an ErrUniqueConflict error.
func (s *Store) InsertUser(ctx context.Context, u User) (inserted bool, err error) {
	args := []any{
		u.ID, nullInt(u.LegacyUserID), u.Email, u.Username, u.PasswordHash,
		nullString(u.FirstName), nullString(u.LastName), nullString(u.DiscordName), nullString(u.MainShard),
		s.dialect.ArrayValue(u.CharacterNames), u.Status, u.EmailVerified, u.CreatedAt.UTC(), nullTime(u.LastLoginAt),
	}

	var affected int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.insertUser, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil || affected > 0 {
			return err
		}

		// MySQL's INSERT IGNORE drops conflicts on every unique key
		var existing int
		if err := tx.QueryRowContext(ctx, s.userExists, u.Email).Scan(&existing); err != nil {
			return err
		}
		if existing == 0 {
			return ErrUniqueConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUniqueConflict) {
			return false, fmt.Errorf("user %s: %w", u.Email, err)
		}
		if s.dialect.IsUniqueViolation(err) {
			return false, fmt.Errorf("user %s: %w: %v", u.Email, ErrUniqueConflict, err)
		}
		return false, fmt.Errorf("failed to insert user %s: %w", u.Email, err)
	}
	return affected > 0, nil
}

// InsertTransaction writes t. There is no conflict key; writing the same
// transaction twice stores two rows.
func (s *Store) InsertTransaction(ctx context.Context, t Transaction) error {
	var items sql.NullString
	if len(t.Items) > 0 {
		items = sql.NullString{String: string(t.Items), Valid: true}
	}

	args := []any{
		t.ID, t.UserID, t.CategoryID, t.Type, t.Status, t.AmountUSD,
		t.Currency, nullString(t.PaymentMethod), nullString(t.Shard), nullString(t.CharacterName),
		nullString(t.DeliveryLocation), items, nullString(t.PaymentProviderID), nullString(t.InternalReference),
		t.DeliveryStatus, nullString(t.CustomerNotes), nullString(t.StaffNotes), t.CreatedAt.UTC(),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.insertTransaction, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
	}
	return nil
}

// EmailIndex maps lowercased email to user id for every destination user
func (s *Store) EmailIndex(ctx context.Context) (map[string]string, error) {
	q := s.dialect.QuoteIdentifier
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, %s FROM %s", q("id"), q("email"), q("users")))
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	index := make(map[string]string)
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		index[strings.ToLower(email)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return index, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "users")
}

func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	return s.count(ctx, "transactions")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM " + s.dialect.QuoteIdentifier(table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Debug("Rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
