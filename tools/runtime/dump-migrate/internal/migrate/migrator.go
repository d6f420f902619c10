// Package migrate moves extracted legacy users and transactions into the
// destination store.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/clean"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/extract"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/store"
)

// Stage is a step of the migration. Stages run once, in order.
type Stage int

const (
	StageIdle Stage = iota
	StageExtract
	StageMigrateUsers
	StageBuildEmailIndex
	StageMigrateTransactions
	StageReport
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageExtract:
		return "EXTRACT"
	case StageMigrateUsers:
		return "MIGRATE_USERS"
	case StageBuildEmailIndex:
		return "BUILD_EMAIL_INDEX"
	case StageMigrateTransactions:
		return "MIGRATE_TRANSACTIONS"
	case StageReport:
		return "REPORT"
	case StageDone:
		return "DONE"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Store is the destination the migrator writes to
type Store interface {
	InsertUser(ctx context.Context, u store.User) (bool, error)
	EmailIndex(ctx context.Context) (map[string]string, error)
	InsertTransaction(ctx context.Context, t store.Transaction) error
}

// LoadFunc produces the extracted collections for the EXTRACT stage
type LoadFunc func(ctx context.Context) (*extract.Result, error)

// Config contains configuration for a migration. Rules is used as given;
// start from clean.DefaultRules.
type Config struct {
	Rules            clean.Rules
	ErrorSampleSize  int       // errors kept for the report
	ProgressInterval int       // log progress every N records
	Report           io.Writer // nil = no report
}

// Migrator orchestrates a migration
type Migrator struct {
	store   Store
	cleaner *clean.Cleaner
	config  Config
	stats   Statistics
	stage   Stage
}

// NewMigrator creates a migrator writing to s
func NewMigrator(s Store, config Config) *Migrator {
	if config.ErrorSampleSize <= 0 {
		config.ErrorSampleSize = 100
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = 100
	}
	return &Migrator{
		store:   s,
		cleaner: clean.NewCleaner(config.Rules),
		config:  config,
	}
}

// Run executes every stage, starting with load
func (m *Migrator) Run(ctx context.Context, load LoadFunc) error {
	if m.stage != StageIdle {
		return fmt.Errorf("migration already ran (stage %s)", m.stage)
	}
	m.stats = Statistics{StartTime: time.Now()}

	m.enter(StageExtract)
	result, err := load(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	return m.migrate(ctx, result)
}

// Migrate executes every stage after EXTRACT on an existing result
func (m *Migrator) Migrate(ctx context.Context, result *extract.Result) error {
	return m.Run(ctx, func(context.Context) (*extract.Result, error) {
		return result, nil
	})
}

func (m *Migrator) migrate(ctx context.Context, result *extract.Result) error {
	m.enter(StageMigrateUsers)
	if src := userSource(result); src != nil {
		m.stats.UserSource = src.Name()
		slog.Info("Migrating users", "collection", src.Name(), "records", src.Len())
		if err := m.migrateUsers(ctx, src.Rows()); err != nil {
			return err
		}
	} else {
		slog.Warn("No user data found in extracted collections")
	}

	m.enter(StageBuildEmailIndex)
	index, err := m.store.EmailIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to build email index: %w", err)
	}
	slog.Info("Built email-to-id index", "users", len(index))

	m.enter(StageMigrateTransactions)
	if src := transactionSource(result); src != nil {
		m.stats.TransactionSource = src.Name()
		slog.Info("Migrating transactions", "collection", src.Name(), "records", src.Len())
		if err := m.migrateTransactions(ctx, src.Rows(), index); err != nil {
			return err
		}
	} else {
		slog.Warn("No transaction data found in extracted collections")
	}

	m.enter(StageReport)
	m.stats.EndTime = time.Now()
	m.logFinalStatistics(ctx)
	if m.config.Report != nil {
		WriteReport(m.config.Report, m.stats)
	}

	m.enter(StageDone)
	return nil
}

func (m *Migrator) migrateUsers(ctx context.Context, rows []*types.Row) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("user migration cancelled: %w", err)
		}
		m.stats.UsersProcessed++

		u, err := m.cleaner.User(row)
		if err != nil {
			m.stats.UsersSkipped++
			m.skipOrFail(err, "User cleaning error: %v")
			continue
		}

		inserted, err := m.store.InsertUser(ctx, u)
		if err != nil {
			m.stats.UsersSkipped++
			m.stats.recordError(m.config.ErrorSampleSize, "User migration error: %v", err)
			slog.Error("Failed to migrate user", "email", u.Email, "error", err)
			continue
		}
		if !inserted {
			m.stats.UsersSkipped++
			slog.Debug("User already exists", "email", u.Email)
			continue
		}

		m.stats.UsersMigrated++
		if m.stats.UsersMigrated%m.config.ProgressInterval == 0 {
			slog.Info("User migration progress",
				"migrated", m.stats.UsersMigrated,
				"processed", m.stats.UsersProcessed,
				"total", len(rows))
		}
	}
	return nil
}

func (m *Migrator) migrateTransactions(ctx context.Context, rows []*types.Row, index map[string]string) error {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transaction migration cancelled: %w", err)
		}
		m.stats.TransactionsProcessed++

		t, err := m.cleaner.Transaction(row, index)
		if err != nil {
			m.stats.TransactionsSkipped++
			m.skipOrFail(err, "Transaction cleaning error: %v")
			continue
		}

		if err := m.store.InsertTransaction(ctx, t); err != nil {
			m.stats.TransactionsSkipped++
			m.stats.recordError(m.config.ErrorSampleSize, "Transaction migration error: %v", err)
			slog.Error("Failed to migrate transaction", "reference", t.InternalReference, "error", err)
			continue
		}

		m.stats.TransactionsMigrated++
		if m.stats.TransactionsMigrated%m.config.ProgressInterval == 0 {
			slog.Info("Transaction migration progress",
				"migrated", m.stats.TransactionsMigrated,
				"processed", m.stats.TransactionsProcessed,
				"total", len(rows))
		}
	}
	return nil
}

// skipOrFail records a validation skip, or a cleaning error when err is
// not a *clean.SkipError
func (m *Migrator) skipOrFail(err error, format string) {
	var skipErr *clean.SkipError
	if errors.As(err, &skipErr) {
		m.stats.recordSkip(skipErr.Reason)
		slog.Debug("Skipping record", "reason", skipErr.Reason, "value", skipErr.Value)
		return
	}
	m.stats.recordError(m.config.ErrorSampleSize, format, err)
}

func (m *Migrator) enter(stage Stage) {
	m.stage = stage
	slog.Debug("Migration stage", "stage", stage)
}

func (m *Migrator) logFinalStatistics(ctx context.Context) {
	duration := m.stats.EndTime.Sub(m.stats.StartTime)

	logLevel := slog.LevelInfo
	if m.stats.ErrorCount > 0 {
		logLevel = slog.LevelWarn
	}

	logFields := []any{
		"duration", duration,
		"user_source", m.stats.UserSource,
		"users_processed", m.stats.UsersProcessed,
		"users_migrated", m.stats.UsersMigrated,
		"users_skipped", m.stats.UsersSkipped,
		"transaction_source", m.stats.TransactionSource,
		"transactions_processed", m.stats.TransactionsProcessed,
		"transactions_migrated", m.stats.TransactionsMigrated,
		"transactions_skipped", m.stats.TransactionsSkipped,
		"unresolved_users", m.stats.UnresolvedUsers,
		"errors_encountered", m.stats.ErrorCount,
	}

	if m.stats.ErrorCount > 0 {
		slog.Log(ctx, logLevel, "Migration completed with errors", logFields...)
	} else {
		slog.Log(ctx, logLevel, "Migration completed successfully", logFields...)
	}
}

// Stage returns the stage the migrator is in
func (m *Migrator) Stage() Stage {
	return m.stage
}

// GetStatistics returns the current migration statistics
func (m *Migrator) GetStatistics() Statistics {
	return m.stats
}
