package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SWASSFinance/uoking-sub001/pkg/kvbuffer"
	"github.com/SWASSFinance/uoking-sub001/pkg/version"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/analyze"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/config"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/extract"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/migrate"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/store"
)

var (
	configFile       string
	dumpFile         string
	outputDir        string
	databaseURL      string
	kvURL            string
	tables           []string
	maxRowsPerTable  int
	progressInterval int
	errorSampleSize  int
	ensureSchema     bool
	fromExtracted    string
	fromKV           bool
	verbose          bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dump-migrate",
		Short: "Extract and migrate legacy shop data from MySQL dump files",
		Long: `dump-migrate reads a legacy MySQL .sql dump, extracts the rows of every INSERT
statement into typed collections, and migrates users and transactions into the
storefront database. Without --dump-file the largest .sql file in the working
directory (excluding schema.sql) is used.`,
		PersistentPreRunE: setupLogging,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML config (default dump-migrate.yml if present)")
	flags.StringVarP(&dumpFile, "dump-file", "d", "", "Path to SQL dump file")
	flags.StringVarP(&outputDir, "output-dir", "o", ".", "Directory for extracted JSON and analysis files")
	flags.StringVar(&databaseURL, "database-url", "", "Destination database URL (default $POSTGRES_URL or $DATABASE_URL)")
	flags.StringVarP(&kvURL, "kv-url", "k", "", "Redis URL to mirror extracted rows into (default $KV_URL)")
	flags.StringSliceVarP(&tables, "tables", "t", nil, "Only extract these tables (comma-separated)")
	flags.IntVarP(&maxRowsPerTable, "max-rows-per-table", "m", 0, "Maximum rows per table (0 = no limit)")
	flags.IntVarP(&progressInterval, "progress-interval", "p", 5000, "Log progress every N lines")
	flags.IntVar(&errorSampleSize, "error-sample-size", 100, "Number of migration errors kept for the report")
	flags.BoolVar(&ensureSchema, "ensure-schema", false, "Create the users and transactions tables if missing")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate users and transactions into the destination database",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().StringVar(&fromExtracted, "from-extracted", "", "Load collections from a previous extract output directory")
	migrateCmd.Flags().BoolVar(&fromKV, "from-kv", false, "Load collections mirrored into the KV buffer by a previous extract")
	migrateCmd.MarkFlagsMutuallyExclusive("from-extracted", "from-kv")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "extract",
			Short: "Extract INSERT rows into extracted-<collection>.json files",
			RunE:  runExtract,
		},
		migrateCmd,
		&cobra.Command{
			Use:   "run",
			Short: "Extract, write JSON files, then migrate in one pass",
			RunE:  runAll,
		},
		&cobra.Command{
			Use:   "analyze",
			Short: "Report table structures and data volume of a dump",
			RunE:  runAnalyze,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "dump-migrate", version.Info())
			},
		},
	)

	return rootCmd
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: verbose,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig merges defaults, the YAML file, .env, the environment and the
// flags that were set explicitly, in that order
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("dump-file") {
		cfg.DumpFile = dumpFile
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("kv-url") {
		cfg.KVURL = kvURL
	}
	if flags.Changed("tables") {
		cfg.Tables = tables
	}
	if flags.Changed("max-rows-per-table") {
		cfg.MaxRowsPerTable = maxRowsPerTable
	}
	if flags.Changed("progress-interval") {
		cfg.ProgressInterval = progressInterval
	}
	if flags.Changed("error-sample-size") {
		cfg.ErrorSampleSize = errorSampleSize
	}
	if flags.Changed("ensure-schema") {
		cfg.EnsureSchema = ensureSchema
	}

	slog.Info("Starting dump-migrate",
		"command", cmd.Name(),
		"version", version.Version,
		"commit", version.GitCommit,
		"built", version.BuildDate,
		"dump_file", cfg.DumpFile,
		"output_dir", cfg.OutputDir,
		"tables", cfg.Tables,
		"max_rows_per_table", cfg.MaxRowsPerTable,
		"progress_interval", cfg.ProgressInterval,
		"kv_buffer", cfg.KVURL != "",
		"verbose", verbose,
	)
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			slog.Warn("Received shutdown signal, stopping after the current record...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func resolveDumpFile(cfg *config.Config) (string, error) {
	if cfg.DumpFile == "" {
		path, err := extract.LocateDump(".", cfg.ExcludeFiles)
		if err != nil {
			return "", err
		}
		slog.Info("Using largest dump in working directory", "path", path)
		return path, nil
	}

	if _, err := os.Stat(cfg.DumpFile); errors.Is(err, os.ErrNotExist) {
		slog.Error("Dump file does not exist", "path", cfg.DumpFile)
		return "", fmt.Errorf("%w: %s", extract.ErrNoDumpFile, cfg.DumpFile)
	}
	return cfg.DumpFile, nil
}

func openKVBuffer(cfg *config.Config) (*kvbuffer.KVBuffer, error) {
	if cfg.KVURL == "" {
		return nil, nil
	}
	kv, err := kvbuffer.NewKVBuffer(cfg.KVURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to KV buffer: %w", err)
	}
	return kv, nil
}

// extractDump runs the EXTRACT stage. When writeFiles is set the JSON files
// and console summary are produced as well.
func extractDump(ctx context.Context, cfg *config.Config, writeFiles bool) (*extract.Result, error) {
	path, err := resolveDumpFile(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := openKVBuffer(cfg)
	if err != nil {
		return nil, err
	}
	var sink extract.Sink
	if kv != nil {
		defer kv.Close()
		if err := kv.Reset(ctx); err != nil {
			return nil, err
		}
		sink = kv
	}

	extractor := extract.NewExtractor(extract.Config{
		Tables:           cfg.Tables,
		MaxRowsPerTable:  cfg.MaxRowsPerTable,
		ProgressInterval: cfg.ProgressInterval,
	}, sink)

	result, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	if writeFiles {
		written, err := extract.WriteFiles(cfg.OutputDir, result)
		if err != nil {
			return nil, err
		}
		slog.Info("Wrote extraction files", "dir", cfg.OutputDir, "files", len(written))
		extract.PrintSummary(os.Stdout, result)
	}
	return result, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if _, err := extractDump(ctx, cfg, true); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var load migrate.LoadFunc
	switch {
	case fromExtracted != "":
		load = func(context.Context) (*extract.Result, error) {
			return extract.LoadFiles(fromExtracted)
		}
	case fromKV:
		load = func(ctx context.Context) (*extract.Result, error) {
			if cfg.KVURL == "" {
				return nil, errors.New("--from-kv needs --kv-url or KV_URL")
			}
			kv, err := openKVBuffer(cfg)
			if err != nil {
				return nil, err
			}
			defer kv.Close()
			return extract.LoadBuffer(ctx, kv, "kv-buffer")
		}
	default:
		load = func(ctx context.Context) (*extract.Result, error) {
			return extractDump(ctx, cfg, false)
		}
	}

	return migrateWith(ctx, cfg, load)
}

func runAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	return migrateWith(ctx, cfg, func(ctx context.Context) (*extract.Result, error) {
		return extractDump(ctx, cfg, true)
	})
}

func migrateWith(ctx context.Context, cfg *config.Config, load migrate.LoadFunc) error {
	dbURL, err := cfg.RequireDatabaseURL()
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to destination: %w", err)
	}
	defer db.Close()

	if cfg.EnsureSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		slog.Info("Destination schema ready", "dialect", db.Dialect().Name())
	}

	migrator := migrate.NewMigrator(db, migrate.Config{
		Rules:            cfg.Rules,
		ErrorSampleSize:  cfg.ErrorSampleSize,
		ProgressInterval: 100,
		Report:           os.Stdout,
	})

	if err := migrator.Run(ctx, load); err != nil {
		return fmt.Errorf("migration failed at %s: %w", migrator.Stage(), err)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	path, err := resolveDumpFile(cfg)
	if err != nil {
		return err
	}

	analyzer := analyze.NewAnalyzer()
	if cfg.ProgressInterval > 0 {
		analyzer.ProgressInterval = cfg.ProgressInterval
	}
	analysis, err := analyzer.Analyze(ctx, path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	analyze.PrintReport(os.Stdout, analysis)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out := filepath.Join(cfg.OutputDir, analyze.ReportFileName)
	if err := analyze.WriteJSON(out, analysis); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nDetailed analysis saved to: %s\n", out)
	return nil
}
