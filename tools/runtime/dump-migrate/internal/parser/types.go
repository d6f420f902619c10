package parser

import (
	"context"
	"time"
)

// InsertStatement is the prefix of one INSERT INTO line, before the
// VALUES clause is tokenized
type InsertStatement struct {
	Table   string
	Columns []string
	Values  string
}

// DMLStatement represents one INSERT line with its value sets split into
// raw tokens (multiple rows for extended inserts)
type DMLStatement struct {
	Line         int
	Table        string
	ColumnNames  []string
	ColumnValues [][]string
}

// ParseMetadata contains counters about a scanned dump
type ParseMetadata struct {
	SourceFile   string
	ParsedAt     time.Time
	LinesRead    int
	InsertLines  int
	LinesSkipped int
	RowsParsed   int
	RowsCapped   int
	TablesFound  []string
}

// StatementHandler receives every accepted INSERT line in file order.
// Returning an error stops the scan.
type StatementHandler func(stmt DMLStatement) error

// Parser interface for dump file parsers
type Parser interface {
	Parse(ctx context.Context, filename string, fn StatementHandler) (*ParseMetadata, error)
}
