package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// MaxLineSize bounds a single dump line; extended inserts can be very long
const MaxLineSize = 64 * 1024 * 1024

var (
	insertPrefix = regexp.MustCompile(`(?i)^INSERT\s+INTO\s+`)
	tableName    = regexp.MustCompile("^(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
	columnList   = regexp.MustCompile(`^\s*\(([^)]*)\)`)
	valuesWord   = regexp.MustCompile(`(?i)\bVALUES\b`)
)

// DumpParser streams a SQL dump line by line and reports INSERT statements
type DumpParser struct {
	MaxRowsPerTable  int             // 0 = no limit
	Tables           map[string]bool // empty = every table
	ProgressInterval int             // log every N lines, 0 disables
}

// NewDumpParser creates a new dump parser
func NewDumpParser() *DumpParser {
	return &DumpParser{
		ProgressInterval: 5000,
	}
}

// Parse scans a dump file from disk
func (p *DumpParser) Parse(ctx context.Context, filename string, fn StatementHandler) (*ParseMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file %s: %w", filename, err)
	}
	defer file.Close()

	meta, err := p.ParseStream(ctx, file, fn)
	if meta != nil {
		meta.SourceFile = filename
	}
	return meta, err
}

// ParseStream scans a dump from a reader without buffering more than one line
func (p *DumpParser) ParseStream(ctx context.Context, r io.Reader, fn StatementHandler) (*ParseMetadata, error) {
	scanner := NewLineScanner(r)

	meta := &ParseMetadata{
		ParsedAt:    time.Now(),
		TablesFound: make([]string, 0),
	}
	seen := make(map[string]bool)
	tableRowCounts := make(map[string]int)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return meta, err
		}

		meta.LinesRead++
		if p.ProgressInterval > 0 && meta.LinesRead%p.ProgressInterval == 0 {
			slog.Info("Scan progress",
				"lines", meta.LinesRead,
				"insert_lines", meta.InsertLines,
				"rows", meta.RowsParsed)
		}

		// Only INSERT lines carry data; comments, SET and DDL are ignored
		line := strings.TrimSpace(scanner.Text())
		if !insertPrefix.MatchString(line) {
			continue
		}

		// Malformed INSERTs are counted, never fatal
		stmt, ok := ParseInsertLine(line)
		if !ok {
			meta.LinesSkipped++
			continue
		}

		// Apply table filter
		if len(p.Tables) > 0 && !p.Tables[stmt.Table] {
			continue
		}

		// Parse multiple value sets (extended inserts) and apply the per-table limit
		var rows [][]string
		for _, valueSet := range ParseValueSets(stmt.Values) {
			if p.MaxRowsPerTable > 0 {
				tableRowCounts[stmt.Table]++
				if tableRowCounts[stmt.Table] > p.MaxRowsPerTable {
					meta.RowsCapped++
					continue
				}
			}
			rows = append(rows, valueSet)
		}

		meta.InsertLines++
		if len(rows) == 0 {
			continue
		}

		// Add table to found tables if not already present
		if !seen[stmt.Table] {
			seen[stmt.Table] = true
			meta.TablesFound = append(meta.TablesFound, stmt.Table)
		}
		meta.RowsParsed += len(rows)

		// Hand the statement to the caller
		err := fn(DMLStatement{
			Line:         meta.LinesRead,
			Table:        stmt.Table,
			ColumnNames:  stmt.Columns,
			ColumnValues: rows,
		})
		if err != nil {
			return meta, err
		}
	}

	if err := scanner.Err(); err != nil {
		return meta, fmt.Errorf("error reading dump file: %w", err)
	}

	return meta, nil
}

// NewLineScanner returns a scanner whose buffer grows up to MaxLineSize
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return scanner
}

// ParseInsertLine splits a trimmed `INSERT INTO` line into table, optional
// column list and the raw text after VALUES. It reports false when the
// line has no table name or no VALUES keyword.
func ParseInsertLine(line string) (InsertStatement, bool) {
	loc := insertPrefix.FindStringIndex(line)
	if loc == nil {
		return InsertStatement{}, false
	}
	rest := line[loc[1]:]

	m := tableName.FindStringSubmatchIndex(rest)
	if m == nil {
		return InsertStatement{}, false
	}
	stmt := InsertStatement{Table: strings.ToLower(rest[m[2]:m[3]])}
	rest = rest[m[1]:]

	if cols := columnList.FindStringSubmatchIndex(rest); cols != nil {
		stmt.Columns = splitColumns(rest[cols[2]:cols[3]])
		rest = rest[cols[1]:]
	}

	v := valuesWord.FindStringIndex(rest)
	if v == nil {
		return InsertStatement{}, false
	}
	stmt.Values = strings.TrimSpace(rest[v[1]:])

	return stmt, true
}

func splitColumns(list string) []string {
	var columns []string
	for _, col := range strings.Split(list, ",") {
		name := strings.Trim(strings.TrimSpace(col), "`\"")
		name = strings.TrimSpace(name)
		if name != "" {
			columns = append(columns, name)
		}
	}
	return columns
}
