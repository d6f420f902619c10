// Package analyze summarises the structure and volume of a SQL dump before
// it is migrated.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/extract"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/parser"
)

const maxSamples = 3

var (
	createTablePattern = regexp.MustCompile("(?i)^CREATE\\s+TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?(?:[`\"]?\\w+[`\"]?\\.)?[`\"]?(\\w+)[`\"]?")
	columnPattern      = regexp.MustCompile("^[`\"]?(\\w+)[`\"]?\\s+(\\w+(?:\\(\\d+(?:,\\s*\\d+)?\\))?)\\s*(.*)$")
	constraintPattern  = regexp.MustCompile(`(?i)^(PRIMARY\s+KEY|UNIQUE|KEY|INDEX|CONSTRAINT|FULLTEXT|FOREIGN\s+KEY|CHECK)\b`)
	enginePattern      = regexp.MustCompile(`(?i)ENGINE\s*=\s*(\w+)`)
	charsetPattern     = regexp.MustCompile(`(?i)(?:CHARSET|CHARACTER\s+SET)\s*=?\s*(\w+)`)
	defaultPattern     = regexp.MustCompile(`(?i)DEFAULT\s+('(?:[^'\\]|\\.)*'|[^,\s]+)`)
)

// Column is one column definition from a CREATE TABLE
type Column struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Nullable      bool   `json:"nullable"`
	PrimaryKey    bool   `json:"isPrimaryKey"`
	AutoIncrement bool   `json:"isAutoIncrement"`
	Default       string `json:"defaultValue,omitempty"`
}

// Table is everything learned about one table
type Table struct {
	Name             string   `json:"name"`
	Columns          []Column `json:"columns"`
	Constraints      []string `json:"constraints"`
	Engine           string   `json:"engine,omitempty"`
	Charset          string   `json:"charset,omitempty"`
	InsertStatements int      `json:"insertStatements"`
	Rows             int      `json:"rows"`
	Samples          []string `json:"sampleData"`
}

// Hints point at the tables a migration will care about
type Hints struct {
	UserTables        []string            `json:"userTables"`
	TransactionTables []string            `json:"transactionTables"`
	PasswordColumns   map[string][]string `json:"passwordColumns"`
}

// FileInfo describes the analysed dump
type FileInfo struct {
	Path        string `json:"path"`
	TotalLines  int    `json:"totalLines"`
	TablesFound int    `json:"tablesFound"`
}

// Analysis is the document written to sql-dump-analysis.json
type Analysis struct {
	FileInfo FileInfo `json:"fileInfo"`
	Tables   []*Table `json:"tables"`
	Hints    Hints    `json:"migrationHints"`
}

// Analyzer scans a dump for table definitions and insert volume
type Analyzer struct {
	ProgressInterval int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{ProgressInterval: 10000}
}

// Analyze reads the dump at path
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}
	defer file.Close()

	return a.AnalyzeStream(ctx, file, path)
}

// AnalyzeStream reads a dump from r
func (a *Analyzer) AnalyzeStream(ctx context.Context, r io.Reader, source string) (*Analysis, error) {
	s := &scan{
		analysis: &Analysis{FileInfo: FileInfo{Path: source}},
		byName:   make(map[string]*Table),
	}

	scanner := parser.NewLineScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.analysis.FileInfo.TotalLines++
		if a.ProgressInterval > 0 && s.analysis.FileInfo.TotalLines%a.ProgressInterval == 0 {
			slog.Info("Analysis progress", "lines", s.analysis.FileInfo.TotalLines, "tables", len(s.byName))
		}
		s.line(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dump file: %w", err)
	}

	s.analysis.FileInfo.TablesFound = len(s.analysis.Tables)
	s.analysis.Hints = hints(s.analysis.Tables)
	return s.analysis, nil
}

type scan struct {
	analysis *Analysis
	byName   map[string]*Table
	current  *Table
}

func (s *scan) table(name string) *Table {
	name = strings.ToLower(name)
	if t, ok := s.byName[name]; ok {
		return t
	}
	t := &Table{Name: name, Columns: []Column{}, Constraints: []string{}, Samples: []string{}}
	s.byName[name] = t
	s.analysis.Tables = append(s.analysis.Tables, t)
	return t
}

func (s *scan) line(line string) {
	switch {
	case line == "", strings.HasPrefix(line, "--"), strings.HasPrefix(line, "/*"), strings.HasPrefix(line, "#"):
		return
	case createTablePattern.MatchString(line):
		s.createTable(line)
		return
	}

	if stmt, ok := parser.ParseInsertLine(line); ok {
		s.current = nil
		s.insert(stmt)
		return
	}
	if s.current != nil {
		s.definition(line)
	}
}

func (s *scan) createTable(line string) {
	m := createTablePattern.FindStringSubmatch(line)
	t := s.table(m[1])
	s.current = t

	// single-line definition
	open, end := strings.IndexByte(line, '('), strings.LastIndexByte(line, ')')
	if open < 0 || end < open {
		return
	}
	for _, def := range parser.SplitTuple(line[open : end+1]) {
		s.definition(def)
	}
	s.tableOptions(line[end:])
}

func (s *scan) definition(line string) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ",")
	if strings.HasPrefix(line, ")") {
		s.tableOptions(line)
		return
	}

	t := s.current
	if constraintPattern.MatchString(line) {
		t.Constraints = append(t.Constraints, line)
		return
	}

	m := columnPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	modifiers := strings.ToUpper(m[3])
	col := Column{
		Name:          m[1],
		Type:          m[2],
		Nullable:      !strings.Contains(modifiers, "NOT NULL"),
		PrimaryKey:    strings.Contains(modifiers, "PRIMARY KEY") || strings.Contains(modifiers, "AUTO_INCREMENT"),
		AutoIncrement: strings.Contains(modifiers, "AUTO_INCREMENT"),
	}
	if d := defaultPattern.FindStringSubmatch(m[3]); d != nil {
		col.Default = d[1]
	}
	t.Columns = append(t.Columns, col)
}

func (s *scan) tableOptions(line string) {
	if m := enginePattern.FindStringSubmatch(line); m != nil {
		s.current.Engine = m[1]
	}
	if m := charsetPattern.FindStringSubmatch(line); m != nil {
		s.current.Charset = m[1]
	}
	if strings.Contains(line, ";") {
		s.current = nil
	}
}

func (s *scan) insert(stmt parser.InsertStatement) {
	t := s.table(stmt.Table)
	t.InsertStatements++

	sets := parser.ParseValueSets(stmt.Values)
	t.Rows += len(sets)
	for _, tokens := range sets {
		if len(t.Samples) == maxSamples {
			break
		}
		t.Samples = append(t.Samples, strings.Join(tokens, ","))
	}
}

func hints(tables []*Table) Hints {
	h := Hints{
		UserTables:        []string{},
		TransactionTables: []string{},
		PasswordColumns:   make(map[string][]string),
	}

	for _, t := range tables {
		switch extract.Classify(t.Name).Kind() {
		case extract.KindUsers:
			h.UserTables = append(h.UserTables, t.Name)
		case extract.KindTransactions, extract.KindOrders, extract.KindPayments:
			h.TransactionTables = append(h.TransactionTables, t.Name)
		default:
			if strings.Contains(t.Name, "purchase") || strings.Contains(t.Name, "sale") {
				h.TransactionTables = append(h.TransactionTables, t.Name)
			}
		}

		for _, c := range t.Columns {
			name := strings.ToLower(c.Name)
			if strings.Contains(name, "pass") || strings.Contains(name, "pwd") {
				h.PasswordColumns[t.Name] = append(h.PasswordColumns[t.Name], c.Name)
			}
		}
	}
	return h
}
