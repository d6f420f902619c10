package parser

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseInsertLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantOK     bool
		wantTable  string
		wantCols   []string
		wantValues string
	}{
		{
			name:       "backticked table with columns",
			line:       "INSERT INTO `users` (`id`, `name`, `email`) VALUES (1,'John','john@example.com');",
			wantOK:     true,
			wantTable:  "users",
			wantCols:   []string{"id", "name", "email"},
			wantValues: "(1,'John','john@example.com');",
		},
		{
			name:       "bare table without columns",
			line:       "INSERT INTO users VALUES (1, 'John');",
			wantOK:     true,
			wantTable:  "users",
			wantValues: "(1, 'John');",
		},
		{
			name:       "lowercase keywords and mixed case table",
			line:       "insert into `Legacy_Users` values (1);",
			wantOK:     true,
			wantTable:  "legacy_users",
			wantValues: "(1);",
		},
		{
			name:       "double-quoted identifiers",
			line:       `INSERT INTO "orders" ("id","total") VALUES (1,9.5);`,
			wantOK:     true,
			wantTable:  "orders",
			wantCols:   []string{"id", "total"},
			wantValues: "(1,9.5);",
		},
		{
			name:       "schema qualified table",
			line:       "INSERT INTO `shop`.`orders` VALUES (1);",
			wantOK:     true,
			wantTable:  "orders",
			wantValues: "(1);",
		},
		{
			name:       "values glued to keyword",
			line:       "INSERT INTO t(a) VALUES(1)",
			wantOK:     true,
			wantTable:  "t",
			wantCols:   []string{"a"},
			wantValues: "(1)",
		},
		{
			name:   "missing VALUES",
			line:   "INSERT INTO `users` SELECT * FROM old_users;",
			wantOK: false,
		},
		{
			name:   "missing table",
			line:   "INSERT INTO (1,2);",
			wantOK: false,
		},
		{
			name:   "not an insert",
			line:   "CREATE TABLE `users` (",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, ok := ParseInsertLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseInsertLine() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if stmt.Table != tt.wantTable {
				t.Errorf("table = %v, want %v", stmt.Table, tt.wantTable)
			}
			if !reflect.DeepEqual(stmt.Columns, tt.wantCols) {
				t.Errorf("columns = %v, want %v", stmt.Columns, tt.wantCols)
			}
			if stmt.Values != tt.wantValues {
				t.Errorf("values = %q, want %q", stmt.Values, tt.wantValues)
			}
		})
	}
}

const sampleDump = `-- MySQL dump 10.13
/*!40101 SET NAMES utf8 */;
DROP TABLE IF EXISTS ` + "`legacy_users`" + `;
CREATE TABLE ` + "`legacy_users`" + ` (
  ` + "`UserID`" + ` int(11) NOT NULL AUTO_INCREMENT,
  PRIMARY KEY (` + "`UserID`" + `)
) ENGINE=InnoDB;
INSERT INTO ` + "`legacy_users`" + ` (` + "`UserID`" + `,` + "`Email`" + `) VALUES (1,'a@x.com'),(2,'b@x.com');
INSERT INTO ` + "`legacy_orders`" + ` VALUES (10,'a@x.com',19.99);
INSERT INTO ` + "`broken`" + ` SELECT 1;
INSERT INTO ` + "`legacy_users`" + ` (` + "`UserID`" + `,` + "`Email`" + `) VALUES (3,'c@x.com');
`

func collect(t *testing.T, p *DumpParser, input string) ([]DMLStatement, *ParseMetadata) {
	t.Helper()
	var got []DMLStatement
	meta, err := p.ParseStream(context.Background(), strings.NewReader(input), func(stmt DMLStatement) error {
		got = append(got, stmt)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseStream() error = %v", err)
	}
	return got, meta
}

func TestDumpParser_ParseStream(t *testing.T) {
	stmts, meta := collect(t, NewDumpParser(), sampleDump)

	if len(stmts) != 3 {
		t.Fatalf("statements = %d, want 3", len(stmts))
	}
	if stmts[0].Table != "legacy_users" || len(stmts[0].ColumnValues) != 2 {
		t.Errorf("first statement = %+v, want 2 legacy_users rows", stmts[0])
	}
	if !reflect.DeepEqual(stmts[0].ColumnNames, []string{"UserID", "Email"}) {
		t.Errorf("columns = %v, want [UserID Email]", stmts[0].ColumnNames)
	}
	if stmts[1].ColumnNames != nil {
		t.Errorf("positional insert columns = %v, want nil", stmts[1].ColumnNames)
	}
	if stmts[1].Line != 9 {
		t.Errorf("legacy_orders line = %d, want 9", stmts[1].Line)
	}

	if meta.LinesRead != 11 {
		t.Errorf("LinesRead = %d, want 11", meta.LinesRead)
	}
	if meta.InsertLines != 3 {
		t.Errorf("InsertLines = %d, want 3", meta.InsertLines)
	}
	if meta.LinesSkipped != 1 {
		t.Errorf("LinesSkipped = %d, want 1", meta.LinesSkipped)
	}
	if meta.RowsParsed != 4 {
		t.Errorf("RowsParsed = %d, want 4", meta.RowsParsed)
	}
	if !reflect.DeepEqual(meta.TablesFound, []string{"legacy_users", "legacy_orders"}) {
		t.Errorf("TablesFound = %v", meta.TablesFound)
	}
}

func TestDumpParser_MaxRowsPerTable(t *testing.T) {
	p := NewDumpParser()
	p.MaxRowsPerTable = 1

	stmts, meta := collect(t, p, sampleDump)

	var users int
	for _, s := range stmts {
		if s.Table == "legacy_users" {
			users += len(s.ColumnValues)
		}
	}
	if users != 1 {
		t.Errorf("legacy_users rows = %d, want 1", users)
	}
	if meta.RowsCapped != 2 {
		t.Errorf("RowsCapped = %d, want 2", meta.RowsCapped)
	}
}

func TestDumpParser_TableFilter(t *testing.T) {
	p := NewDumpParser()
	p.Tables = map[string]bool{"legacy_orders": true}

	stmts, _ := collect(t, p, sampleDump)
	if len(stmts) != 1 || stmts[0].Table != "legacy_orders" {
		t.Errorf("statements = %+v, want only legacy_orders", stmts)
	}
}

func TestDumpParser_HandlerErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	_, err := NewDumpParser().ParseStream(context.Background(), strings.NewReader(sampleDump), func(DMLStatement) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("ParseStream() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestDumpParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDumpParser().ParseStream(ctx, strings.NewReader(sampleDump), func(DMLStatement) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ParseStream() error = %v, want context.Canceled", err)
	}
}

func TestDumpParser_LongLine(t *testing.T) {
	var b strings.Builder
	b.WriteString("INSERT INTO `logs` VALUES ")
	for i := 0; i < 20000; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(1,'some fairly long log message to push the line past the default buffer')")
	}
	b.WriteString(";\n")

	_, meta := collect(t, NewDumpParser(), b.String())
	if meta.RowsParsed != 20000 {
		t.Errorf("RowsParsed = %d, want 20000", meta.RowsParsed)
	}
}

func TestDumpParser_ParseMissingFile(t *testing.T) {
	_, err := NewDumpParser().Parse(context.Background(), "does-not-exist.sql", func(DMLStatement) error { return nil })
	if err == nil {
		t.Error("Parse() expected error for missing file")
	}
}
