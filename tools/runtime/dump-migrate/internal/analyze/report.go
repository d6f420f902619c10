package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ReportFileName is where WriteJSON output lands by default
const ReportFileName = "sql-dump-analysis.json"

// WriteJSON writes the analysis as indented JSON
func WriteJSON(path string, a *Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrintReport writes the human-readable analysis
func PrintReport(w io.Writer, a *Analysis) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nSQL DUMP ANALYSIS REPORT\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nFile: %s\n", a.FileInfo.Path)
	fmt.Fprintf(w, "  Total lines processed: %d\n", a.FileInfo.TotalLines)
	fmt.Fprintf(w, "  Tables found: %d\n", a.FileInfo.TablesFound)

	fmt.Fprintf(w, "\nTables:\n")
	for _, t := range a.Tables {
		engine := t.Engine
		if engine == "" {
			engine = "unknown"
		}
		fmt.Fprintf(w, "\n  %s (%d columns, %d rows in %d inserts, engine %s)\n",
			t.Name, len(t.Columns), t.Rows, t.InsertStatements, engine)

		for _, c := range t.Columns {
			var flags []string
			if c.PrimaryKey {
				flags = append(flags, "PK")
			}
			if c.AutoIncrement {
				flags = append(flags, "AI")
			}
			if !c.Nullable {
				flags = append(flags, "NOT NULL")
			}
			if c.Default != "" {
				flags = append(flags, "DEFAULT "+c.Default)
			}
			fmt.Fprintf(w, "    - %s (%s) %s\n", c.Name, c.Type, strings.Join(flags, ", "))
		}
		for _, c := range t.Constraints {
			fmt.Fprintf(w, "    * %s\n", c)
		}
		for i, sample := range t.Samples {
			if i == 2 {
				break
			}
			if len(sample) > 100 {
				sample = sample[:100] + "..."
			}
			fmt.Fprintf(w, "    %d. %s\n", i+1, sample)
		}
	}

	total := 0
	fmt.Fprintf(w, "\nData volume:\n")
	for _, t := range a.Tables {
		if t.Rows == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %d rows\n", t.Name, t.Rows)
		total += t.Rows
	}
	fmt.Fprintf(w, "  TOTAL: %d rows\n", total)

	fmt.Fprintf(w, "\nMigration hints:\n")
	if len(a.Hints.UserTables) > 0 {
		fmt.Fprintf(w, "  Potential user tables: %s\n", strings.Join(a.Hints.UserTables, ", "))
	}
	if len(a.Hints.TransactionTables) > 0 {
		fmt.Fprintf(w, "  Potential transaction tables: %s\n", strings.Join(a.Hints.TransactionTables, ", "))
	}
	if len(a.Hints.PasswordColumns) > 0 {
		tables := make([]string, 0, len(a.Hints.PasswordColumns))
		for name := range a.Hints.PasswordColumns {
			tables = append(tables, name)
		}
		sort.Strings(tables)
		parts := make([]string, len(tables))
		for i, name := range tables {
			parts[i] = fmt.Sprintf("%s (%s)", name, strings.Join(a.Hints.PasswordColumns[name], ", "))
		}
		fmt.Fprintf(w, "  Tables with passwords: %s\n", strings.Join(parts, ", "))
	}
}
