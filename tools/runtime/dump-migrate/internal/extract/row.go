package extract

import (
	"fmt"
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/parser"
)

// BuildRow coerces one tuple into a row. Without a column list the fields
// are named field_0, field_1, ...; with one, the row is truncated to the
// shorter of columns and tokens.
func BuildRow(table string, columns []string, tokens []string) *types.Row {
	row := types.NewRow(table)

	if len(columns) == 0 {
		for i, token := range tokens {
			row.Set(fmt.Sprintf("field_%d", i), parser.Coerce(token))
		}
		return row
	}

	n := min(len(columns), len(tokens))
	for i := 0; i < n; i++ {
		row.Set(strings.ToLower(columns[i]), parser.Coerce(tokens[i]))
	}
	return row
}
