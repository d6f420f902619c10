package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

var (
	integerToken = regexp.MustCompile(`^[+-]?\d+$`)
	decimalToken = regexp.MustCompile(`^\d+\.\d+$`)
	unescaper    = strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`)
)

// Coerce converts one raw token into a typed value. Rules, first match wins:
// NULL, quoted string, integer, decimal, anything else passes through raw.
func Coerce(token string) types.Value {
	t := strings.TrimSpace(token)

	if strings.EqualFold(t, "NULL") {
		return types.Null()
	}

	if len(t) >= 2 {
		first, last := t[0], t[len(t)-1]
		if (first == '\'' || first == '"') && first == last {
			return types.String(unescaper.Replace(t[1 : len(t)-1]))
		}
	}

	if integerToken.MatchString(t) {
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return types.Int(i)
		}
		return types.Raw(t)
	}

	if decimalToken.MatchString(t) {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return types.Float(f)
		}
	}

	return types.Raw(t)
}
