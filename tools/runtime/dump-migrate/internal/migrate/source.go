package migrate

import (
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/extract"
)

var (
	userLikeKeys        = []string{"email", "username", "password", "user_email", "user_name"}
	transactionLikeKeys = []string{"amount", "price", "total", "cost", "value", "payment"}
)

// userSource picks the collection to migrate users from
func userSource(result *extract.Result) *extract.Collection {
	if c := result.Collection(extract.Users); c != nil && c.Len() > 0 {
		return c
	}
	return firstOther(result, userLikeKeys)
}

// transactionSource picks the collection to migrate transactions from
func transactionSource(result *extract.Result) *extract.Collection {
	for _, key := range []extract.CollectionKey{extract.Transactions, extract.Orders, extract.Payments} {
		if c := result.Collection(key); c != nil && c.Len() > 0 {
			return c
		}
	}
	return firstOther(result, transactionLikeKeys)
}

func firstOther(result *extract.Result, keys []string) *extract.Collection {
	for _, c := range result.Collections() {
		if c.Key.Kind() != extract.KindOther || c.Len() == 0 {
			continue
		}
		if hasKeyLike(c.First(), keys) {
			return c
		}
	}
	return nil
}

func hasKeyLike(row *types.Row, fragments []string) bool {
	for _, key := range row.Keys() {
		if key == types.TableKey {
			continue
		}
		lower := strings.ToLower(key)
		for _, f := range fragments {
			if strings.Contains(lower, f) {
				return true
			}
		}
	}
	return false
}
