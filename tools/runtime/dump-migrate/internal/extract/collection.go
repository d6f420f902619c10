package extract

import (
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

// Kind is the routing bucket of a collection
type Kind int

const (
	KindOther Kind = iota
	KindUsers
	KindTransactions
	KindOrders
	KindPayments
)

// CollectionKey names a collection: one of the four canonical buckets or
// Other(table) for anything unrecognised
type CollectionKey struct {
	kind  Kind
	table string
}

var (
	Users        = CollectionKey{kind: KindUsers}
	Transactions = CollectionKey{kind: KindTransactions}
	Orders       = CollectionKey{kind: KindOrders}
	Payments     = CollectionKey{kind: KindPayments}
)

// Canonical lists the collections every extraction starts with
var Canonical = []CollectionKey{Users, Transactions, Orders, Payments}

// Other returns the fallback key for a table
func Other(table string) CollectionKey {
	return CollectionKey{kind: KindOther, table: strings.ToLower(table)}
}

func (k CollectionKey) Kind() Kind { return k.kind }

// Name is the collection name used in file names, Redis keys and summaries
func (k CollectionKey) Name() string {
	switch k.kind {
	case KindUsers:
		return "users"
	case KindTransactions:
		return "transactions"
	case KindOrders:
		return "orders"
	case KindPayments:
		return "payments"
	default:
		return k.table
	}
}

func (k CollectionKey) String() string { return k.Name() }

// routes are checked in order; the first substring hit wins, so
// user_transactions lands in users
var routes = []struct {
	key      CollectionKey
	patterns []string
}{
	{Users, []string{"user", "member", "customer", "account"}},
	{Transactions, []string{"transaction", "txn"}},
	{Orders, []string{"order"}},
	{Payments, []string{"payment", "pay"}},
}

// Classify routes a table name to its collection
func Classify(table string) CollectionKey {
	name := strings.ToLower(table)
	for _, route := range routes {
		for _, pattern := range route.patterns {
			if strings.Contains(name, pattern) {
				return route.key
			}
		}
	}
	return Other(name)
}

// KeyFromName is the inverse of CollectionKey.Name
func KeyFromName(name string) CollectionKey {
	for _, key := range Canonical {
		if key.Name() == name {
			return key
		}
	}
	return Other(name)
}

// Collection is an insertion-ordered list of rows
type Collection struct {
	Key  CollectionKey
	rows []*types.Row
}

func (c *Collection) Name() string { return c.Key.Name() }

func (c *Collection) Len() int { return len(c.rows) }

// Rows returns the rows in extraction order
func (c *Collection) Rows() []*types.Row {
	out := make([]*types.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// First returns the first row, or nil when the collection is empty
func (c *Collection) First() *types.Row {
	if len(c.rows) == 0 {
		return nil
	}
	return c.rows[0]
}

// SampleFields returns up to n column names of the first row, skipping
// the table marker
func (c *Collection) SampleFields(n int) []string {
	if len(c.rows) == 0 {
		return nil
	}
	var fields []string
	for _, key := range c.rows[0].Keys() {
		if key == types.TableKey {
			continue
		}
		if len(fields) == n {
			break
		}
		fields = append(fields, key)
	}
	return fields
}
