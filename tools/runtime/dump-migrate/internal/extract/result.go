package extract

import (
	"time"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

// Result is the summary returned by an extraction. Collections are kept
// in creation order with the four canonical ones first.
type Result struct {
	SourceFile    string
	ExtractedAt   time.Time
	LinesRead     int
	InsertLines   int
	LinesSkipped  int
	RowsExtracted int
	SinkErrors    int

	collections []*Collection
	byName      map[string]*Collection
}

func newResult(source string) *Result {
	r := &Result{
		SourceFile: source,
		byName:     make(map[string]*Collection),
	}
	for _, key := range Canonical {
		r.collection(key)
	}
	return r
}

func (r *Result) collection(key CollectionKey) *Collection {
	if c, ok := r.byName[key.Name()]; ok {
		return c
	}
	c := &Collection{Key: key}
	r.byName[key.Name()] = c
	r.collections = append(r.collections, c)
	return c
}

func (r *Result) add(key CollectionKey, row *types.Row) {
	r.collection(key).rows = append(r.collection(key).rows, row)
	r.RowsExtracted++
}

// Collections returns every collection, empty canonical ones included
func (r *Result) Collections() []*Collection {
	out := make([]*Collection, len(r.collections))
	copy(out, r.collections)
	return out
}

// Collection returns the collection for key, or nil
func (r *Result) Collection(key CollectionKey) *Collection {
	return r.byName[key.Name()]
}

// Rows returns the rows of a collection, or nil when it does not exist
func (r *Result) Rows(key CollectionKey) []*types.Row {
	c := r.Collection(key)
	if c == nil {
		return nil
	}
	return c.Rows()
}

// Counts maps collection name to row count
func (r *Result) Counts() map[string]int {
	counts := make(map[string]int, len(r.collections))
	for _, c := range r.collections {
		counts[c.Name()] = c.Len()
	}
	return counts
}

func (r *Result) names() []string {
	names := make([]string, len(r.collections))
	for i, c := range r.collections {
		names[i] = c.Name()
	}
	return names
}

// Summary is the document written to extraction-summary.json
type Summary struct {
	ExtractionDate time.Time      `json:"extractionDate"`
	SourceFile     string         `json:"sourceFile"`
	Collections    map[string]int `json:"collections"`
	Order          []string       `json:"order,omitempty"` // collection names in creation order
}

func (r *Result) Summary() Summary {
	return Summary{
		ExtractionDate: r.ExtractedAt,
		SourceFile:     r.SourceFile,
		Collections:    r.Counts(),
		Order:          r.names(),
	}
}
