package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

// LoadFiles rebuilds a Result from the files WriteFiles produced
func LoadFiles(dir string) (*Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, collectionFilePrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted files: %w", err)
	}

	var summary Summary
	summaryPath := filepath.Join(dir, summaryFileName)
	data, err := os.ReadFile(summaryPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &summary); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", summaryFileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if len(paths) == 0 {
			return nil, fmt.Errorf("no extracted collections in %s", dir)
		}
	default:
		return nil, fmt.Errorf("failed to read %s: %w", summaryFileName, err)
	}

	result := newResult(summary.SourceFile)
	result.ExtractedAt = summary.ExtractionDate

	for _, name := range loadOrder(paths, summary.Order) {
		rows, err := readRows(filepath.Join(dir, CollectionFileName(name)))
		if err != nil {
			return nil, err
		}
		key := KeyFromName(name)
		for _, row := range rows {
			result.add(key, row)
		}
	}

	return result, nil
}

// loadOrder lists the collection names found in paths, in the order the
// extraction created them. Files the summary does not mention follow in
// name order.
func loadOrder(paths []string, order []string) []string {
	present := make(map[string]bool, len(paths))
	var rest []string
	for _, path := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), collectionFilePrefix), ".json")
		present[name] = true
		rest = append(rest, name)
	}

	names := make([]string, 0, len(paths))
	for _, name := range order {
		if present[name] {
			names = append(names, name)
			delete(present, name)
		}
	}

	sort.Strings(rest)
	for _, name := range rest {
		if present[name] {
			names = append(names, name)
		}
	}
	return names
}

func readRows(path string) ([]*types.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rows []*types.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// RowSource is a KV store holding a previous extraction
type RowSource interface {
	ReadSummary(ctx context.Context) (map[string]int, error)
	GetRows(ctx context.Context, collection string, start, stop int64) ([]json.RawMessage, error)
}

const bufferPageSize = 1000

// LoadBuffer rebuilds a Result from rows mirrored into a KV store
func LoadBuffer(ctx context.Context, src RowSource, source string) (*Result, error) {
	counts, err := src.ReadSummary(ctx)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no extraction found in KV buffer")
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ki, kj := KeyFromName(names[i]), KeyFromName(names[j])
		if (ki.Kind() == KindOther) != (kj.Kind() == KindOther) {
			return ki.Kind() != KindOther
		}
		if ki.Kind() != kj.Kind() {
			return ki.Kind() < kj.Kind()
		}
		return names[i] < names[j]
	})

	result := newResult(source)
	for _, name := range names {
		key := KeyFromName(name)
		for start := int64(0); start < int64(counts[name]); start += bufferPageSize {
			raw, err := src.GetRows(ctx, name, start, start+bufferPageSize-1)
			if err != nil {
				return nil, err
			}
			for _, data := range raw {
				var row types.Row
				if err := json.Unmarshal(data, &row); err != nil {
					return nil, fmt.Errorf("failed to decode %s row: %w", name, err)
				}
				result.add(key, &row)
			}
			if len(raw) < bufferPageSize {
				break
			}
		}
	}
	return result, nil
}
