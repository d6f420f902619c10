package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	collectionFilePrefix = "extracted-"
	summaryFileName      = "extraction-summary.json"
)

// CollectionFileName returns the file a collection is written to
func CollectionFileName(name string) string {
	return collectionFilePrefix + name + ".json"
}

// WriteFiles writes one JSON array per non-empty collection plus the
// summary document into dir, and returns the paths written
func WriteFiles(dir string, result *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, c := range result.Collections() {
		if c.Len() == 0 {
			continue
		}
		path := filepath.Join(dir, CollectionFileName(c.Name()))
		if err := writeJSON(path, c.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	path := filepath.Join(dir, summaryFileName)
	if err := writeJSON(path, result.Summary()); err != nil {
		return written, err
	}
	written = append(written, path)

	return written, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes the human-readable extraction report
func PrintSummary(w io.Writer, result *Result) {
	fmt.Fprintf(w, "\nExtraction summary (%s)\n", result.SourceFile)
	fmt.Fprintf(w, "  lines read:     %d\n", result.LinesRead)
	fmt.Fprintf(w, "  insert lines:   %d\n", result.InsertLines)
	fmt.Fprintf(w, "  lines skipped:  %d\n", result.LinesSkipped)
	fmt.Fprintf(w, "  rows extracted: %d\n", result.RowsExtracted)

	for _, c := range result.Collections() {
		if c.Len() == 0 {
			continue
		}
		fmt.Fprintf(w, "\n  %s: %d records\n", c.Name(), c.Len())
		if fields := c.SampleFields(5); len(fields) > 0 {
			fmt.Fprintf(w, "    sample fields: %s\n", strings.Join(fields, ", "))
		}
	}
}
