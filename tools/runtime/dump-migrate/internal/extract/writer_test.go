package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

func extractLegacy(t *testing.T) *Result {
	t.Helper()
	e := NewExtractor(Config{}, nil)
	fixedClock(e)
	result, err := e.ExtractStream(context.Background(), strings.NewReader(legacyDump), "legacy.sql")
	if err != nil {
		t.Fatalf("ExtractStream() error = %v", err)
	}
	return result
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	result := extractLegacy(t)

	written, err := WriteFiles(dir, result)
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	// users, orders, news, summary; empty transactions/payments are not written
	if len(written) != 4 {
		t.Errorf("WriteFiles() wrote %d files, want 4: %v", len(written), written)
	}
	if _, err := os.Stat(filepath.Join(dir, "extracted-transactions.json")); !os.IsNotExist(err) {
		t.Error("empty collection should not be written")
	}

	data, err := os.ReadFile(filepath.Join(dir, "extracted-users.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {\n    \"_table\": \"legacy_users\",") {
		t.Errorf("unexpected users file layout:\n%s", data)
	}

	var summary map[string]any
	data, err = os.ReadFile(filepath.Join(dir, "extraction-summary.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if summary["extractionDate"] != "2024-05-01T12:00:00Z" {
		t.Errorf("extractionDate = %v", summary["extractionDate"])
	}
	collections := summary["collections"].(map[string]any)
	if collections["payments"] != float64(0) {
		t.Errorf("collections.payments = %v, want 0", collections["payments"])
	}
}

func TestLoadFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := extractLegacy(t)
	if _, err := WriteFiles(dir, original); err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}

	loaded, err := LoadFiles(dir)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	if loaded.SourceFile != "legacy.sql" {
		t.Errorf("SourceFile = %q, want legacy.sql", loaded.SourceFile)
	}
	if !loaded.ExtractedAt.Equal(original.ExtractedAt) {
		t.Errorf("ExtractedAt = %v, want %v", loaded.ExtractedAt, original.ExtractedAt)
	}
	for name, want := range original.Counts() {
		if got := loaded.Counts()[name]; got != want {
			t.Errorf("Counts()[%s] = %d, want %d", name, got, want)
		}
	}

	row := loaded.Rows(Orders)[0]
	if v, _ := row.Get("price"); v != types.Float(19.99) {
		t.Errorf("price = %v, want 19.99", v)
	}
	if v, _ := row.Get("id"); v != types.Int(10) {
		t.Errorf("id = %v, want 10", v)
	}
	if row.Table() != "legacy_orders" {
		t.Errorf("Table() = %q, want legacy_orders", row.Table())
	}
}

func TestLoadFilesEmptyDir(t *testing.T) {
	if _, err := LoadFiles(t.TempDir()); err == nil {
		t.Error("LoadFiles() expected error for empty directory")
	}
}

func collectionNames(r *Result) []string {
	var names []string
	for _, c := range r.Collections() {
		names = append(names, c.Name())
	}
	return names
}

func TestLoadFilesKeepsCollectionOrder(t *testing.T) {
	const dump = "INSERT INTO `zeta_log` (`id`,`amount`) VALUES (1,5.00);\n" +
		"INSERT INTO `alpha_log` (`id`,`email`) VALUES (1,'a@x.com');\n"

	original, err := NewExtractor(Config{}, nil).ExtractStream(context.Background(), strings.NewReader(dump), "logs.sql")
	if err != nil {
		t.Fatalf("ExtractStream() error = %v", err)
	}
	dir := t.TempDir()
	if _, err := WriteFiles(dir, original); err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}

	loaded, err := LoadFiles(dir)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	want := strings.Join(collectionNames(original), ",")
	if got := strings.Join(collectionNames(loaded), ","); got != want {
		t.Errorf("collections = %s, want %s", got, want)
	}
}

func TestLoadOrder(t *testing.T) {
	paths := []string{"d/extracted-alpha.json", "d/extracted-users.json", "d/extracted-zeta.json", "d/extracted-beta.json"}
	got := loadOrder(paths, []string{"users", "orders", "zeta", "alpha"})
	want := "users,zeta,alpha,beta"
	if strings.Join(got, ",") != want {
		t.Errorf("loadOrder() = %v, want %s", got, want)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, extractLegacy(t))
	out := buf.String()

	for _, want := range []string{
		"rows extracted: 4",
		"users: 2 records",
		"sample fields: id, email, name",
		"news: 1 records",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintSummary() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "payments:") {
		t.Errorf("empty collection printed:\n%s", out)
	}
}

type memoryBuffer struct {
	rows map[string][]json.RawMessage
}

func (m *memoryBuffer) AddRow(_ context.Context, collection string, row *types.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if m.rows == nil {
		m.rows = make(map[string][]json.RawMessage)
	}
	m.rows[collection] = append(m.rows[collection], data)
	return nil
}

func (m *memoryBuffer) WriteSummary(context.Context, map[string]int) error { return nil }

func (m *memoryBuffer) ReadSummary(context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for name, rows := range m.rows {
		counts[name] = len(rows)
	}
	return counts, nil
}

func (m *memoryBuffer) GetRows(_ context.Context, collection string, start, stop int64) ([]json.RawMessage, error) {
	rows := m.rows[collection]
	if start >= int64(len(rows)) {
		return nil, nil
	}
	if stop >= int64(len(rows)) {
		stop = int64(len(rows)) - 1
	}
	return rows[start : stop+1], nil
}

func TestLoadBuffer(t *testing.T) {
	buf := &memoryBuffer{}
	e := NewExtractor(Config{}, buf)
	original, err := e.ExtractStream(context.Background(), strings.NewReader(legacyDump), "legacy.sql")
	if err != nil {
		t.Fatalf("ExtractStream() error = %v", err)
	}

	loaded, err := LoadBuffer(context.Background(), buf, "kv")
	if err != nil {
		t.Fatalf("LoadBuffer() error = %v", err)
	}
	for name, want := range original.Counts() {
		if got := loaded.Counts()[name]; got != want {
			t.Errorf("Counts()[%s] = %d, want %d", name, got, want)
		}
	}
	if v, _ := loaded.Rows(Users)[0].Get("email"); v != types.String("joe@x.com") {
		t.Errorf("users[0].email = %v, want joe@x.com", v)
	}
}

func TestLoadBufferEmpty(t *testing.T) {
	if _, err := LoadBuffer(context.Background(), &memoryBuffer{}, "kv"); err == nil {
		t.Error("LoadBuffer() expected error for empty buffer")
	}
}
