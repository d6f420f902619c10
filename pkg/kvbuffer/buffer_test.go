package kvbuffer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v9"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

func testRow() *types.Row {
	row := types.NewRow("legacy_users")
	row.Set("userid", types.Int(7))
	row.Set("email", types.String("joe@x.com"))
	return row
}

func TestKVBuffer_AddRow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	row := testRow()
	data, _ := json.Marshal(row)

	mock.ExpectRPush("dump:rows:users", data).SetVal(1)
	mock.ExpectExpire("dump:rows:users", rowsTTL).SetVal(true)

	if err := kvBuffer.AddRow(context.Background(), "users", row); err != nil {
		t.Errorf("AddRow() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKVBuffer_AddRow_PushError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	row := testRow()
	data, _ := json.Marshal(row)

	mock.ExpectRPush("dump:rows:users", data).SetErr(errors.New("connection reset"))

	err := kvBuffer.AddRow(context.Background(), "users", row)
	if err == nil {
		t.Fatal("AddRow() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to add row to KV") {
		t.Errorf("AddRow() error = %v, want wrapped push error", err)
	}
}

func TestKVBuffer_WriteSummary(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}

	mock.ExpectHSet(summaryKey, map[string]interface{}{
		"users":  2,
		"orders": 5,
	}).SetVal(2)
	mock.ExpectExpire(summaryKey, rowsTTL).SetVal(true)

	err := kvBuffer.WriteSummary(context.Background(), map[string]int{"users": 2, "orders": 5})
	if err != nil {
		t.Errorf("WriteSummary() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKVBuffer_WriteSummary_Empty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	if err := kvBuffer.WriteSummary(context.Background(), nil); err != nil {
		t.Errorf("WriteSummary(nil) error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected commands: %v", err)
	}
}

func TestKVBuffer_Reset(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}

	// the second page holds a list from a run that never wrote its summary
	mock.ExpectScan(0, "dump:rows:*", scanCount).SetVal([]string{"dump:rows:users", "dump:rows:orders"}, 17)
	mock.ExpectScan(17, "dump:rows:*", scanCount).SetVal([]string{"dump:rows:news"}, 0)
	mock.ExpectDel(summaryKey, "dump:rows:users", "dump:rows:orders", "dump:rows:news").SetVal(3)

	if err := kvBuffer.Reset(context.Background()); err != nil {
		t.Errorf("Reset() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKVBuffer_ResetEmpty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}

	mock.ExpectScan(0, "dump:rows:*", scanCount).SetVal(nil, 0)
	mock.ExpectDel(summaryKey).SetVal(0)

	if err := kvBuffer.Reset(context.Background()); err != nil {
		t.Errorf("Reset() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestKVBuffer_GetRows(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	data, _ := json.Marshal(testRow())

	mock.ExpectLRange("dump:rows:users", 0, -1).SetVal([]string{string(data)})

	rows, err := kvBuffer.GetRows(context.Background(), "users", 0, -1)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("GetRows() returned %d rows, want 1", len(rows))
	}

	var row types.Row
	if err := json.Unmarshal(rows[0], &row); err != nil {
		t.Fatalf("failed to decode row: %v", err)
	}
	if v, _ := row.Get("email"); v.Text() != "joe@x.com" {
		t.Errorf("email = %v, want joe@x.com", v)
	}
}

func TestKVBuffer_ReadSummary(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	mock.ExpectHGetAll("dump:summary").SetVal(map[string]string{"users": "2", "orders": "0"})

	counts, err := kvBuffer.ReadSummary(context.Background())
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if counts["users"] != 2 || counts["orders"] != 0 || len(counts) != 2 {
		t.Errorf("ReadSummary() = %v", counts)
	}
}

func TestKVBuffer_ReadSummary_BadCount(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	kvBuffer := &KVBuffer{client: db}
	mock.ExpectHGetAll("dump:summary").SetVal(map[string]string{"users": "many"})

	if _, err := kvBuffer.ReadSummary(context.Background()); err == nil {
		t.Error("ReadSummary() expected error for non-numeric count")
	}
}

func TestKVBuffer_Close(t *testing.T) {
	db, _ := redismock.NewClientMock()
	kvBuffer := &KVBuffer{client: db}

	if err := kvBuffer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewKVBuffer_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"invalid scheme", "http://localhost:6379"},
		{"malformed URL", "not-a-url"},
		{"empty URL", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKVBuffer(tt.url)
			if err == nil {
				t.Fatalf("NewKVBuffer() expected error for invalid URL %q, got nil", tt.url)
			}
			if !strings.Contains(err.Error(), "failed to parse KV URL") {
				t.Errorf("NewKVBuffer() expected URL parsing error, got: %v", err)
			}
		})
	}
}

func TestRowsKey(t *testing.T) {
	if got := RowsKey("legacy_news"); got != "dump:rows:legacy_news" {
		t.Errorf("RowsKey() = %q, want dump:rows:legacy_news", got)
	}
}
