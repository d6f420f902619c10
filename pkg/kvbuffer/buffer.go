package kvbuffer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

const (
	rowsKeyPrefix = "dump:rows:"
	summaryKey    = "dump:summary"
	rowsTTL       = 24 * time.Hour
	scanCount     = 100
)

// KVBuffer mirrors extracted dump rows into Redis lists, one list per
// collection, so other processes can consume an extraction without the
// JSON files
type KVBuffer struct {
	client *redis.Client
}

// NewKVBuffer creates a new KV buffer connected to Redis
func NewKVBuffer(kvURL string) (*KVBuffer, error) {
	opts, err := redis.ParseURL(kvURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KV URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to KV: %w", err)
	}

	return &KVBuffer{client: client}, nil
}

// RowsKey returns the list key holding a collection's rows
func RowsKey(collection string) string {
	return rowsKeyPrefix + collection
}

// Reset removes the rows and summary left by a previous extraction,
// including row lists of a run that died before writing its summary
func (b *KVBuffer) Reset(ctx context.Context) error {
	keys := []string{summaryKey}

	var cursor uint64
	for {
		batch, next, err := b.client.Scan(ctx, cursor, rowsKeyPrefix+"*", scanCount).Result()
		if err != nil {
			return fmt.Errorf("failed to scan previous rows: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear previous extraction: %w", err)
	}
	return nil
}

// AddRow appends a row to its collection list
func (b *KVBuffer) AddRow(ctx context.Context, collection string, row *types.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	key := RowsKey(collection)
	if err := b.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to add row to KV: %w", err)
	}

	if err := b.client.Expire(ctx, key, rowsTTL).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}

	return nil
}

// WriteSummary stores the per-collection row counts
func (b *KVBuffer) WriteSummary(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(counts))
	for name, n := range counts {
		fields[name] = n
	}

	if err := b.client.HSet(ctx, summaryKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to write summary to KV: %w", err)
	}

	if err := b.client.Expire(ctx, summaryKey, rowsTTL).Err(); err != nil {
		return fmt.Errorf("failed to set TTL: %w", err)
	}

	return nil
}

// ReadSummary returns the per-collection row counts of the last extraction
func (b *KVBuffer) ReadSummary(ctx context.Context) (map[string]int, error) {
	fields, err := b.client.HGetAll(ctx, summaryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read summary from KV: %w", err)
	}

	counts := make(map[string]int, len(fields))
	for name, value := range fields {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid count for %s: %q", name, value)
		}
		counts[name] = n
	}
	return counts, nil
}

// GetRows returns the raw JSON rows of a collection between start and stop
// (inclusive, Redis LRANGE semantics)
func (b *KVBuffer) GetRows(ctx context.Context, collection string, start, stop int64) ([]json.RawMessage, error) {
	results, err := b.client.LRange(ctx, RowsKey(collection), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from KV: %w", err)
	}

	rows := make([]json.RawMessage, len(results))
	for i, result := range results {
		rows[i] = json.RawMessage(result)
	}

	return rows, nil
}

// Close closes the KV connection
func (b *KVBuffer) Close() error {
	return b.client.Close()
}
