package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocateDump(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]int
		want    string
		wantErr error
	}{
		{
			name:  "largest dump wins",
			files: map[string]int{"small.sql": 10, "big.sql": 100, "notes.txt": 1000},
			want:  "big.sql",
		},
		{
			name:  "schema is excluded",
			files: map[string]int{"schema.sql": 5000, "data.sql": 10},
			want:  "data.sql",
		},
		{
			name:    "only schema",
			files:   map[string]int{"schema.sql": 10},
			wantErr: ErrNoDumpFile,
		},
		{
			name:    "empty directory",
			wantErr: ErrNoDumpFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, size := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Repeat("x", size)), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := LocateDump(dir, []string{"schema.sql"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LocateDump() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocateDump() error = %v", err)
			}
			if filepath.Base(got) != tt.want {
				t.Errorf("LocateDump() = %s, want %s", got, tt.want)
			}
		})
	}
}
