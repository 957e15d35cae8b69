package item

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_ContainsItemsTable(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}

	data, err := fs.ReadFile(FS, files[0])
	if err != nil {
		t.Fatalf("read %s: %v", files[0], err)
	}
	sql := string(data)
	for _, want := range []string{"-- +goose Up", "-- +goose Down", "CREATE TABLE IF NOT EXISTS items", "VARCHAR(255) NOT NULL"} {
		if !strings.Contains(sql, want) {
			t.Errorf("migration %s missing %q", files[0], want)
		}
	}
}
