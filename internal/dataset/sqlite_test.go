package dataset

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "olist-dashboard/internal/errors"
)

func TestImportCSV_RoundTrip(t *testing.T) {
	csvPath := writeTempCSV(t, sampleCSV)
	dbPath := filepath.Join(t.TempDir(), "orders.db")
	ctx := context.Background()

	n, err := ImportCSV(ctx, csvPath, dbPath, Options{Table: "merged"})
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ImportCSV() wrote %d rows, want 3", n)
	}

	fromCSV, err := Load(ctx, csvPath, Options{})
	if err != nil {
		t.Fatal(err)
	}
	fromDB, err := Load(ctx, dbPath, Options{Table: "merged"})
	if err != nil {
		t.Fatalf("Load(sqlite) error = %v", err)
	}

	if diff := cmp.Diff(fromCSV, fromDB, decimalEqual); diff != "" {
		t.Errorf("sqlite records differ from csv (-csv +sqlite):\n%s", diff)
	}

	// Importing again replaces the table instead of appending.
	if _, err := ImportCSV(ctx, csvPath, dbPath, Options{Table: "merged"}); err != nil {
		t.Fatal(err)
	}
	again, err := Load(ctx, dbPath, Options{Table: "merged"})
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 3 {
		t.Errorf("expected 3 rows after re-import, got %d", len(again))
	}
}

func TestLoadSQLite_SchemaErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orders.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE partial (order_id TEXT, price TEXT)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	ctx := context.Background()

	if _, err := Load(ctx, dbPath, Options{Table: "order_lines"}); !errors.Is(err, apperrors.ErrSchema) {
		t.Errorf("missing table: error = %v, want schema error", err)
	}
	if _, err := Load(ctx, dbPath, Options{Table: "partial"}); !errors.Is(err, apperrors.ErrSchema) {
		t.Errorf("missing columns: error = %v, want schema error", err)
	}
}

func TestLoadSQLite_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.db"), Options{})
	if !errors.Is(err, apperrors.ErrLoad) {
		t.Errorf("Load() error = %v, want load error", err)
	}
}

func TestImportCSV_RejectsBadInput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orders.db")
	csvPath := writeTempCSV(t, "order_id,price\no1,1\n")

	if _, err := ImportCSV(context.Background(), csvPath, dbPath, Options{}); !errors.Is(err, apperrors.ErrSchema) {
		t.Errorf("ImportCSV() error = %v, want schema error", err)
	}
}

func TestLoadSQLite_CacheKeyedByTable(t *testing.T) {
	csvPath := writeTempCSV(t, sampleCSV)
	dbPath := filepath.Join(t.TempDir(), "orders.db")
	cacheDir := filepath.Join(t.TempDir(), "cache")
	ctx := context.Background()

	if _, err := ImportCSV(ctx, csvPath, dbPath, Options{Table: "a"}); err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}

	records, err := Load(ctx, dbPath, Options{Table: "a", CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Load() returned %d records, want 3", len(records))
	}
	if _, err := os.Stat(snapshotFilename(cacheDir, keyFor(dbPath, Options{Table: "a"}))); err != nil {
		t.Fatalf("expected snapshot for table a: %v", err)
	}

	records, err = Load(ctx, dbPath, Options{Table: "no_such_table", CacheDir: cacheDir})
	if !errors.Is(err, apperrors.ErrSchema) {
		t.Errorf("missing table through cache: records=%d error = %v, want schema error", len(records), err)
	}

	if keyFor(dbPath, Options{Table: "a"}) == keyFor(dbPath, Options{Table: "b"}) {
		t.Error("snapshot keys must differ per table")
	}
	if keyFor(csvPath, Options{Table: "a"}) != keyFor(csvPath, Options{Table: "b"}) {
		t.Error("CSV snapshot keys must not depend on the table")
	}
}
