package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"m/001_create_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY)")},
		"m/001_create_a.down.sql": {Data: []byte("DROP TABLE a")},
		"m/002_create_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER PRIMARY KEY)")},
		"m/002_create_b.down.sql": {Data: []byte("DROP TABLE b")},
		"m/README.md":             {Data: []byte("ignored")},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('a', 'b') ORDER BY name")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		rows.Scan(&n)
		names = append(names, n)
	}
	return names
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testFS(), "m", "").GetMigrations()
	if err != nil {
		t.Fatalf("GetMigrations failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	for _, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is missing SQL: %+v", m.Version, m)
		}
		if m.Version == 1 && m.Name != "create a" {
			t.Errorf("unexpected name %q", m.Name)
		}
	}

	if _, err := NewFSProvider(testFS(), "missing", "").GetMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testFS(), "m", ""), nil)

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 2 {
		t.Errorf("expected version 2, got %d", v)
	}
	if diff := cmp.Diff([]string{"a", "b"}, tables(t, db)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	// Running again is a no-op
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}
	if diff := cmp.Diff([]string{"a"}, tables(t, db)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	pending, err := m.Pending()
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("expected migration 2 pending, got %+v", pending)
	}

	if err := m.MigrateTo(0); err != nil {
		t.Fatalf("MigrateTo(0) failed: %v", err)
	}
	if got := tables(t, db); len(got) != 0 {
		t.Errorf("expected no tables, got %v", got)
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	fsys := testFS()
	fsys["m/003_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE")}
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(fsys, "m", ""), nil)

	if err := m.MigrateUp(); err == nil {
		t.Fatal("expected error from broken migration")
	}
	if v, _ := m.CurrentVersion(); v != 2 {
		t.Errorf("expected version to stop at 2, got %d", v)
	}
}
