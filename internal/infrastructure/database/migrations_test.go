package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20261001_120000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT);")},
		"20261001_120000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"20261002_080000_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"README.md":                        {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := testMigrations()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "widgets") || !tableExists(t, db, "gadgets") {
		t.Fatal("migrations did not create tables")
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20261001_120000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied[0] = %+v", applied[0])
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureKeepsEarlierMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := testMigrations()
	src["20261003_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE nope (")}

	if err := db.Migrate(ctx, src); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}

	_, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("pending = %+v, want only broken", pending)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"20261001_120000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"20261001_120000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "widgets") {
		t.Error("widgets should be dropped")
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Errorf("MigrateDown() on empty history = %v", err)
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"20261002_080000_gadgets.up.sql": {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err == nil {
		t.Error("MigrateDown() expected error without down SQL")
	}
}

func TestMigrate_NilSource(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Errorf("Migrate(nil) error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20261001_120000_entity_history.up.sql", "20261001_120000", true, true},
		{"20261001_120000_entity_history.down.sql", "20261001_120000", false, true},
		{"20261001_120000_entity_history.sql", "", false, false},
		{"notes.txt", "", false, false},
		{"single.up.sql", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.name)
			if version != tt.wantVersion || isUp != tt.wantUp || ok != tt.wantOK {
				t.Errorf("got (%q, %v, %v), want (%q, %v, %v)", version, isUp, ok, tt.wantVersion, tt.wantUp, tt.wantOK)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20261001_120000_entity_history.up.sql"); got != "entity_history" {
		t.Errorf("extractMigrationName() = %q", got)
	}
	if got := extractMigrationName("short.up.sql"); got != "short" {
		t.Errorf("extractMigrationName() = %q", got)
	}
}
