package postgres

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"clinicsched/migrations"
)

func TestExtractGooseUp(t *testing.T) {
	src := "-- +goose Up\nCREATE TABLE a (id int);\n\n-- +goose Down\nDROP TABLE a;\n"
	got, err := extractGooseUp(src)
	if err != nil {
		t.Fatalf("extractGooseUp error: %v", err)
	}
	if got != "CREATE TABLE a (id int);" {
		t.Fatalf("up = %q", got)
	}

	if _, err := extractGooseUp("CREATE TABLE a (id int);"); err == nil {
		t.Fatalf("expected error for missing marker")
	}
}

func TestSplitSQLStatements(t *testing.T) {
	got := splitSQLStatements("CREATE TABLE a (id int);\n-- trailing note\n;\n  CREATE INDEX b ON a (id) ; ")
	want := []string{"CREATE TABLE a (id int)", "CREATE INDEX b ON a (id)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("split = %q, want %q", got, want)
	}
}

func TestNormalizeExtensionStatement(t *testing.T) {
	got, ok := normalizeExtensionStatement("CREATE EXTENSION IF NOT EXISTS btree_gist")
	if !ok || got != "CREATE EXTENSION IF NOT EXISTS btree_gist SCHEMA public" {
		t.Fatalf("normalize = %q, %v", got, ok)
	}
	if _, ok := normalizeExtensionStatement("CREATE EXTENSION btree_gist SCHEMA ext"); ok {
		t.Fatalf("explicit schema must be kept")
	}
	if _, ok := normalizeExtensionStatement("CREATE TABLE btree_gist (id int)"); ok {
		t.Fatalf("non extension statement normalized")
	}
}

func TestLoadMigrations_OrdersByName(t *testing.T) {
	fsys := fstest.MapFS{
		"00002_more.sql": {Data: []byte("-- +goose Up\nSELECT 2;\n")},
		"00001_init.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 0;\n")},
		"README.md":      {Data: []byte("ignored")},
	}

	migs, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations error: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("len = %d, want 2", len(migs))
	}
	if migs[0].Version != "00001_init" || migs[0].SQL != "SELECT 1;" {
		t.Fatalf("first migration = %+v", migs[0])
	}
	if migs[1].Version != "00002_more" {
		t.Fatalf("second migration = %+v", migs[1])
	}
}

func TestLoadMigrations_EmbeddedSchema(t *testing.T) {
	migs, err := LoadMigrations(migrations.FS)
	if err != nil {
		t.Fatalf("LoadMigrations error: %v", err)
	}
	if len(migs) == 0 {
		t.Fatalf("no embedded migrations")
	}

	var sawConstraint bool
	for _, m := range migs {
		if strings.Contains(m.SQL, "+goose Down") {
			t.Fatalf("%s: down section leaked into up SQL", m.Version)
		}
		for _, stmt := range splitSQLStatements(m.SQL) {
			if strings.Contains(stmt, overlapConstraint) {
				sawConstraint = true
			}
		}
	}
	if !sawConstraint {
		t.Fatalf("embedded schema does not declare %s", overlapConstraint)
	}
}
