package migrations

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- leading comment; with a semicolon
CREATE TABLE a (x Int32) ENGINE = MergeTree() ORDER BY x;

CREATE TABLE b (y String DEFAULT 'a;b', z String DEFAULT 'it''s')
ENGINE = MergeTree() -- trailing comment
ORDER BY y;
`
	stmts, err := splitStatements(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
	if !strings.Contains(stmts[1], "DEFAULT 'a;b'") || !strings.Contains(stmts[1], "'it''s'") {
		t.Errorf("string literals not preserved: %q", stmts[1])
	}
	if strings.Contains(stmts[1], "trailing comment") {
		t.Errorf("comment not stripped: %q", stmts[1])
	}
	if !strings.HasSuffix(stmts[1], "ORDER BY y") {
		t.Errorf("unexpected second statement %q", stmts[1])
	}
}

func TestSplitStatements_UnterminatedString(t *testing.T) {
	if _, err := splitStatements("SELECT 'open;"); !errors.Is(err, errUnterminatedString) {
		t.Errorf("expected errUnterminatedString, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	for _, tt := range []struct {
		fsys fs.FS
		dir  string
	}{
		{PostgresFS, "postgres"},
		{ClickhouseFS, "clickhouse"},
		{SQLiteFS, "sqlite"},
	} {
		files, err := load(tt.fsys, tt.dir)
		if err != nil {
			t.Fatalf("load(%s): %v", tt.dir, err)
		}
		for i, m := range files {
			if strings.Contains(m.name, "/") {
				t.Errorf("%s: name %q should be a base name", tt.dir, m.name)
			}
			if i > 0 && files[i-1].name >= m.name {
				t.Errorf("%s: %s not ordered after %s", tt.dir, m.name, files[i-1].name)
			}
		}
	}

	if _, err := load(PostgresFS, "missing"); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestEmbeddedClickhouseMigrationsSplit(t *testing.T) {
	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			t.Errorf("%s: %v", m.name, err)
		}
		if len(stmts) == 0 {
			t.Errorf("%s: no statements", m.name)
		}
	}
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE t (x);\n-- +migrate Down\nDROP TABLE t;\n"
	up := extractUp(content)
	if !strings.Contains(up, "CREATE TABLE t") || strings.Contains(up, "DROP TABLE") {
		t.Errorf("unexpected up section %q", up)
	}
	if got := extractUp("SELECT 1;"); got != "SELECT 1;" {
		t.Errorf("content without markers should be returned as is, got %q", got)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/collider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "collider" {
		t.Errorf("database = %q, want collider", db)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}
