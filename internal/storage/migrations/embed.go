// Package migrations holds the schema of every persistent store and the
// runners that apply it.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
)

// PostgresFS embeds the particles, decays and event_records schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the event_records and channel_aggregates schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// SQLiteFS embeds the local particle catalog schema.
//
//go:embed sqlite/*.sql
var SQLiteFS embed.FS

type migration struct {
	name string
	sql  string
}

// load returns the .sql files of dir ordered by name.
func load(fsys fs.FS, dir string) ([]migration, error) {
	names, err := fs.Glob(fsys, dir+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no %s migrations embedded", dir)
	}
	slices.Sort(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{name: path.Base(name), sql: string(data)})
	}
	return out, nil
}
