// Package migrations embeds the versioned schema. holdctl hands it to atlas;
// tests apply the raw statements directly.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.sql atlas.sum
var files embed.FS

// FS is the migration directory in atlas layout, atlas.sum included.
func FS() fs.FS {
	return files
}

// Statements returns the migration files in apply order.
func Statements() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}
