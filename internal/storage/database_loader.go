package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/leengari/mini-optimizer/internal/catalog"
)

// LoadDatabase loads every table of the database rooted at dir in fsys.
// Tables listed in the database meta.json are loaded in that order;
// otherwise every subdirectory is treated as a table.
func LoadDatabase(fsys fs.FS, dir string, logger *slog.Logger) (*catalog.Catalog, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read database meta: %w", err)
	}

	var meta DatabaseMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse database meta: %w", err)
	}
	if err := meta.check(); err != nil {
		return nil, err
	}

	tableDirs := meta.Tables
	if len(tableDirs) == 0 {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read database directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				tableDirs = append(tableDirs, entry.Name())
			}
		}
	}

	cat := catalog.New()
	for _, tableDir := range tableDirs {
		table, err := LoadTable(fsys, path.Join(dir, tableDir), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", tableDir, err)
		}
		cat.Put(table)
	}

	logger.Info("Database loaded successfully",
		slog.String("name", meta.Name),
		slog.String("path", dir),
		slog.Int("table_count", cat.Len()),
	)

	return cat, nil
}

// LoadDatabaseDir loads a database from a directory on disk.
func LoadDatabaseDir(dbPath string, logger *slog.Logger) (*catalog.Catalog, error) {
	return LoadDatabase(os.DirFS(dbPath), ".", logger)
}
