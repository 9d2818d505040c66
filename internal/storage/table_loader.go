package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/leengari/mini-optimizer/internal/domain/schema"
)

// LoadTable reads <dir>/meta.json from fsys into table metadata.
func LoadTable(fsys fs.FS, dir string, logger *slog.Logger) (*schema.Table, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "meta.json"))
	if err != nil {
		return nil, err
	}

	var meta TableMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse table meta %s: %w", dir, err)
	}
	table, err := meta.table(dir)
	if err != nil {
		return nil, err
	}

	logger.Debug("table loaded",
		slog.String("table", table.Name),
		slog.Int("columns", len(table.Columns)),
		slog.Int64("rows", table.RowCount),
	)
	return table, nil
}
