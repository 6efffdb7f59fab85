package export

import (
	"encoding/json"
	"fmt"
	"os"

	"tickerlab/internal/tabular"
)

// JSON writes tables as an indented JSON array of row objects, keys in
// column order, structured values kept intact.
type JSON struct{}

func (JSON) ExportCompanyTable(t *tabular.Table, path string) (int, error) {
	return writeJSON(t, path)
}

func (JSON) ExportPriceTable(t *tabular.Table, path string) (int, error) {
	return writeJSON(t, path)
}

func writeJSON(t *tabular.Table, path string) (int, error) {
	if err := ensureParentDir(path); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	rows := make([]tabular.Value, len(t.Rows))
	for i := range t.Rows {
		fields := make([]tabular.Field, 0, len(t.Columns))
		for _, col := range t.Columns {
			fields = append(fields, tabular.Field{Key: col, Value: t.Cell(i, col)})
		}
		rows[i] = tabular.Map(fields)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode json rows: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write json file: %w", err)
	}
	return len(t.Rows), nil
}
