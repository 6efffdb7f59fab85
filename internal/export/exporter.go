// Package export serializes flattened tables to CSV, SQL script, Parquet and
// JSON. All exporters create parent directories as needed and return the
// number of data rows written (headers and DDL excluded). Exporting an empty
// table is valid and produces a schema-only file.
package export

import (
	"os"
	"path/filepath"

	"tickerlab/internal/tabular"
)

// Exporter writes the two flattened datasets of a ticker to one format.
type Exporter interface {
	ExportCompanyTable(t *tabular.Table, path string) (int, error)
	ExportPriceTable(t *tabular.Table, path string) (int, error)
}

// Compile-time interface checks.
var (
	_ Exporter = CSV{}
	_ Exporter = SQL{}
	_ Exporter = Parquet{}
	_ Exporter = JSON{}
)

func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
