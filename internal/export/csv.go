package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"tickerlab/internal/tabular"
)

// CSV writes tables as RFC 4180 CSV with a header row. Structured cells
// (lists, mappings) are JSON-encoded into the cell; nulls become empty
// strings, never the literal "null".
type CSV struct{}

func (CSV) ExportCompanyTable(t *tabular.Table, path string) (int, error) {
	return writeCSV(t, path)
}

func (CSV) ExportPriceTable(t *tabular.Table, path string) (int, error) {
	return writeCSV(t, path)
}

func writeCSV(t *tabular.Table, path string) (int, error) {
	if err := ensureParentDir(path); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i := range t.Rows {
		for j, col := range t.Columns {
			record[j] = csvCell(t.Cell(i, col))
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close csv file: %w", err)
	}
	return len(t.Rows), nil
}

func csvCell(v tabular.Value) string {
	switch v.Kind() {
	case tabular.KindNull:
		return ""
	case tabular.KindBool:
		return strconv.FormatBool(v.AsBool())
	case tabular.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case tabular.KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case tabular.KindString:
		return v.AsString()
	default:
		return v.EncodeJSON()
	}
}
