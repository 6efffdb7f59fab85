package export

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"tickerlab/internal/tabular"
)

// Parquet writes tables as Parquet files, preserving native types per column:
// INT64, DOUBLE, BOOLEAN, UTF8, and LIST<UTF8> for string-list columns. Any
// other structured column falls back to a JSON-encoded UTF8 column. Column
// names are sanitized to identifier characters, since the schema tag syntax
// cannot carry arbitrary punctuation.
type Parquet struct{}

const parquetParallelism = 2

func (Parquet) ExportCompanyTable(t *tabular.Table, path string) (int, error) {
	return writeParquet(t, path)
}

func (Parquet) ExportPriceTable(t *tabular.Table, path string) (int, error) {
	return writeParquet(t, path)
}

type parquetSchemaNode struct {
	Tag    string              `json:"Tag"`
	Fields []parquetSchemaNode `json:"Fields,omitempty"`
}

func writeParquet(t *tabular.Table, path string) (int, error) {
	if err := ensureParentDir(path); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	// A table with no columns cannot carry a Parquet schema; emit an empty
	// file. The price table never hits this: it always has its canonical
	// columns, so a zero-row export still produces a schema-only file.
	if len(t.Columns) == 0 {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return 0, fmt.Errorf("write parquet file: %w", err)
		}
		return 0, nil
	}

	names := parquetColumnNames(t.Columns)
	kinds := make([]tabular.ColumnKind, len(t.Columns))
	for i, col := range t.Columns {
		kinds[i] = t.KindOf(col)
	}

	schema, err := parquetSchema(names, kinds)
	if err != nil {
		return 0, fmt.Errorf("build parquet schema: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(schema, fw, parquetParallelism)
	if err != nil {
		return 0, fmt.Errorf("create parquet writer: %w", err)
	}

	for i := range t.Rows {
		record := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			record[names[j]] = parquetCell(t.Cell(i, col), kinds[j])
		}
		data, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("encode parquet row %d: %w", i+1, err)
		}
		if err := pw.Write(string(data)); err != nil {
			return 0, fmt.Errorf("write parquet row %d: %w", i+1, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return 0, fmt.Errorf("close parquet file: %w", err)
	}
	return len(t.Rows), nil
}

func parquetSchema(names []string, kinds []tabular.ColumnKind) (string, error) {
	root := parquetSchemaNode{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for i, name := range names {
		switch kinds[i] {
		case tabular.ColumnInt:
			root.Fields = append(root.Fields, parquetSchemaNode{
				Tag: fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", name),
			})
		case tabular.ColumnFloat:
			root.Fields = append(root.Fields, parquetSchemaNode{
				Tag: fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name),
			})
		case tabular.ColumnBool:
			root.Fields = append(root.Fields, parquetSchemaNode{
				Tag: fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", name),
			})
		case tabular.ColumnStringList:
			root.Fields = append(root.Fields, parquetSchemaNode{
				Tag: fmt.Sprintf("name=%s, type=LIST, repetitiontype=OPTIONAL", name),
				Fields: []parquetSchemaNode{
					{Tag: "name=element, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
				},
			})
		default:
			root.Fields = append(root.Fields, parquetSchemaNode{
				Tag: fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name),
			})
		}
	}
	data, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parquetCell renders one cell for the JSON row writer, coerced to the
// inferred column type.
func parquetCell(v tabular.Value, kind tabular.ColumnKind) any {
	if v.IsNull() {
		return nil
	}
	switch kind {
	case tabular.ColumnInt:
		return v.AsInt()
	case tabular.ColumnFloat:
		return v.AsFloat()
	case tabular.ColumnBool:
		return v.AsBool()
	case tabular.ColumnStringList:
		list, _ := v.StringList()
		return list
	case tabular.ColumnString:
		return stringCell(v)
	default:
		// Structured or unknown: embed as JSON text.
		if v.Kind() == tabular.KindString {
			return v.AsString()
		}
		return v.EncodeJSON()
	}
}

// stringCell renders scalars of a string-typed column, covering columns that
// degraded to string because of mixed scalar types.
func stringCell(v tabular.Value) string {
	switch v.Kind() {
	case tabular.KindString:
		return v.AsString()
	case tabular.KindBool:
		return strconv.FormatBool(v.AsBool())
	case tabular.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case tabular.KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	default:
		return v.EncodeJSON()
	}
}

var parquetNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// parquetColumnNames sanitizes column names to schema-tag-safe identifiers
// and disambiguates collisions produced by sanitization.
func parquetColumnNames(columns []string) []string {
	names := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, col := range columns {
		name := parquetNameSanitizer.ReplaceAllString(col, "_")
		if name == "" || (name[0] >= '0' && name[0] <= '9') {
			name = "c_" + name
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}
