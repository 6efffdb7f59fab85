package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tickerlab/internal/tabular"
)

// Default table names for the generated SQL scripts.
const (
	DefaultCompanyTable = "company_details"
	DefaultPriceTable   = "stock_price_insights"
)

// SQL writes tables as a SQLite-compatible script: DROP TABLE IF EXISTS,
// CREATE TABLE with inferred column types, then one multi-row INSERT. Column
// types are inferred from observed values (integers → INTEGER, floats → REAL,
// booleans → INTEGER 0/1, everything else → TEXT). An id column becomes the
// PRIMARY KEY; the price table declares a foreign key back to the company
// table.
type SQL struct {
	CompanyTable string
	PriceTable   string
}

func (s SQL) companyTable() string {
	if s.CompanyTable != "" {
		return s.CompanyTable
	}
	return DefaultCompanyTable
}

func (s SQL) priceTable() string {
	if s.PriceTable != "" {
		return s.PriceTable
	}
	return DefaultPriceTable
}

func (s SQL) ExportCompanyTable(t *tabular.Table, path string) (int, error) {
	return writeSQL(t, path, s.companyTable(), "")
}

func (s SQL) ExportPriceTable(t *tabular.Table, path string) (int, error) {
	return writeSQL(t, path, s.priceTable(), s.companyTable())
}

// writeSQL renders the script. When fkCompanyTable is non-empty and the table
// has a company_id column, a FOREIGN KEY constraint is added.
func writeSQL(t *tabular.Table, path, tableName, fkCompanyTable string) (int, error) {
	if err := ensureParentDir(path); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "DROP TABLE IF EXISTS %s;\n", tableName)

	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", tableName)
	for i, col := range t.Columns {
		sqlType := sqlColumnType(t.KindOf(col))
		constraint := ""
		if col == "id" {
			constraint = " PRIMARY KEY"
		}
		sep := ","
		if i == len(t.Columns)-1 && !(fkCompanyTable != "" && t.HasColumn("company_id")) {
			sep = ""
		}
		fmt.Fprintf(&sb, "    %s %s%s%s\n", col, sqlType, constraint, sep)
	}
	if fkCompanyTable != "" && t.HasColumn("company_id") {
		fmt.Fprintf(&sb, "    FOREIGN KEY (company_id) REFERENCES %s(id)\n", fkCompanyTable)
	}
	sb.WriteString(");\n")

	if len(t.Rows) > 0 {
		fmt.Fprintf(&sb, "\nINSERT INTO %s (%s) VALUES\n", tableName, strings.Join(t.Columns, ", "))
		for i := range t.Rows {
			values := make([]string, len(t.Columns))
			for j, col := range t.Columns {
				values[j] = sqlLiteral(t.Cell(i, col))
			}
			sep := ",\n"
			if i == len(t.Rows)-1 {
				sep = ";\n"
			}
			fmt.Fprintf(&sb, "  (%s)%s", strings.Join(values, ", "), sep)
		}
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return 0, fmt.Errorf("write sql file: %w", err)
	}
	return len(t.Rows), nil
}

func sqlColumnType(k tabular.ColumnKind) string {
	switch k {
	case tabular.ColumnInt, tabular.ColumnBool:
		return "INTEGER"
	case tabular.ColumnFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// sqlLiteral renders one cell. Strings are escaped by doubling single
// quotes; numerics and booleans are unquoted; null and empty values become
// NULL; structured values are embedded as JSON text.
func sqlLiteral(v tabular.Value) string {
	switch v.Kind() {
	case tabular.KindNull:
		return "NULL"
	case tabular.KindBool:
		if v.AsBool() {
			return "1"
		}
		return "0"
	case tabular.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case tabular.KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case tabular.KindString:
		if v.AsString() == "" {
			return "NULL"
		}
		return quoteSQL(v.AsString())
	default:
		return quoteSQL(v.EncodeJSON())
	}
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
