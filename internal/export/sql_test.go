package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tickerlab/internal/domain"
	"tickerlab/internal/tabular"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSQLExportCompanyScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company.sql")

	n, err := SQL{}.ExportCompanyTable(companyFixture(), path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	script := readFile(t, path)
	for _, want := range []string{
		"DROP TABLE IF EXISTS company_details;",
		"CREATE TABLE company_details (",
		"id INTEGER PRIMARY KEY,",
		"revenue REAL,",
		"active INTEGER,",
		"indices TEXT,",
		"INSERT INTO company_details (id, name, indices, revenue, active, note) VALUES",
		`(1, 'Acme Corp', '["S&P500","NASDAQ"]', 10.5, 1, NULL),`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\n%s", want, script)
		}
	}

	// Empty strings and nulls both render as NULL; quotes are doubled.
	if !strings.Contains(script, `'Globex "G" Inc'`) {
		t.Errorf("name literal wrong:\n%s", script)
	}
	if !strings.Contains(script, "(2, ") || !strings.Contains(script, ", NULL);") {
		t.Errorf("final row wrong:\n%s", script)
	}
}

func TestSQLQuoteEscaping(t *testing.T) {
	tbl := tabular.NewTable("id", "name")
	tbl.Rows = append(tbl.Rows, tabular.Row{
		"id":   tabular.Int(1),
		"name": tabular.String("O'Reilly"),
	})

	path := filepath.Join(t.TempDir(), "q.sql")
	if _, err := (SQL{}).ExportCompanyTable(tbl, path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readFile(t, path), "'O''Reilly'") {
		t.Error("single quotes must be doubled")
	}
}

func TestSQLExportPriceForeignKey(t *testing.T) {
	points := []domain.PricePoint{
		{CompanyID: 1, Ticker: "ACME", TS: 1, Value: 10, Interval: 86400, ValueUnit: "USD"},
	}
	path := filepath.Join(t.TempDir(), "price.sql")

	n, err := SQL{}.ExportPriceTable(tabular.PriceTable(points), path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}

	script := readFile(t, path)
	for _, want := range []string{
		"CREATE TABLE stock_price_insights (",
		"FOREIGN KEY (company_id) REFERENCES company_details(id)",
		"value REAL,",
		"ts INTEGER,",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\n%s", want, script)
		}
	}
}

func TestSQLExportEmptyPriceTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price.sql")

	n, err := SQL{}.ExportPriceTable(tabular.PriceTable(nil), path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}

	script := readFile(t, path)
	if !strings.Contains(script, "CREATE TABLE stock_price_insights (") {
		t.Errorf("DDL missing:\n%s", script)
	}
	if strings.Contains(script, "INSERT INTO") {
		t.Errorf("empty table must not emit INSERT:\n%s", script)
	}
	// Untyped columns fall back to TEXT.
	if !strings.Contains(script, "value TEXT,") {
		t.Errorf("empty columns should type as TEXT:\n%s", script)
	}
}

func TestSQLCustomTableNames(t *testing.T) {
	s := SQL{CompanyTable: "companies", PriceTable: "prices"}
	path := filepath.Join(t.TempDir(), "p.sql")

	if _, err := s.ExportPriceTable(tabular.PriceTable(nil), path); err != nil {
		t.Fatal(err)
	}
	script := readFile(t, path)
	if !strings.Contains(script, "CREATE TABLE prices (") {
		t.Errorf("custom price table name missing:\n%s", script)
	}
	if !strings.Contains(script, "REFERENCES companies(id)") {
		t.Errorf("custom company table name missing:\n%s", script)
	}
}
