package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRecords(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ACME_company_details.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}
	return path
}

func TestRecordsSingleObject(t *testing.T) {
	path := writeRecords(t, `{"id": 1, "name": "Acme Corp", "ticker": "ACME"}`)

	count, errs := Records(path)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestRecordsArrayCollectsPerRecordErrors(t *testing.T) {
	path := writeRecords(t, `[
  {"id": 1, "name": "Acme Corp", "indices": ["S&P500", "NASDAQ"]},
  {"id": "one", "name": 42},
  {"name": "No ID", "exchanges": ["NYSE", 7]}
]`)

	count, errs := Records(path)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(errs) != 4 {
		t.Fatalf("got %d errors, want 4: %v", len(errs), errs)
	}
	for _, e := range errs[:2] {
		if !strings.HasPrefix(e, "record 2:") {
			t.Errorf("error %q should reference record 2", e)
		}
	}
	for _, e := range errs[2:] {
		if !strings.HasPrefix(e, "record 3:") {
			t.Errorf("error %q should reference record 3", e)
		}
	}
}

func TestRecordsOptionalNullFields(t *testing.T) {
	path := writeRecords(t, `{"id": 1, "name": "Acme Corp", "sector": null, "description": null}`)

	count, errs := Records(path)
	if count != 1 || len(errs) != 0 {
		t.Errorf("count=%d errs=%v; want clean pass with nulls", count, errs)
	}
}

func TestRecordsTopLevelFailure(t *testing.T) {
	path := writeRecords(t, `"just a string"`)

	count, errs := Records(path)
	if count != 0 {
		t.Errorf("count = %d, want 0 on container failure", count)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want exactly 1: %v", len(errs), errs)
	}
}

func TestRecordsMissingFile(t *testing.T) {
	count, errs := Records(filepath.Join(t.TempDir(), "absent.json"))
	if count != 0 || len(errs) != 1 {
		t.Fatalf("count=%d errs=%v; want 0 and one error", count, errs)
	}
}

func TestRecordsNonObjectElement(t *testing.T) {
	path := writeRecords(t, `[{"id": 1, "name": "Acme Corp"}, 42]`)

	count, errs := Records(path)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "record 2") {
		t.Errorf("errs = %v; want one error for record 2", errs)
	}
}

func TestCheckCompanyStructuredFields(t *testing.T) {
	errs := CheckCompany(map[string]any{
		"id":           float64(3),
		"name":         "Globex",
		"aggregations": []any{"not", "a", "map"},
		"lastUpdated":  map[string]any{"price": "2024-01-01"},
	})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != "aggregations" {
		t.Errorf("field = %q, want aggregations", errs[0].Field)
	}
}
