// Package validate schema-checks company record files. Mapping file
// validation lives in package mapping; this package covers the company
// documents written per ticker.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldError describes one field-level violation found in a record. Batch
// validation aggregates these instead of stopping at the first failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type fieldCheck struct {
	name     string
	required bool
	check    func(any) string
}

func checkInteger(v any) string {
	switch id := v.(type) {
	case float64:
		if id != float64(int64(id)) {
			return "must be an integer"
		}
		return ""
	case json.Number:
		if _, err := id.Int64(); err != nil {
			return "must be an integer"
		}
		return ""
	default:
		return "must be an integer"
	}
}

func checkString(v any) string {
	if _, ok := v.(string); !ok {
		return "must be a string"
	}
	return ""
}

func checkStringList(v any) string {
	list, ok := v.([]any)
	if !ok {
		return "must be a list of strings"
	}
	for i, item := range list {
		if _, ok := item.(string); !ok {
			return fmt.Sprintf("element %d must be a string", i+1)
		}
	}
	return ""
}

func checkMapping(v any) string {
	if _, ok := v.(map[string]any); !ok {
		return "must be a mapping"
	}
	return ""
}

// companyChecks enumerates the company record shape. Optional fields accept
// null or absence; a present non-null value must match the declared type.
var companyChecks = []fieldCheck{
	{name: "id", required: true, check: checkInteger},
	{name: "name", required: true, check: checkString},
	{name: "ticker", required: false, check: checkString},
	{name: "sector", required: false, check: checkString},
	{name: "industry", required: false, check: checkString},
	{name: "description", required: false, check: checkString},
	{name: "indices", required: false, check: checkStringList},
	{name: "exchanges", required: false, check: checkStringList},
	{name: "aggregations", required: false, check: checkMapping},
	{name: "insights", required: false, check: checkMapping},
	{name: "lastUpdated", required: false, check: checkMapping},
}

// CheckCompany validates one decoded record against the company record shape
// and returns every field-level violation found.
func CheckCompany(record map[string]any) []FieldError {
	var errs []FieldError
	for _, fc := range companyChecks {
		v, present := record[fc.name]
		if !present || v == nil {
			if fc.required {
				errs = append(errs, FieldError{Field: fc.name, Message: "is required"})
			}
			continue
		}
		if msg := fc.check(v); msg != "" {
			errs = append(errs, FieldError{Field: fc.name, Message: msg})
		}
	}
	return errs
}

// Records validates a company record file holding either a single record
// object or an array of records. Per-record failures are collected with a
// 1-based record index and do not stop processing; a top-level container
// failure short-circuits with count 0 and a single error.
func Records(path string) (int, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, []string{fmt.Sprintf("record file not found: %s", path)}
		}
		return 0, []string{fmt.Sprintf("read record file: %v", err)}
	}

	records, err := decodeRecords(data)
	if err != nil {
		return 0, []string{err.Error()}
	}

	var errs []string
	for i, rec := range records {
		if rec == nil {
			errs = append(errs, fmt.Sprintf("record %d: must be an object", i+1))
			continue
		}
		for _, fe := range CheckCompany(rec) {
			errs = append(errs, fmt.Sprintf("record %d: %s", i+1, fe.Error()))
		}
	}
	return len(records), errs
}

// decodeRecords accepts either one record object or an array of them. Array
// elements that are not objects decode as nil entries so the caller can
// report them by index.
func decodeRecords(data []byte) ([]map[string]any, error) {
	var single map[string]any
	if err := json.Unmarshal(data, &single); err == nil {
		return []map[string]any{single}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("record file must contain an object or an array of objects: %v", err)
	}
	records := make([]map[string]any, len(raw))
	for i, r := range raw {
		var rec map[string]any
		if err := json.Unmarshal(r, &rec); err != nil {
			records[i] = nil
			continue
		}
		records[i] = rec
	}
	return records, nil
}
