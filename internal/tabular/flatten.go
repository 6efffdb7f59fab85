package tabular

import (
	"fmt"

	"tickerlab/internal/domain"
)

// LastUpdatedPrefix is prepended to keys expanded out of the lastUpdated
// mapping so they cannot collide with aggregation columns.
const LastUpdatedPrefix = "last_updated_"

// expansion names a nested mapping-valued field eligible for flattening into
// top-level columns. The set is fixed; unknown nested fields are kept as
// structured values.
type expansion struct {
	field  string
	prefix string
}

var expansions = []expansion{
	{field: "aggregations", prefix: ""},
	{field: "lastUpdated", prefix: LastUpdatedPrefix},
}

const (
	insightsField    = "insights"
	stockPriceField  = "stock_price"
	descriptionField = "description"
)

// FlattenCompany flattens one raw company document into a single table row.
// Configured nested mappings (aggregations, lastUpdated) are expanded into
// top-level columns; insights is dropped (its stock_price series is extracted
// separately); a description column is moved to the last position. Returns
// the column order alongside the row.
//
// The only hard failure is a top-level value that is not a mapping; a mapping
// with unusable fields still yields a partial row.
func FlattenCompany(raw Value) ([]string, Row, error) {
	if raw.Kind() != KindMap {
		return nil, nil, fmt.Errorf("company record must be a JSON object, got %s", raw.Kind())
	}

	var columns []string
	row := Row{}
	set := func(col string, v Value) {
		if _, seen := row[col]; !seen {
			columns = append(columns, col)
		}
		row[col] = v
	}

	for _, f := range raw.Fields() {
		if f.Key == insightsField {
			continue
		}
		if exp, ok := expansionFor(f.Key); ok {
			// Absent or non-mapping expandable fields contribute nothing.
			if f.Value.Kind() == KindMap {
				for _, nested := range f.Value.Fields() {
					set(exp.prefix+nested.Key, nested.Value)
				}
			}
			continue
		}
		set(f.Key, f.Value)
	}

	columns = moveLast(columns, descriptionField)
	return columns, row, nil
}

func expansionFor(field string) (expansion, bool) {
	for _, exp := range expansions {
		if exp.field == field {
			return exp, true
		}
	}
	return expansion{}, false
}

func moveLast(columns []string, name string) []string {
	for i, c := range columns {
		if c == name {
			return append(append(columns[:i:i], columns[i+1:]...), name)
		}
	}
	return columns
}

// ExtractPrices pulls the insights.stock_price series out of a raw company
// document. Each recognizable point becomes a PricePoint keyed by the owning
// record's id and ticker; points without a numeric value are skipped.
func ExtractPrices(raw Value, companyID int64, ticker string) []domain.PricePoint {
	insights, ok := raw.MapGet(insightsField)
	if !ok || insights.Kind() != KindMap {
		return nil
	}
	series, ok := insights.MapGet(stockPriceField)
	if !ok || series.Kind() != KindList {
		return nil
	}

	var points []domain.PricePoint
	for _, item := range series.AsList() {
		if p, ok := priceFromPoint(item, companyID, ticker); ok {
			points = append(points, p)
		}
	}
	return points
}

// ParsePriceDoc converts a standalone stock-price document (a JSON array of
// point objects) into price points. Points may carry their own company_id and
// ticker; missing ones fall back to the owning record's. Malformed points are
// skipped.
func ParsePriceDoc(doc Value, companyID int64, ticker string) ([]domain.PricePoint, error) {
	if doc.Kind() != KindList {
		return nil, fmt.Errorf("stock-price document must be a JSON array, got %s", doc.Kind())
	}
	var points []domain.PricePoint
	for _, item := range doc.AsList() {
		if item.Kind() != KindMap {
			continue
		}
		id := companyID
		if v, ok := item.MapGet("company_id"); ok && v.Kind() == KindInt {
			id = v.AsInt()
		}
		tick := ticker
		if v, ok := item.MapGet("ticker"); ok && v.Kind() == KindString {
			tick = v.AsString()
		}
		if p, ok := priceFromPoint(item, id, tick); ok {
			points = append(points, p)
		}
	}
	return points, nil
}

func priceFromPoint(item Value, companyID int64, ticker string) (domain.PricePoint, bool) {
	if item.Kind() != KindMap {
		return domain.PricePoint{}, false
	}
	value, ok := item.MapGet("value")
	if !ok || !value.IsNumber() {
		return domain.PricePoint{}, false
	}

	p := domain.PricePoint{
		CompanyID: companyID,
		Ticker:    ticker,
		Value:     value.AsFloat(),
	}
	if v, ok := item.MapGet("ts"); ok && v.IsNumber() {
		p.TS = int64(v.AsFloat())
	}
	if v, ok := item.MapGet("interval"); ok && v.IsNumber() {
		p.Interval = int64(v.AsFloat())
	}
	if v, ok := item.MapGet("valueUnit"); ok && v.Kind() == KindString {
		p.ValueUnit = v.AsString()
	}
	return p, true
}

// PriceTable builds the flattened price table. The table always carries the
// canonical price columns, so a zero-row table still exports as a valid
// schema-only file.
func PriceTable(points []domain.PricePoint) *Table {
	t := NewTable(domain.PriceColumns...)
	for _, p := range points {
		t.Rows = append(t.Rows, Row{
			"company_id": Int(p.CompanyID),
			"ticker":     String(p.Ticker),
			"ts":         Int(p.TS),
			"value":      Float(p.Value),
			"interval":   Int(p.Interval),
			"valueUnit":  String(p.ValueUnit),
		})
	}
	return t
}
