package domain

// PricePoint is a single stock-price observation. Points are never authored
// directly; they are always extracted from a company record's
// insights.stock_price list or from a sibling stock-price document.
// List order is kept as received; chronological sort is not enforced here
// (downstream metrics assume most-recent-last).
type PricePoint struct {
	CompanyID int64   `json:"company_id"`
	Ticker    string  `json:"ticker"`
	TS        int64   `json:"ts"`
	Value     float64 `json:"value"`
	Interval  int64   `json:"interval"`
	ValueUnit string  `json:"valueUnit"`
}

// PriceColumns is the fixed column order of the flattened price table. The
// price table keeps this schema even when it holds zero rows, so empty
// exports still produce a valid header-only or schema-only file.
var PriceColumns = []string{"company_id", "ticker", "ts", "value", "interval", "valueUnit"}
