// Package pipeline wires the per-ticker stages together: convert raw
// documents to tabular exports, report per-ticker status, load exports into
// storage sinks, and run the full fetch-convert-validate cycle.
package pipeline

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"tickerlab/internal/config"
	"tickerlab/internal/domain"
	"tickerlab/internal/export"
	"tickerlab/internal/mapping"
	"tickerlab/internal/tabular"
)

// Converter turns a ticker's raw JSON documents into the CSV, Parquet, and
// SQL exports, extracting the price table along the way.
type Converter struct {
	Paths config.Paths
	Log   *zap.SugaredLogger

	csv     export.CSV
	sql     export.SQL
	parquet export.Parquet
	json    export.JSON
}

// ConvertResult reports the rows written for one ticker, identical across
// formats.
type ConvertResult struct {
	Ticker      string
	CompanyRows int
	PriceRows   int
}

// ConvertTicker converts one ticker. The company document must exist; a
// missing standalone price document falls back to extracting the embedded
// series and materializes the price JSON file as well.
func (c *Converter) ConvertTicker(ticker string) (*ConvertResult, error) {
	ticker = domain.NormalizeTicker(ticker)
	tp := c.Paths.TickerPaths(ticker)

	data, err := os.ReadFile(tp.CompanyJSON)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no company data for %s, fetch it first", ticker)
		}
		return nil, fmt.Errorf("read company document for %s: %w", ticker, err)
	}

	records, err := companyRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parse company document for %s: %w", ticker, err)
	}

	companyTable := tabular.NewTable()
	for i, record := range records {
		columns, row, err := tabular.FlattenCompany(record)
		if err != nil {
			return nil, fmt.Errorf("flatten record %d for %s: %w", i+1, ticker, err)
		}
		companyTable.Append(columns, row)
	}

	points, wrotePriceJSON, err := c.resolvePrices(tp, records, ticker)
	if err != nil {
		return nil, err
	}
	priceTable := tabular.PriceTable(points)

	if _, err := c.csv.ExportCompanyTable(companyTable, tp.CompanyCSV); err != nil {
		return nil, fmt.Errorf("export company csv for %s: %w", ticker, err)
	}
	if _, err := c.parquet.ExportCompanyTable(companyTable, tp.CompanyParquet); err != nil {
		return nil, fmt.Errorf("export company parquet for %s: %w", ticker, err)
	}
	if _, err := c.sql.ExportCompanyTable(companyTable, tp.CompanySQL); err != nil {
		return nil, fmt.Errorf("export company sql for %s: %w", ticker, err)
	}

	if !wrotePriceJSON {
		if _, err := c.json.ExportPriceTable(priceTable, tp.PriceJSON); err != nil {
			return nil, fmt.Errorf("export price json for %s: %w", ticker, err)
		}
	}
	if _, err := c.csv.ExportPriceTable(priceTable, tp.PriceCSV); err != nil {
		return nil, fmt.Errorf("export price csv for %s: %w", ticker, err)
	}
	if _, err := c.parquet.ExportPriceTable(priceTable, tp.PriceParquet); err != nil {
		return nil, fmt.Errorf("export price parquet for %s: %w", ticker, err)
	}
	if _, err := c.sql.ExportPriceTable(priceTable, tp.PriceSQL); err != nil {
		return nil, fmt.Errorf("export price sql for %s: %w", ticker, err)
	}

	c.Log.Infow("converted ticker",
		"ticker", ticker,
		"company_rows", len(companyTable.Rows),
		"price_rows", len(priceTable.Rows),
	)
	return &ConvertResult{
		Ticker:      ticker,
		CompanyRows: len(companyTable.Rows),
		PriceRows:   len(priceTable.Rows),
	}, nil
}

// resolvePrices prefers the standalone price document over the series
// embedded in the company records. The second return reports whether the
// price JSON file already existed.
func (c *Converter) resolvePrices(tp config.TickerPaths, records []tabular.Value, ticker string) ([]domain.PricePoint, bool, error) {
	companyID := int64(0)
	if len(records) > 0 {
		if id, ok := records[0].MapGet("id"); ok && id.IsNumber() {
			companyID = id.AsInt()
		}
	}

	data, err := os.ReadFile(tp.PriceJSON)
	if err == nil {
		doc, err := tabular.ParseJSON(data)
		if err != nil {
			return nil, false, fmt.Errorf("parse price document for %s: %w", ticker, err)
		}
		points, err := tabular.ParsePriceDoc(doc, companyID, ticker)
		if err != nil {
			return nil, false, fmt.Errorf("parse price document for %s: %w", ticker, err)
		}
		return points, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("read price document for %s: %w", ticker, err)
	}

	var points []domain.PricePoint
	for _, record := range records {
		id := companyID
		if v, ok := record.MapGet("id"); ok && v.IsNumber() {
			id = v.AsInt()
		}
		points = append(points, tabular.ExtractPrices(record, id, ticker)...)
	}
	return points, false, nil
}

// ConvertAll converts every requested ticker, or every mapping entry when
// tickers is empty. Tickers without a company document are skipped, not
// failed.
func (c *Converter) ConvertAll(tickers []string) ([]ConvertResult, error) {
	if len(tickers) == 0 {
		entries, err := mapping.Load(c.Paths.MappingFile)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			tickers = append(tickers, e.Ticker)
		}
	}

	var results []ConvertResult
	for _, t := range tickers {
		ticker := domain.NormalizeTicker(t)
		if _, err := os.Stat(c.Paths.TickerPaths(ticker).CompanyJSON); os.IsNotExist(err) {
			c.Log.Warnw("no company data, skipping", "ticker", ticker)
			continue
		}

		res, err := c.ConvertTicker(ticker)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// companyRecords accepts a single company object or an array of them.
func companyRecords(data []byte) ([]tabular.Value, error) {
	root, err := tabular.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	switch root.Kind() {
	case tabular.KindMap:
		return []tabular.Value{root}, nil
	case tabular.KindList:
		return root.AsList(), nil
	default:
		return nil, fmt.Errorf("company document must be an object or an array, got %s", root.Kind())
	}
}
