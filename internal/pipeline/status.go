package pipeline

import (
	"os"

	"tickerlab/internal/domain"
	"tickerlab/internal/mapping"
)

// FormatStatus reports which output formats exist on disk for one dataset.
type FormatStatus struct {
	JSON    bool
	CSV     bool
	Parquet bool
	SQL     bool
}

func (f FormatStatus) Complete() bool {
	return f.JSON && f.CSV && f.Parquet && f.SQL
}

// TickerStatus is the per-ticker view of what has been produced so far.
type TickerStatus struct {
	Ticker  string
	Name    string
	ID      int64
	Company FormatStatus
	Price   FormatStatus
}

// Status inspects the per-ticker directories for the requested tickers, or
// for every mapping entry when tickers is empty.
func (c *Converter) Status(tickers []string) ([]TickerStatus, error) {
	entries, err := mapping.Load(c.Paths.MappingFile)
	if err != nil {
		return nil, err
	}

	byTicker := make(map[string]domain.MappingEntry, len(entries))
	for _, e := range entries {
		byTicker[e.Ticker] = e
	}

	if len(tickers) == 0 {
		for _, e := range entries {
			tickers = append(tickers, e.Ticker)
		}
	}

	statuses := make([]TickerStatus, 0, len(tickers))
	for _, t := range tickers {
		ticker := domain.NormalizeTicker(t)
		tp := c.Paths.TickerPaths(ticker)

		st := TickerStatus{
			Ticker: ticker,
			Company: FormatStatus{
				JSON:    fileExists(tp.CompanyJSON),
				CSV:     fileExists(tp.CompanyCSV),
				Parquet: fileExists(tp.CompanyParquet),
				SQL:     fileExists(tp.CompanySQL),
			},
			Price: FormatStatus{
				JSON:    fileExists(tp.PriceJSON),
				CSV:     fileExists(tp.PriceCSV),
				Parquet: fileExists(tp.PriceParquet),
				SQL:     fileExists(tp.PriceSQL),
			},
		}
		if e, ok := byTicker[ticker]; ok {
			st.Name = e.Name
			st.ID = e.ID
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
