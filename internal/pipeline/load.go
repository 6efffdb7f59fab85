package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"tickerlab/internal/config"
	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
	"tickerlab/internal/tabular"
)

// Loader pushes a ticker's converted data into the storage sinks: the
// relational mirror and, when configured, the analytical observation store.
type Loader struct {
	Companies storage.CompanyStore
	Prices    storage.PriceStore
	Series    storage.PriceSeriesStore // optional
	Paths     config.Paths
	Log       *zap.SugaredLogger
}

// LoadResult reports what one LoadTicker call wrote.
type LoadResult struct {
	Ticker      string
	CompanyID   int64
	PricePoints int
}

// LoadTicker reads the ticker's company and price documents and writes them
// to the sinks. The company row is upserted; the relational price series is
// replaced wholesale; the observation store gets a bulk append.
func (l *Loader) LoadTicker(ctx context.Context, ticker string) (*LoadResult, error) {
	ticker = domain.NormalizeTicker(ticker)
	tp := l.Paths.TickerPaths(ticker)

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
	if len(records) == 0 {
		return nil, fmt.Errorf("company document for %s has no records", ticker)
	}

	company, err := flatCompany(records[0], ticker)
	if err != nil {
		return nil, fmt.Errorf("build company row for %s: %w", ticker, err)
	}

	var points []domain.PricePoint
	if priceData, err := os.ReadFile(tp.PriceJSON); err == nil {
		if err := json.Unmarshal(priceData, &points); err != nil {
			return nil, fmt.Errorf("parse price document for %s: %w", ticker, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read price document for %s: %w", ticker, err)
	}
	for i := range points {
		if points[i].CompanyID == 0 {
			points[i].CompanyID = company.ID
		}
		if points[i].Ticker == "" {
			points[i].Ticker = ticker
		}
	}

	if err := l.Companies.Upsert(ctx, company); err != nil {
		return nil, fmt.Errorf("upsert company %s: %w", ticker, err)
	}
	if err := l.Prices.ReplaceForCompany(ctx, company.ID, points); err != nil {
		return nil, fmt.Errorf("replace price series for %s: %w", ticker, err)
	}
	if l.Series != nil {
		if err := l.Series.InsertBulk(ctx, points); err != nil {
			return nil, fmt.Errorf("insert observations for %s: %w", ticker, err)
		}
	}

	l.Log.Infow("loaded ticker into storage",
		"ticker", ticker, "company_id", company.ID, "price_points", len(points))
	return &LoadResult{Ticker: ticker, CompanyID: company.ID, PricePoints: len(points)}, nil
}

// flatCompany breaks the flattened row into the well-known scalar columns
// and keeps the rest as extra fields.
func flatCompany(record tabular.Value, ticker string) (*domain.FlatCompany, error) {
	columns, row, err := tabular.FlattenCompany(record)
	if err != nil {
		return nil, err
	}

	c := &domain.FlatCompany{Ticker: ticker, Extra: make(map[string]any)}
	for _, col := range columns {
		v := row[col]
		switch col {
		case "id":
			if !v.IsNumber() {
				return nil, fmt.Errorf("record id must be numeric")
			}
			c.ID = v.AsInt()
		case "name":
			c.Name = v.AsString()
		case "ticker":
			if s := v.AsString(); s != "" {
				c.Ticker = domain.NormalizeTicker(s)
			}
		case "sector":
			c.Sector = optString(v)
		case "industry":
			c.Industry = optString(v)
		case "description":
			c.Description = optString(v)
		default:
			c.Extra[col] = v.ToAny()
		}
	}
	if c.ID == 0 {
		return nil, fmt.Errorf("record is missing id")
	}
	return c, nil
}

func optString(v tabular.Value) *string {
	if v.Kind() != tabular.KindString || v.AsString() == "" {
		return nil
	}
	s := v.AsString()
	return &s
}
