package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"tickerlab/internal/config"
	"tickerlab/internal/domain"
	"tickerlab/internal/mapping"
	"tickerlab/internal/tabular"
)

// CompanyFetcher retrieves one raw company document per ticker.
type CompanyFetcher interface {
	FetchCompany(ctx context.Context, ticker string) (tabular.Value, error)
}

// Result is the per-ticker outcome of a fetch run.
type Result struct {
	Ticker string
	Err    error
}

// Summary tallies a whole fetch run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Result
}

// Fetcher drives fetch runs: resolves targets against the mapping file,
// fans the downloads out over a bounded worker pool, and writes the raw
// company and extracted price documents per ticker.
type Fetcher struct {
	Client   CompanyFetcher
	Settings *config.Settings
	Policy   Policy
	Log      *zap.SugaredLogger
}

func NewFetcher(client CompanyFetcher, s *config.Settings, log *zap.SugaredLogger) *Fetcher {
	p := DefaultPolicy
	if s.MaxRetries > 0 {
		p.MaxAttempts = s.MaxRetries
	}
	return &Fetcher{Client: client, Settings: s, Policy: p, Log: log}
}

// Run fetches the given tickers, or every mapping entry when tickers is
// empty. Unknown tickers are auto-added to the mapping file before workers
// start. In resume mode, tickers whose company document already exists are
// skipped.
func (f *Fetcher) Run(ctx context.Context, tickers []string, resume bool) (Summary, error) {
	targets, err := f.resolveTargets(tickers)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	pending := make([]domain.MappingEntry, 0, len(targets))
	for _, entry := range targets {
		if resume && f.alreadyFetched(entry.Ticker) {
			f.Log.Infow("already fetched, skipping", "ticker", entry.Ticker)
			summary.Skipped++
			continue
		}
		pending = append(pending, entry)
	}

	workers := f.Settings.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) && len(pending) > 0 {
		workers = len(pending)
	}

	jobs := make(chan domain.MappingEntry)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- Result{Ticker: entry.Ticker, Err: f.fetchOne(ctx, entry)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range pending {
			select {
			case <-ctx.Done():
				return
			case jobs <- entry:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			f.Log.Errorw("fetch failed", "ticker", res.Ticker, "error", res.Err)
			summary.Failed++
			summary.Failures = append(summary.Failures, res)
			continue
		}
		f.Log.Infow("fetch complete", "ticker", res.Ticker)
		summary.Succeeded++
	}

	return summary, ctx.Err()
}

// resolveTargets maps requested tickers to mapping entries, auto-adding
// unknown tickers. With no explicit tickers the whole mapping file is the
// target set.
func (f *Fetcher) resolveTargets(tickers []string) ([]domain.MappingEntry, error) {
	mappingFile := f.Settings.Paths.MappingFile

	if len(tickers) == 0 {
		entries, err := mapping.Load(mappingFile)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("mapping file %s has no entries", mappingFile)
		}
		return entries, nil
	}

	seen := make(map[string]struct{}, len(tickers))
	targets := make([]domain.MappingEntry, 0, len(tickers))
	for _, t := range tickers {
		normalized := domain.NormalizeTicker(t)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		entry, err := mapping.AddTicker(mappingFile, normalized, "")
		if err != nil {
			return nil, fmt.Errorf("register ticker %s: %w", normalized, err)
		}
		targets = append(targets, entry)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no usable tickers requested")
	}
	return targets, nil
}

func (f *Fetcher) alreadyFetched(ticker string) bool {
	_, err := os.Stat(f.Settings.Paths.TickerPaths(ticker).CompanyJSON)
	return err == nil
}

// fetchOne downloads and persists one ticker. Shape errors are retried per
// the policy; other errors surface after the transport client has already
// done its own retries.
func (f *Fetcher) fetchOne(ctx context.Context, entry domain.MappingEntry) error {
	var company tabular.Value
	err := Do(ctx, f.Policy, func(err error) bool {
		var shapeErr *ShapeError
		return errors.As(err, &shapeErr)
	}, func() error {
		var err error
		company, err = f.Client.FetchCompany(ctx, entry.Ticker)
		return err
	})
	if err != nil {
		return err
	}

	return f.writeTickerFiles(entry, company)
}

// writeTickerFiles persists the company document (as an array of one, with
// the embedded price series removed) and the extracted price document.
func (f *Fetcher) writeTickerFiles(entry domain.MappingEntry, company tabular.Value) error {
	companyID := entry.ID
	if id, ok := company.MapGet("id"); ok && id.IsNumber() {
		companyID = id.AsInt()
	}

	points := tabular.ExtractPrices(company, companyID, entry.Ticker)
	stripped := stripEmbeddedPrices(company)

	tp := f.Settings.Paths.TickerPaths(entry.Ticker)
	if err := os.MkdirAll(tp.Dir, 0o755); err != nil {
		return fmt.Errorf("create ticker dir for %s: %w", entry.Ticker, err)
	}

	companyDoc, err := json.MarshalIndent(tabular.List([]tabular.Value{stripped}), "", "  ")
	if err != nil {
		return fmt.Errorf("encode company document for %s: %w", entry.Ticker, err)
	}
	companyDoc = append(companyDoc, '\n')
	if err := os.WriteFile(tp.CompanyJSON, companyDoc, 0o644); err != nil {
		return fmt.Errorf("write company document for %s: %w", entry.Ticker, err)
	}

	if points == nil {
		points = []domain.PricePoint{}
	}
	priceDoc, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("encode price document for %s: %w", entry.Ticker, err)
	}
	priceDoc = append(priceDoc, '\n')
	if err := os.WriteFile(tp.PriceJSON, priceDoc, 0o644); err != nil {
		return fmt.Errorf("write price document for %s: %w", entry.Ticker, err)
	}

	return nil
}

// stripEmbeddedPrices removes insights.stock_price from the company object.
// The series lives in its own document; keeping both would double it.
func stripEmbeddedPrices(company tabular.Value) tabular.Value {
	if company.Kind() != tabular.KindMap {
		return company
	}
	fields := make([]tabular.Field, 0, len(company.Fields()))
	for _, f := range company.Fields() {
		if f.Key != "insights" || f.Value.Kind() != tabular.KindMap {
			fields = append(fields, f)
			continue
		}
		inner := make([]tabular.Field, 0, len(f.Value.Fields()))
		for _, in := range f.Value.Fields() {
			if in.Key == "stock_price" {
				continue
			}
			inner = append(inner, in)
		}
		fields = append(fields, tabular.Field{Key: "insights", Value: tabular.Map(inner)})
	}
	return tabular.Map(fields)
}
