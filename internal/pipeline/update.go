package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tickerlab/internal/domain"
	"tickerlab/internal/fetch"
	"tickerlab/internal/mapping"
	"tickerlab/internal/validate"
)

// Updater runs the full per-ticker cycle: fetch, convert, validate.
type Updater struct {
	Fetcher   *fetch.Fetcher
	Converter *Converter
	Log       *zap.SugaredLogger
}

// UpdateSummary reports each stage of an update run.
type UpdateSummary struct {
	Fetch            fetch.Summary
	Converted        []ConvertResult
	ValidationErrors []string
}

// Ok reports whether every stage finished without failures.
func (s UpdateSummary) Ok() bool {
	return s.Fetch.Failed == 0 && len(s.ValidationErrors) == 0
}

// Update fetches the tickers (all mapping entries when empty), converts
// everything that fetched, and validates the mapping file plus every
// converted company document. Per-ticker fetch failures do not abort the
// remaining stages.
func (u *Updater) Update(ctx context.Context, tickers []string, resume bool) (*UpdateSummary, error) {
	summary := &UpdateSummary{}

	fs, err := u.Fetcher.Run(ctx, tickers, resume)
	if err != nil {
		return summary, fmt.Errorf("fetch stage: %w", err)
	}
	summary.Fetch = fs

	converted, err := u.Converter.ConvertAll(tickers)
	if err != nil {
		return summary, fmt.Errorf("convert stage: %w", err)
	}
	summary.Converted = converted

	if _, errs := mapping.Validate(u.Converter.Paths.MappingFile); len(errs) > 0 {
		for _, e := range errs {
			summary.ValidationErrors = append(summary.ValidationErrors, "mapping: "+e)
		}
	}
	for _, res := range converted {
		ticker := domain.NormalizeTicker(res.Ticker)
		path := u.Converter.Paths.TickerPaths(ticker).CompanyJSON
		if _, errs := validate.Records(path); len(errs) > 0 {
			for _, e := range errs {
				summary.ValidationErrors = append(summary.ValidationErrors, ticker+": "+e)
			}
		}
	}

	u.Log.Infow("update complete",
		"fetched", summary.Fetch.Succeeded,
		"failed", summary.Fetch.Failed,
		"converted", len(summary.Converted),
		"validation_errors", len(summary.ValidationErrors),
	)
	return summary, nil
}
