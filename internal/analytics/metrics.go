// Package analytics computes rolling price statistics from an extracted
// price series.
package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"tickerlab/internal/domain"
)

// TradingDaysPerYear scales per-observation return volatility to an annual
// figure.
const TradingDaysPerYear = 252

// Metrics holds rolling statistics over the trailing horizon window.
// Volatility is nil when fewer than 2 usable returns exist.
type Metrics struct {
	Latest         float64  `json:"latest"`
	Average        float64  `json:"average"`
	High           float64  `json:"high"`
	Low            float64  `json:"low"`
	Volatility     *float64 `json:"annualized_volatility"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	Observations   int      `json:"observations"`
}

// Report is the file-level analytics result for one ticker.
type Report struct {
	Ticker      string  `json:"ticker"`
	HorizonDays int     `json:"horizon_days"`
	GeneratedAt string  `json:"generated_at"`
	Metrics     Metrics `json:"metrics"`
}

// Compute calculates metrics over the most recent horizonDays observations
// of prices (or all of them when the series is shorter, or when horizonDays
// is zero or negative). Prices must be in chronological order. An empty
// window is an error result, never a panic.
func Compute(prices []float64, horizonDays int) (*Metrics, error) {
	window := prices
	if horizonDays > 0 && len(window) > horizonDays {
		window = window[len(window)-horizonDays:]
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("no price observations in window")
	}

	m := &Metrics{
		Latest:       window[len(window)-1],
		Average:      computeMean(window),
		High:         window[0],
		Low:          window[0],
		Observations: len(window),
	}
	for _, p := range window {
		if p > m.High {
			m.High = p
		}
		if p < m.Low {
			m.Low = p
		}
	}

	returns := periodReturns(window)
	if len(returns) >= 2 {
		vol := computeStddev(returns, computeMean(returns)) * math.Sqrt(TradingDaysPerYear)
		m.Volatility = &vol
	}
	m.MaxDrawdownPct = computeMaxDrawdownPct(window)

	return m, nil
}

// FromFiles builds an analytics report for ticker from its company and price
// documents on disk. The company document is only consulted to confirm the
// ticker was actually fetched; the metrics come from the price document.
func FromFiles(companyPath, pricePath, ticker string, horizonDays int) (*Report, error) {
	if _, err := os.Stat(companyPath); err != nil {
		return nil, fmt.Errorf("no company data for %s, fetch it first: %w", ticker, err)
	}

	data, err := os.ReadFile(pricePath)
	if err != nil {
		return nil, fmt.Errorf("read price series for %s: %w", ticker, err)
	}
	var points []domain.PricePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse price series for %s: %w", ticker, err)
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Value
	}

	m, err := Compute(prices, horizonDays)
	if err != nil {
		return nil, fmt.Errorf("compute metrics for %s: %w", ticker, err)
	}

	return &Report{
		Ticker:      ticker,
		HorizonDays: horizonDays,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Metrics:     *m,
	}, nil
}

// periodReturns computes period-over-period fractional change, dropping the
// first observation and any return whose base price is zero.
func periodReturns(prices []float64) []float64 {
	var returns []float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeMaxDrawdownPct calculates the largest peak-to-trough relative
// decline over the window as a positive percentage. Prices must be in
// chronological order.
func computeMaxDrawdownPct(prices []float64) float64 {
	peak := 0.0
	maxDrawdown := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - p) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
