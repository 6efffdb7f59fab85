// Package fetch downloads raw company documents from the upstream API and
// writes the per-ticker company and price files.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"tickerlab/internal/config"
	"tickerlab/internal/tabular"
)

const sessionCookie = "compoundeer.session-token"

// ShapeError reports a response that parsed as JSON but did not carry the
// expected envelope. Shape errors are retryable: the API intermittently
// returns partial payloads.
type ShapeError struct {
	Ticker string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape for %s: %s", e.Ticker, e.Reason)
}

// Client fetches one company document per request from the tRPC batch
// endpoint. Transport-level retries (connection failures, 5xx) are handled
// by the underlying retryable client; envelope-level retries belong to the
// caller.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	token     string
	userAgent string
	log       *zap.SugaredLogger
}

func NewClient(s *config.Settings, log *zap.SugaredLogger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = s.MaxRetries - 1
	rc.HTTPClient.Timeout = s.RequestTimeout
	rc.Logger = nil

	return &Client{
		http:      rc,
		baseURL:   s.BaseURL,
		token:     s.SessionToken,
		userAgent: s.UserAgent,
		log:       log,
	}
}

// FetchCompany retrieves the raw company document for ticker. The returned
// value is the company object itself, unwrapped from the batch envelope.
func (c *Client) FetchCompany(ctx context.Context, ticker string) (tabular.Value, error) {
	input, err := json.Marshal(map[string]map[string]string{"0": {"json": ticker}})
	if err != nil {
		return tabular.Null(), fmt.Errorf("encode request input: %w", err)
	}
	reqURL := fmt.Sprintf("%s?batch=1&input=%s", c.baseURL, url.QueryEscape(string(input)))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return tabular.Null(), fmt.Errorf("build request for %s: %w", ticker, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return tabular.Null(), fmt.Errorf("fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return tabular.Null(), fmt.Errorf("fetch %s: unexpected status %d", ticker, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tabular.Null(), fmt.Errorf("read response for %s: %w", ticker, err)
	}

	company, err := unwrapCompany(body, ticker)
	if err != nil {
		return tabular.Null(), err
	}

	c.log.Debugw("fetched company document", "ticker", ticker, "bytes", len(body))
	return company, nil
}

// unwrapCompany digs the company object out of the tRPC batch envelope:
// [0].result.data.json.company.
func unwrapCompany(body []byte, ticker string) (tabular.Value, error) {
	root, err := tabular.ParseJSON(body)
	if err != nil {
		return tabular.Null(), &ShapeError{Ticker: ticker, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if root.Kind() != tabular.KindList || len(root.AsList()) == 0 {
		return tabular.Null(), &ShapeError{Ticker: ticker, Reason: "response is not a non-empty batch array"}
	}

	v := root.AsList()[0]
	for _, key := range []string{"result", "data", "json", "company"} {
		next, ok := v.MapGet(key)
		if !ok {
			return tabular.Null(), &ShapeError{Ticker: ticker, Reason: fmt.Sprintf("missing %q in envelope", key)}
		}
		v = next
	}
	if v.Kind() != tabular.KindMap {
		return tabular.Null(), &ShapeError{Ticker: ticker, Reason: "company is not an object"}
	}
	return v, nil
}
