package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tickerlab/internal/config"
	"tickerlab/internal/logging"
	"tickerlab/internal/tabular"
)

func testSettings(baseURL string) *config.Settings {
	return &config.Settings{
		BaseURL:        baseURL,
		SessionToken:   "tok-123",
		UserAgent:      "tickerlab-test",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		Concurrency:    2,
	}
}

func envelope(companyJSON string) string {
	return fmt.Sprintf(`[{"result":{"data":{"json":{"company":%s}}}}]`, companyJSON)
}

func TestFetchCompanyUnwrapsEnvelope(t *testing.T) {
	var gotCookie, gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookie); err == nil {
			gotCookie = c.Value
		}
		gotInput = r.URL.Query().Get("input")
		fmt.Fprint(w, envelope(`{"id": 7, "name": "Acme Corp", "ticker": "ACME"}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL), logging.NewNop())
	company, err := c.FetchCompany(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("FetchCompany: %v", err)
	}

	if gotCookie != "tok-123" {
		t.Errorf("session cookie = %q, want tok-123", gotCookie)
	}
	if gotInput != `{"0":{"json":"ACME"}}` {
		t.Errorf("input param = %q", gotInput)
	}

	name, ok := company.MapGet("name")
	if !ok || name.AsString() != "Acme Corp" {
		t.Errorf("company name = %v", name)
	}
	id, ok := company.MapGet("id")
	if !ok || id.AsInt() != 7 {
		t.Errorf("company id = %v", id)
	}
}

func TestFetchCompanyShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"result":{"data":{}}}]`)
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL), logging.NewNop())
	_, err := c.FetchCompany(context.Background(), "ACME")

	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want *ShapeError", err)
	}
	if shapeErr.Ticker != "ACME" {
		t.Errorf("shape error ticker = %q", shapeErr.Ticker)
	}
}

func TestFetchCompanyBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL), logging.NewNop())
	if _, err := c.FetchCompany(context.Background(), "ACME"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestUnwrapCompanyEmptyBatch(t *testing.T) {
	_, err := unwrapCompany([]byte(`[]`), "ACME")
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want *ShapeError", err)
	}
}

func TestUnwrapCompanyNotAnObject(t *testing.T) {
	_, err := unwrapCompany([]byte(envelope(`"just a string"`)), "ACME")
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want *ShapeError", err)
	}
}

func TestUnwrapCompanyKeepsFieldOrder(t *testing.T) {
	company, err := unwrapCompany([]byte(envelope(`{"zeta": 1, "alpha": 2, "mid": 3}`)), "ACME")
	if err != nil {
		t.Fatalf("unwrapCompany: %v", err)
	}
	var keys []string
	for _, f := range company.Fields() {
		keys = append(keys, f.Key)
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("field order = %v, want %v", keys, want)
		}
	}
	if company.Kind() != tabular.KindMap {
		t.Errorf("kind = %v, want map", company.Kind())
	}
}
