// Package config resolves runtime settings from, in order of precedence,
// environment variables (TICKERLAB_ prefix), an optional YAML config file,
// and built-in defaults. A .env file in the working directory is loaded into
// the environment first if present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL     = "https://compoundeer.com/api/trpc/company.getCompany"
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultConcurrency = 4
	DefaultHorizonDays = 30
)

// Settings is the resolved runtime configuration.
type Settings struct {
	BaseURL        string
	SessionToken   string
	UserAgent      string
	RequestTimeout time.Duration
	MaxRetries     int
	Concurrency    int
	HorizonDays    int
	Development    bool

	Paths Paths

	// Optional storage sinks; empty means the sink is disabled.
	PostgresDSN   string
	ClickHouseDSN string
}

// Paths resolves every on-disk location the pipeline reads or writes. The
// core components never compute paths themselves; they receive them from
// here.
type Paths struct {
	DataDir     string
	MappingFile string
}

// TickerPaths is the full set of per-ticker output files across formats.
type TickerPaths struct {
	Dir string

	CompanyJSON    string
	CompanyCSV     string
	CompanyParquet string
	CompanySQL     string

	PriceJSON    string
	PriceCSV     string
	PriceParquet string
	PriceSQL     string
}

// TickerPaths resolves the per-ticker directory layout. Files are
// ticker-prefixed and namespaced under a directory named after the ticker.
func (p Paths) TickerPaths(ticker string) TickerPaths {
	dir := filepath.Join(p.DataDir, ticker)
	company := filepath.Join(dir, ticker+"_company_details")
	price := filepath.Join(dir, ticker+"_stock_price_insights")
	return TickerPaths{
		Dir:            dir,
		CompanyJSON:    company + ".json",
		CompanyCSV:     company + ".csv",
		CompanyParquet: company + ".parquet",
		CompanySQL:     company + ".sql",
		PriceJSON:      price + ".json",
		PriceCSV:       price + ".csv",
		PriceParquet:   price + ".parquet",
		PriceSQL:       price + ".sql",
	}
}

// EnsureDataDir creates the data directory if missing.
func (p Paths) EnsureDataDir() error {
	if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// Load resolves Settings. configFile may be empty; when set it must exist
// and parse as YAML.
func Load(configFile string) (*Settings, error) {
	// Missing .env is fine, only surface real read failures.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TICKERLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("request_timeout", DefaultTimeout)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("horizon_days", DefaultHorizonDays)
	v.SetDefault("development", false)
	v.SetDefault("data_dir", "data")
	v.SetDefault("mapping_file", filepath.Join("data", "ticker_mapping.json"))
	v.SetDefault("session_token", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("clickhouse_dsn", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	s := &Settings{
		BaseURL:        v.GetString("base_url"),
		SessionToken:   v.GetString("session_token"),
		UserAgent:      v.GetString("user_agent"),
		RequestTimeout: v.GetDuration("request_timeout"),
		MaxRetries:     v.GetInt("max_retries"),
		Concurrency:    v.GetInt("concurrency"),
		HorizonDays:    v.GetInt("horizon_days"),
		Development:    v.GetBool("development"),
		Paths: Paths{
			DataDir:     v.GetString("data_dir"),
			MappingFile: v.GetString("mapping_file"),
		},
		PostgresDSN:   v.GetString("postgres_dsn"),
		ClickHouseDSN: v.GetString("clickhouse_dsn"),
	}

	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	if s.MaxRetries < 1 {
		s.MaxRetries = 1
	}
	return s, nil
}
