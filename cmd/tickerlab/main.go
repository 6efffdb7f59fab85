package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tickerlab/internal/analytics"
	"tickerlab/internal/config"
	"tickerlab/internal/domain"
	"tickerlab/internal/fetch"
	"tickerlab/internal/logging"
	"tickerlab/internal/mapping"
	"tickerlab/internal/pipeline"
	chstore "tickerlab/internal/storage/clickhouse"
	"tickerlab/internal/storage/migrations"
	pgstore "tickerlab/internal/storage/postgres"
	"tickerlab/internal/validate"
)

var (
	cfgFile  string
	settings *config.Settings
	logger   *zap.SugaredLogger
)

func main() {
	root := &cobra.Command{
		Use:           "tickerlab",
		Short:         "Fetch, convert, validate, and analyze per-ticker company data",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			settings = s

			l, err := logging.NewLogger(s.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger = l
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")

	root.AddCommand(
		setupCmd(),
		fetchCmd(),
		convertCmd(),
		validateCmd(),
		fixMappingCmd(),
		analyticsCmd(),
		statusCmd(),
		listCmd(),
		updateCmd(),
		loadCmd(),
	)

	err := root.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

// signalContext cancels on SIGINT or SIGTERM so in-flight workers drain.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newConverter() *pipeline.Converter {
	return &pipeline.Converter{Paths: settings.Paths, Log: logger}
}

func newFetcher() *fetch.Fetcher {
	client := fetch.NewClient(settings, logger)
	return fetch.NewFetcher(client, settings, logger)
}

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the data directory and an empty ticker mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Paths.EnsureDataDir(); err != nil {
				return err
			}
			path := settings.Paths.MappingFile
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("mapping file already exists: %s\n", path)
				return nil
			}
			if err := mapping.Save(path, nil); err != nil {
				return err
			}
			fmt.Printf("created %s\n", path)
			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "fetch [tickers...]",
		Short: "Download company documents for the given tickers, or every mapping entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			summary, err := newFetcher().Run(ctx, args, resume)
			if err != nil {
				return err
			}
			printFetchSummary(summary)
			if summary.Failed > 0 {
				return fmt.Errorf("%d tickers failed", summary.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "skip tickers whose company document already exists")
	return cmd
}

func printFetchSummary(s fetch.Summary) {
	fmt.Printf("fetched %d, failed %d, skipped %d\n", s.Succeeded, s.Failed, s.Skipped)
	for _, f := range s.Failures {
		fmt.Printf("  %s: %v\n", f.Ticker, f.Err)
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [tickers...]",
		Short: "Convert fetched documents to CSV, Parquet, and SQL exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := newConverter().ConvertAll(args)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("nothing to convert")
				return nil
			}

			tw := newTableWriter()
			tw.AppendHeader(table.Row{"TICKER", "COMPANY ROWS", "PRICE ROWS"})
			for _, r := range results {
				tw.AppendRow(table.Row{r.Ticker, r.CompanyRows, r.PriceRows})
			}
			tw.Render()
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [tickers...]",
		Short: "Validate the ticker mapping and the fetched company documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			var problems []string

			count, errs := mapping.Validate(settings.Paths.MappingFile)
			fmt.Printf("mapping: %d entries, %d errors\n", count, len(errs))
			for _, e := range errs {
				problems = append(problems, "mapping: "+e)
			}

			tickers := args
			if len(tickers) == 0 {
				entries, err := mapping.Load(settings.Paths.MappingFile)
				if err != nil {
					return err
				}
				for _, e := range entries {
					tickers = append(tickers, e.Ticker)
				}
			}
			for _, t := range tickers {
				ticker := domain.NormalizeTicker(t)
				path := settings.Paths.TickerPaths(ticker).CompanyJSON
				if _, err := os.Stat(path); os.IsNotExist(err) {
					fmt.Printf("%s: no company document\n", ticker)
					continue
				}
				n, errs := validate.Records(path)
				fmt.Printf("%s: %d records, %d errors\n", ticker, n, len(errs))
				for _, e := range errs {
					problems = append(problems, ticker+": "+e)
				}
			}

			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Println("  " + p)
				}
				return fmt.Errorf("%d validation errors", len(problems))
			}
			fmt.Println("all good")
			return nil
		},
	}
}

func fixMappingCmd() *cobra.Command {
	var backup string
	cmd := &cobra.Command{
		Use:   "fix-mapping",
		Short: "Renumber mapping ids sequentially, keeping a backup of the original",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settings.Paths.MappingFile
			if backup == "" {
				backup = path + ".bak"
			}
			n, err := mapping.FixIDs(path, backup)
			if err != nil {
				return err
			}
			fmt.Printf("renumbered %d entries, backup at %s\n", n, backup)
			return nil
		},
	}
	cmd.Flags().StringVar(&backup, "backup", "", "backup file path (default <mapping>.bak)")
	return cmd
}

func analyticsCmd() *cobra.Command {
	var (
		horizon int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "analytics <ticker>",
		Short: "Compute price metrics over the most recent horizon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if horizon == 0 {
				horizon = settings.HorizonDays
			}
			ticker := domain.NormalizeTicker(args[0])
			tp := settings.Paths.TickerPaths(ticker)
			report, err := analytics.FromFiles(tp.CompanyJSON, tp.PriceJSON, ticker, horizon)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			m := report.Metrics
			vol := "n/a"
			if m.Volatility != nil {
				vol = fmt.Sprintf("%.4f", *m.Volatility)
			}
			tw := newTableWriter()
			tw.AppendHeader(table.Row{"METRIC", "VALUE"})
			tw.AppendRow(table.Row{"ticker", report.Ticker})
			tw.AppendRow(table.Row{"horizon days", report.HorizonDays})
			tw.AppendRow(table.Row{"observations", m.Observations})
			tw.AppendRow(table.Row{"latest", fmt.Sprintf("%.2f", m.Latest)})
			tw.AppendRow(table.Row{"average", fmt.Sprintf("%.2f", m.Average)})
			tw.AppendRow(table.Row{"high", fmt.Sprintf("%.2f", m.High)})
			tw.AppendRow(table.Row{"low", fmt.Sprintf("%.2f", m.Low)})
			tw.AppendRow(table.Row{"annualized volatility", vol})
			tw.AppendRow(table.Row{"max drawdown %", fmt.Sprintf("%.2f", m.MaxDrawdownPct)})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", 0, "window in observations (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [tickers...]",
		Short: "Show which output formats exist per ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := newConverter().Status(args)
			if err != nil {
				return err
			}

			tw := newTableWriter()
			tw.AppendHeader(table.Row{"TICKER", "ID", "NAME", "COMPANY", "PRICE"})
			for _, st := range statuses {
				tw.AppendRow(table.Row{
					st.Ticker, st.ID, st.Name,
					formatCell(st.Company), formatCell(st.Price),
				})
			}
			tw.Render()
			return nil
		},
	}
}

// formatCell summarizes which formats exist for one dataset.
func formatCell(f pipeline.FormatStatus) string {
	if f.Complete() {
		return "complete"
	}
	var present []string
	for _, fs := range []struct {
		name string
		ok   bool
	}{
		{"json", f.JSON},
		{"csv", f.CSV},
		{"parquet", f.Parquet},
		{"sql", f.SQL},
	} {
		if fs.ok {
			present = append(present, fs.name)
		}
	}
	if len(present) == 0 {
		return "missing"
	}
	return strings.Join(present, ",")
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the ticker mapping entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := mapping.Load(settings.Paths.MappingFile)
			if err != nil {
				return err
			}

			tw := newTableWriter()
			tw.AppendHeader(table.Row{"ID", "TICKER", "NAME"})
			for _, e := range entries {
				tw.AppendRow(table.Row{e.ID, e.Ticker, e.Name})
			}
			tw.Render()
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "update [tickers...]",
		Short: "Fetch, convert, and validate in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			u := &pipeline.Updater{
				Fetcher:   newFetcher(),
				Converter: newConverter(),
				Log:       logger,
			}
			summary, err := u.Update(ctx, args, resume)
			if err != nil {
				return err
			}

			printFetchSummary(summary.Fetch)
			fmt.Printf("converted %d tickers\n", len(summary.Converted))
			for _, e := range summary.ValidationErrors {
				fmt.Println("  " + e)
			}
			if !summary.Ok() {
				return fmt.Errorf("update finished with failures")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "skip tickers whose company document already exists")
	return cmd
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [tickers...]",
		Short: "Load converted documents into PostgreSQL and, if configured, ClickHouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settings.PostgresDSN == "" {
				return fmt.Errorf("postgres_dsn is not configured")
			}

			ctx, cancel := signalContext()
			defer cancel()

			pool, err := pgstore.NewPool(ctx, settings.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("migrate postgres: %w", err)
			}

			loader := &pipeline.Loader{
				Companies: pgstore.NewCompanyStore(pool),
				Prices:    pgstore.NewPriceStore(pool),
				Paths:     settings.Paths,
				Log:       logger,
			}

			if settings.ClickHouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, settings.ClickHouseDSN)
				if err != nil {
					return fmt.Errorf("migrate clickhouse: %w", err)
				}
				defer conn.Close()
				loader.Series = chstore.NewPriceSeriesStore(conn)
			}

			tickers := args
			if len(tickers) == 0 {
				entries, err := mapping.Load(settings.Paths.MappingFile)
				if err != nil {
					return err
				}
				for _, e := range entries {
					tickers = append(tickers, e.Ticker)
				}
			}

			tw := newTableWriter()
			tw.AppendHeader(table.Row{"TICKER", "COMPANY ID", "PRICE POINTS"})
			for _, t := range tickers {
				res, err := loader.LoadTicker(ctx, t)
				if err != nil {
					return err
				}
				tw.AppendRow(table.Row{res.Ticker, res.CompanyID, res.PricePoints})
			}
			tw.Render()
			return nil
		},
	}
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}
