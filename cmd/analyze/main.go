// Package main provides the batch analysis CLI. One invocation runs a
// single detector over a symbol list, streams per-symbol progress and
// prints the result table, with optional CSV export and run-history
// persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"intraday-lab/internal/analyze"
	"intraday-lab/internal/calendar"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/marketdata"
	"intraday-lab/internal/marketdata/stub"
	"intraday-lab/internal/marketdata/yahoo"
	"intraday-lab/internal/reporting"
	chstore "intraday-lab/internal/storage/clickhouse"
	"intraday-lab/internal/storage/file"
	"intraday-lab/internal/storage/migrations"
)

func main() {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	symbols := flag.String("symbols", "", "Comma-separated symbols (overrides -watchlist)")
	watchlist := flag.String("watchlist", envOr("WATCHLIST_FILE", "watchlist.txt"), "Watchlist file path")
	detector := flag.String("detector", "swing", "Detector kind: swing, reversal, dip, anchor")
	threshold := flag.Float64("threshold", 5.0, "Move threshold in percent")
	interval := flag.String("interval", "1m", "Bar interval: 1m, 5m, 15m, 30m, 1h, 1d")
	period := flag.String("period", "", "Lookback period: 1d, 5d, 1mo, 3mo (ignored with -start/-end)")
	startDate := flag.String("start", "", "Range start date, YYYY-MM-DD")
	endDate := flag.String("end", "", "Range end date, YYYY-MM-DD")
	anchor := flag.String("anchor", "", "Anchor time HH:MM (anchor detector only)")
	workers := flag.Int("workers", analyze.DefaultWorkers, "Concurrent symbol fetches")
	csvDir := flag.String("csv-dir", "", "Directory for CSV export (empty disables export)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for run history (empty disables persistence)")
	record := flag.Bool("record", false, "Archive fetched bars (requires -clickhouse-dsn)")
	replay := flag.Bool("replay", false, "Read bars from the archive instead of Yahoo (requires -clickhouse-dsn)")
	demo := flag.Bool("demo", false, "Use the deterministic stub provider instead of Yahoo")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("cancelling run")
		cancel()
	}()

	req, err := buildRequest(ctx, *symbols, *watchlist, *detector, *threshold, *interval, *period, *startDate, *endDate, *anchor)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid arguments")
	}

	opts := analyze.Options{
		Calendar: calendar.NewWeekday(),
		Clock:    calendar.SystemClock{},
		Workers:  *workers,
		Logger:   &logger,
	}

	// Run history and the bar archive share one ClickHouse connection.
	var conn *chstore.Conn
	if *clickhouseDSN != "" {
		conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("clickhouse setup failed")
		}
		defer conn.Close()
		opts.RunStore = chstore.NewRunStore(conn)
		opts.SummaryStore = chstore.NewSummaryStore(conn)
		opts.DetailStore = chstore.NewDetailStore(conn)
	}

	opts.Provider, err = buildProvider(conn, req, &logger, *demo, *replay, *record)
	if err != nil {
		logger.Fatal().Err(err).Msg("provider setup failed")
	}

	// Progress lines stream to stdout while workers run.
	events := make(chan domain.ProgressEvent, 64)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for ev := range events {
			printProgress(ev)
		}
	}()
	opts.Events = events

	res, runErr := analyze.New(opts).Run(ctx, req)
	close(events)
	<-printerDone

	if runErr != nil {
		var cfgErr *analyze.ConfigurationError
		if errors.As(runErr, &cfgErr) {
			logger.Fatal().Err(runErr).Msg("invalid run configuration")
		}
		logger.Warn().Err(runErr).Msg("run aborted, printing partial result")
	}
	if res == nil {
		os.Exit(1)
	}

	report := reporting.NewGenerator().Generate(res.Record(), res.Summaries, res.Warnings, res.Errors)
	fmt.Print(reporting.RenderText(report))

	if *csvDir != "" && runErr == nil {
		if err := exportCSV(*csvDir, report); err != nil {
			logger.Error().Err(err).Msg("csv export failed")
			os.Exit(1)
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// buildRequest assembles the analysis request from flag values. Symbols
// come from -symbols when given, otherwise from the watchlist file.
func buildRequest(ctx context.Context, symbolsFlag, watchlistPath, detector string, threshold float64, interval, period, startDate, endDate, anchor string) (domain.AnalysisRequest, error) {
	req := domain.AnalysisRequest{
		Detector:  domain.DetectorKind(detector),
		Threshold: threshold,
		Interval:  domain.Interval(interval),
		Period:    domain.Period(period),
	}

	if symbolsFlag != "" {
		req.Symbols = strings.Split(symbolsFlag, ",")
	} else {
		syms, err := file.NewWatchlistStore(watchlistPath).Load(ctx)
		if err != nil {
			return req, fmt.Errorf("load watchlist %s: %w", watchlistPath, err)
		}
		req.Symbols = syms
	}

	if anchor != "" {
		at, err := domain.ParseTimeOfDay(anchor)
		if err != nil {
			return req, fmt.Errorf("parse -anchor: %w", err)
		}
		req.AnchorTime = at
	}

	if startDate != "" || endDate != "" {
		var err error
		if req.Start, err = parseDate(startDate); err != nil {
			return req, fmt.Errorf("parse -start: %w", err)
		}
		if req.End, err = parseDate(endDate); err != nil {
			return req, fmt.Errorf("parse -end: %w", err)
		}
	}

	return req, nil
}

// buildProvider selects the bar source. Default is Yahoo; -demo swaps
// in the stub, -replay reads the archive, -record wraps Yahoo with
// archive write-through.
func buildProvider(conn *chstore.Conn, req domain.AnalysisRequest, logger *zerolog.Logger, demo, replay, record bool) (marketdata.Provider, error) {
	switch {
	case demo:
		return demoProvider(req), nil

	case replay:
		if conn == nil {
			return nil, errors.New("-replay requires -clickhouse-dsn")
		}
		return marketdata.NewArchiveProvider(chstore.NewBarStore(conn)), nil

	default:
		var provider marketdata.Provider = yahoo.NewClient(yahoo.ClientOptions{Logger: logger})
		if record {
			if conn == nil {
				return nil, errors.New("-record requires -clickhouse-dsn")
			}
			provider = marketdata.NewRecordingProvider(provider, chstore.NewBarStore(conn), logger)
		}
		return provider, nil
	}
}

// demoProvider preloads the stub with synthetic sessions for the last
// five trading days so every detector has data to chew on.
func demoProvider(req domain.AnalysisRequest) *stub.Provider {
	interval := req.Interval
	if !interval.Valid() {
		interval = domain.Interval1Min
	}
	sessionLen := calendar.MarketClose.MinuteOfDay() - calendar.MarketOpen.MinuteOfDay()
	count := sessionLen * int(time.Minute) / int(interval.Duration())
	if count < 1 {
		count = 1
	}

	cal := calendar.NewWeekday()
	start, end := cal.TradingDaysBack(time.Now(), 5)

	p := stub.NewProvider()
	for _, symbol := range domain.NormalizeSymbols(req.Symbols) {
		var bars []domain.Bar
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !cal.IsTradingDay(d) {
				continue
			}
			bars = append(bars, stub.GenerateSession(symbol, d, interval, count, 100)...)
		}
		p.SetBars(symbol, interval, bars)
	}
	return p
}

func printProgress(ev domain.ProgressEvent) {
	switch ev.Type {
	case domain.EventRunStarted:
		fmt.Printf("run %s: %d symbols\n", ev.RunID, ev.Total)
	case domain.EventSymbolAnalyzed:
		fmt.Printf("[%d/%d] %s\n", ev.Completed, ev.Total, ev.Symbol)
	case domain.EventSymbolSkipped:
		fmt.Printf("[%d/%d] %s skipped: %s\n", ev.Completed, ev.Total, ev.Symbol, ev.Reason)
	case domain.EventWarning:
		fmt.Printf("warning: %s\n", ev.Reason)
	case domain.EventRunFinished:
		fmt.Printf("completed %d of %d symbols\n", ev.Completed, ev.Total)
	}
}

// exportCSV writes the report to dir under the default timestamped
// filename.
func exportCSV(dir string, r *reporting.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, reporting.DefaultFilename(r.Run, r.GeneratedAt))
	if err := os.WriteFile(path, []byte(reporting.RenderCSV(r)), 0644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Printf("csv written to %s\n", path)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date range requires both -start and -end")
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
