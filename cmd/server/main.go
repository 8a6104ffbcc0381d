// Package main provides the analysis service. One process serves
// on-demand runs over HTTP, scheduled watchlist runs, run-history
// lookups, a WebSocket progress stream and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"intraday-lab/internal/analyze"
	"intraday-lab/internal/calendar"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/marketdata"
	"intraday-lab/internal/marketdata/stub"
	"intraday-lab/internal/marketdata/yahoo"
	"intraday-lab/internal/observability"
	"intraday-lab/internal/reporting"
	"intraday-lab/internal/storage"
	chstore "intraday-lab/internal/storage/clickhouse"
	"intraday-lab/internal/storage/file"
	"intraday-lab/internal/storage/memory"
	"intraday-lab/internal/storage/migrations"
	pgstore "intraday-lab/internal/storage/postgres"
	"intraday-lab/internal/stream"
)

// Config is read from the environment; a .env file, when present, is
// loaded first.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Schedule ScheduleConfig
}

type ServerConfig struct {
	Addr     string `envconfig:"SERVER_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Workers  int    `envconfig:"WORKERS" default:"4"`
	DemoMode bool   `envconfig:"DEMO_MODE" default:"false"`
}

type StorageConfig struct {
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN"`
	WatchlistFile string `envconfig:"WATCHLIST_FILE" default:"watchlist.txt"`
	RecordBars    bool   `envconfig:"RECORD_BARS" default:"false"`
}

// ScheduleConfig drives the periodic watchlist run. Every == 0
// disables it.
type ScheduleConfig struct {
	Every           time.Duration `envconfig:"SCHEDULE_EVERY" default:"0"`
	Detector        string        `envconfig:"SCHEDULE_DETECTOR" default:"swing"`
	Threshold       float64       `envconfig:"SCHEDULE_THRESHOLD" default:"5"`
	BarInterval     string        `envconfig:"SCHEDULE_BAR_INTERVAL" default:"5m"`
	Period          string        `envconfig:"SCHEDULE_PERIOD" default:"1d"`
	AnchorTime      string        `envconfig:"SCHEDULE_ANCHOR_TIME"`
	MarketHoursOnly bool          `envconfig:"SCHEDULE_MARKET_HOURS_ONLY" default:"false"`
}

func loadConfig() (Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	// First signal drains gracefully, second one forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		select {
		case sig := <-sigCh:
			logger.Error().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	srv, cleanup, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server setup failed")
	}
	defer cleanup()

	err = srv.Run(ctx)
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("shutdown complete")
}

// errRunActive rejects a second concurrent analysis run. Runs share
// one provider rate budget; they queue, they don't overlap.
var errRunActive = errors.New("an analysis run is already active")

// Server wires the runner, stores, hub and HTTP surface together.
type Server struct {
	cfg     Config
	logger  zerolog.Logger
	stores  *stores
	runner  *analyze.Runner
	hub     *stream.Hub
	events  chan domain.ProgressEvent
	metrics *observability.Metrics

	// reporter is nil when run history is not configured.
	reporter *reporting.Generator

	baseCtx   context.Context
	startedAt time.Time
	provider  string

	mu        sync.Mutex
	runActive bool
	lastRunAt time.Time
	runsDone  int
}

// stores bundles the storage backends the server uses.
type stores struct {
	watchlist storage.WatchlistStore
	runs      storage.RunStore
	summaries storage.SummaryStore
	details   storage.DetailStore
	bars      storage.BarStore
}

func newServer(ctx context.Context, cfg Config, logger zerolog.Logger) (*Server, func(), error) {
	st, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	metrics := observability.DefaultMetrics

	provider := buildProvider(st, cfg, &logger)

	events := make(chan domain.ProgressEvent, 256)
	hub := stream.NewHub(stream.Options{Logger: &logger, Metrics: metrics})

	runner := analyze.New(analyze.Options{
		Provider:     provider,
		Calendar:     calendar.NewWeekday(),
		Clock:        calendar.SystemClock{},
		Workers:      cfg.Server.Workers,
		Logger:       &logger,
		Events:       events,
		RunStore:     st.runs,
		SummaryStore: st.summaries,
		DetailStore:  st.details,
		Metrics:      metrics,
	})

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		stores:    st,
		runner:    runner,
		hub:       hub,
		events:    events,
		metrics:   metrics,
		startedAt: time.Now(),
		provider:  provider.Name(),
	}
	if st.runs != nil {
		srv.reporter = reporting.NewGenerator().WithHistory(st.runs, st.summaries, st.details)
	}
	return srv, cleanup, nil
}

// openStores connects the configured backends and applies their
// migrations. Without DSNs the watchlist stays on the flat file; demo
// mode keeps run history in memory so every endpoint still works.
func openStores(ctx context.Context, cfg Config, logger zerolog.Logger) (*stores, func(), error) {
	st := &stores{watchlist: file.NewWatchlistStore(cfg.Storage.WatchlistFile)}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		st.watchlist = pgstore.NewWatchlistStore(pool)
		logger.Info().Msg("watchlist on postgres")
	}

	switch {
	case cfg.Storage.ClickhouseDSN != "":
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		st.runs = chstore.NewRunStore(conn)
		st.summaries = chstore.NewSummaryStore(conn)
		st.details = chstore.NewDetailStore(conn)
		st.bars = chstore.NewBarStore(conn)
		logger.Info().Msg("run history on clickhouse")

	case cfg.Server.DemoMode:
		st.runs = memory.NewRunStore()
		st.summaries = memory.NewSummaryStore()
		st.details = memory.NewDetailStore()
		st.bars = memory.NewBarStore()
		logger.Info().Msg("run history in memory")

	default:
		logger.Info().Msg("run history disabled, set CLICKHOUSE_DSN to enable")
	}

	return st, cleanup, nil
}

// buildProvider picks the bar source: Yahoo by default, the on-demand
// generator in demo mode, archive write-through when recording.
func buildProvider(st *stores, cfg Config, logger *zerolog.Logger) marketdata.Provider {
	if cfg.Server.DemoMode {
		return demoProvider{cal: calendar.NewWeekday()}
	}
	var p marketdata.Provider = yahoo.NewClient(yahoo.ClientOptions{Logger: logger})
	if cfg.Storage.RecordBars && st.bars != nil {
		p = marketdata.NewRecordingProvider(p, st.bars, logger)
	}
	return p
}

// Run serves until ctx is cancelled, then drains: HTTP first, then the
// scheduler, then the event stream.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	go s.hub.Forward(s.events)

	httpServer := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.routes(),
		// WriteTimeout stays zero: /ws connections are long-lived and
		// manage their own deadlines.
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Str("provider", s.provider).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	schedDone := make(chan struct{})
	if s.cfg.Schedule.Every > 0 {
		go func() {
			defer close(schedDone)
			s.runScheduler(ctx)
		}()
	} else {
		close(schedDone)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)

	// In-flight runs emit events until their handlers return; only
	// after both sources are done is the channel safe to close.
	<-schedDone
	if err == nil {
		close(s.events)
	}
	s.hub.Close()
	return err
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/ws", s.hub)

	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/summaries", s.handleGetSummaries)
	mux.HandleFunc("GET /api/runs/{id}/symbols/{symbol}/details", s.handleGetDetails)
	mux.HandleFunc("GET /api/runs/{id}/report", s.handleGetReport)

	return mux
}

// runScheduler fires the watchlist run on its interval, first run
// immediately.
func (s *Server) runScheduler(ctx context.Context) {
	s.logger.Info().
		Dur("every", s.cfg.Schedule.Every).
		Str("detector", s.cfg.Schedule.Detector).
		Msg("run scheduler started")

	s.runScheduled(ctx)

	ticker := time.NewTicker(s.cfg.Schedule.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *Server) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.cfg.Schedule.MarketHoursOnly && !calendar.MarketOpenNow(calendar.NewWeekday(), time.Now()) {
		s.logger.Info().Msg("market closed, scheduled run skipped")
		return
	}

	req, err := s.scheduledRequest(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled run not started")
		return
	}

	res, err := s.execute(ctx, req)
	switch {
	case errors.Is(err, errRunActive):
		s.logger.Warn().Msg("scheduled run skipped, another run is active")
	case err != nil:
		s.logger.Error().Err(err).Msg("scheduled run failed")
	default:
		s.logger.Info().
			Str("run_id", res.RunID).
			Int("analyzed", res.Analyzed).
			Int("skipped", res.Skipped).
			Msg("scheduled run finished")
	}
}

func (s *Server) scheduledRequest(ctx context.Context) (domain.AnalysisRequest, error) {
	symbols, err := s.stores.watchlist.Load(ctx)
	if err != nil {
		return domain.AnalysisRequest{}, fmt.Errorf("load watchlist: %w", err)
	}

	req := domain.AnalysisRequest{
		Symbols:   symbols,
		Detector:  domain.DetectorKind(s.cfg.Schedule.Detector),
		Threshold: s.cfg.Schedule.Threshold,
		Interval:  domain.Interval(s.cfg.Schedule.BarInterval),
		Period:    domain.Period(s.cfg.Schedule.Period),
	}
	if s.cfg.Schedule.AnchorTime != "" {
		at, err := domain.ParseTimeOfDay(s.cfg.Schedule.AnchorTime)
		if err != nil {
			return req, fmt.Errorf("parse anchor time: %w", err)
		}
		req.AnchorTime = at
	}
	return req, nil
}

// execute serializes runs and ties their lifetime to both the caller
// and the server: a shutdown cancels in-flight HTTP-triggered runs.
func (s *Server) execute(ctx context.Context, req domain.AnalysisRequest) (*analyze.Result, error) {
	s.mu.Lock()
	if s.runActive {
		s.mu.Unlock()
		return nil, errRunActive
	}
	s.runActive = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.runActive = false
		s.lastRunAt = time.Now()
		s.runsDone++
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.baseCtx, cancel)
	defer stop()

	return s.runner.Run(runCtx, req)
}

// handleStartRun executes one analysis run synchronously and returns
// the full result. An empty symbol list falls back to the watchlist;
// progress is observable on /ws while the run is active.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Symbols) == 0 {
		symbols, err := s.stores.watchlist.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load watchlist: "+err.Error())
			return
		}
		req.Symbols = symbols
	}

	res, err := s.execute(r.Context(), req)
	switch {
	case errors.Is(err, errRunActive):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		var cfgErr *analyze.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.stores.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.stores.runs.GetRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.stores.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	run, err := s.stores.runs.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetSummaries(w http.ResponseWriter, r *http.Request) {
	if s.stores.summaries == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	id := r.PathValue("id")
	if _, err := s.stores.runs.GetByID(r.Context(), id); errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.stores.summaries.GetByRunID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []*domain.SummaryRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	if s.stores.details == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	id := r.PathValue("id")
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	if _, err := s.stores.runs.GetByID(r.Context(), id); errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.stores.details.GetByRunAndSymbol(r.Context(), id, symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []*domain.DetailRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleGetReport rebuilds a persisted run's report from its stored
// rows and renders it as Markdown.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	report, err := s.reporter.GenerateFromRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, reporting.RenderMarkdown(report))
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	StartedAt time.Time `json:"started_at"`
	Provider  string    `json:"provider"`
	RunActive bool      `json:"run_active"`
	LastRunAt time.Time `json:"last_run_at,omitempty"`
	RunsDone  int       `json:"runs_done"`
	WSClients int       `json:"ws_clients"`
	History   bool      `json:"history"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.startedAt).String(),
		StartedAt: s.startedAt,
		Provider:  s.provider,
		RunActive: s.runActive,
		LastRunAt: s.lastRunAt,
		RunsDone:  s.runsDone,
		WSClients: s.hub.ClientCount(),
		History:   s.stores.runs != nil,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// demoProvider synthesizes deterministic sessions on demand so the
// whole service runs end to end without network access.
type demoProvider struct {
	cal calendar.Weekday
}

func (demoProvider) Name() string { return "demo" }

func (p demoProvider) BarsByRange(_ context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	count := sessionBarCount(interval)
	var bars []domain.Bar
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if !p.cal.IsTradingDay(day) {
			continue
		}
		for _, b := range stub.GenerateSession(symbol, day, interval, count, 100) {
			if !b.Time.Before(start) && b.Time.Before(end) {
				bars = append(bars, b)
			}
		}
	}
	return bars, nil
}

func (p demoProvider) BarsByPeriod(ctx context.Context, symbol string, interval domain.Interval, period domain.Period) ([]domain.Bar, error) {
	days := 5
	switch period {
	case domain.Period1Day:
		days = 1
	case domain.Period1Month:
		days = 31
	case domain.Period3Months:
		days = 93
	}
	end := time.Now()
	return p.BarsByRange(ctx, symbol, interval, end.AddDate(0, 0, -days), end)
}

var _ marketdata.Provider = demoProvider{}

// sessionBarCount is the number of bars filling one regular session at
// the given interval.
func sessionBarCount(interval domain.Interval) int {
	if !interval.Valid() {
		interval = domain.Interval1Min
	}
	session := time.Duration(calendar.MarketClose.MinuteOfDay()-calendar.MarketOpen.MinuteOfDay()) * time.Minute
	count := int(session / interval.Duration())
	if count < 1 {
		count = 1
	}
	return count
}
