// Package analyze orchestrates complete analysis runs: request
// validation, bar fetching, session segmentation, detection and
// aggregation across a symbol list, with per-symbol isolation and a
// progress event stream.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"intraday-lab/internal/aggregate"
	"intraday-lab/internal/calendar"
	"intraday-lab/internal/detect"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/idhash"
	"intraday-lab/internal/marketdata"
	"intraday-lab/internal/observability"
	"intraday-lab/internal/session"
	"intraday-lab/internal/storage"
)

// DefaultWorkers bounds the per-run worker pool when Options does not
// set one.
const DefaultWorkers = 4

// Sessions shorter than this never reach the swing or reversal
// detectors and do not count as qualifying sessions.
const minSessionBars = 2

// anchorWindow keeps regular-hours bars for anchor runs. End sits one
// minute past the close so the half-open filter keeps the 16:00 bar.
var anchorWindow = &session.HoursFilter{
	Start: calendar.MarketOpen,
	End:   domain.TimeOfDay{Hour: calendar.MarketClose.Hour, Minute: calendar.MarketClose.Minute + 1},
}

// Runner executes analysis runs against a market data provider.
type Runner struct {
	provider marketdata.Provider
	cal      calendar.Calendar
	clock    calendar.Clock
	workers  int
	log      zerolog.Logger
	events   chan<- domain.ProgressEvent

	// Optional run-history stores. All nil disables persistence.
	runs      storage.RunStore
	summaries storage.SummaryStore
	details   storage.DetailStore

	metrics *observability.Metrics
}

// Options for creating a Runner.
type Options struct {
	// Provider is required.
	Provider marketdata.Provider

	// Calendar defaults to the weekday calendar, Clock to the system
	// clock and Workers to DefaultWorkers.
	Calendar calendar.Calendar
	Clock    calendar.Clock
	Workers  int
	Logger   *zerolog.Logger

	// Events, when non-nil, receives one event per completed symbol
	// plus run lifecycle markers. The caller owns consumption; a full
	// channel blocks the run.
	Events chan<- domain.ProgressEvent

	// Optional run-history stores.
	RunStore     storage.RunStore
	SummaryStore storage.SummaryStore
	DetailStore  storage.DetailStore

	// Optional metrics sink.
	Metrics *observability.Metrics
}

// New creates a new Runner.
func New(opts Options) *Runner {
	if opts.Calendar == nil {
		opts.Calendar = calendar.NewWeekday()
	}
	if opts.Clock == nil {
		opts.Clock = calendar.SystemClock{}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Runner{
		provider:  opts.Provider,
		cal:       opts.Calendar,
		clock:     opts.Clock,
		workers:   opts.Workers,
		log:       logger,
		events:    opts.Events,
		runs:      opts.RunStore,
		summaries: opts.SummaryStore,
		details:   opts.DetailStore,
		metrics:   opts.Metrics,
	}
}

// Result is the outcome of one analysis run. Summaries hold one entry
// per analyzed symbol, ordered by symbol; Errors holds one line per
// skipped symbol.
type Result struct {
	RunID      string                 `json:"run_id"`
	Request    domain.AnalysisRequest `json:"request"` // resolved request actually executed
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Analyzed   int                    `json:"analyzed"`
	Skipped    int                    `json:"skipped"`
	Warnings   []string               `json:"warnings,omitempty"`
	Errors     []string               `json:"errors,omitempty"`
	Summaries  []domain.SymbolSummary `json:"summaries,omitempty"`
}

// Record flattens the outcome into a run-history record.
func (r *Result) Record() domain.RunRecord {
	return domain.RunRecord{
		RunID:      r.RunID,
		Detector:   r.Request.Detector,
		Threshold:  r.Request.Threshold,
		Interval:   r.Request.Interval,
		Period:     r.Request.Period,
		Start:      r.Request.Start,
		End:        r.Request.End,
		AnchorTime: r.Request.AnchorTime,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Analyzed:   r.Analyzed,
		Skipped:    r.Skipped,
	}
}

// dipScan pins the reference session of a dip run at resolve time so
// every symbol scans the same day.
type dipScan struct {
	day  time.Time
	live bool
}

// Run executes one analysis run. Validation failures return a
// ConfigurationError before any symbol work. Per-symbol failures only
// skip that symbol. Cancellation is honored at symbol boundaries:
// in-flight symbols complete, the rest are abandoned, and the partial
// result is returned together with the context error.
func (r *Runner) Run(ctx context.Context, req domain.AnalysisRequest) (*Result, error) {
	resolved, dip, warnings, err := r.resolve(req)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Request:   resolved,
		StartedAt: r.clock.Now(),
		Warnings:  warnings,
	}
	total := len(resolved.Symbols)

	r.log.Info().
		Str("run_id", res.RunID).
		Str("detector", string(resolved.Detector)).
		Str("interval", string(resolved.Interval)).
		Int("symbols", total).
		Msg("analysis run started")

	r.emit(ctx, domain.ProgressEvent{Type: domain.EventRunStarted, RunID: res.RunID, Total: total})
	for _, w := range warnings {
		r.log.Warn().Str("run_id", res.RunID).Msg(w)
		r.emit(ctx, domain.ProgressEvent{Type: domain.EventWarning, RunID: res.RunID, Total: total, Reason: w})
	}

	type outcome struct {
		symbol  string
		summary *domain.SymbolSummary
		err     error
	}

	workers := r.workers
	if workers > total {
		workers = total
	}

	jobs := make(chan string)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				summary, err := r.analyzeSymbol(ctx, resolved, dip, symbol)
				outcomes <- outcome{symbol: symbol, summary: summary, err: err}
			}
		}()
	}

	// Hand out work until done or cancelled. A cancel stops new
	// symbols; workers finish the ones they hold.
	go func() {
		defer close(jobs)
		for _, symbol := range resolved.Symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- symbol:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for out := range outcomes {
		completed++
		if out.err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", out.symbol, out.err))
			r.log.Warn().Str("run_id", res.RunID).Str("symbol", out.symbol).Err(out.err).Msg("symbol skipped")
			r.emit(ctx, domain.ProgressEvent{
				Type: domain.EventSymbolSkipped, RunID: res.RunID, Symbol: out.symbol,
				Completed: completed, Total: total, Reason: out.err.Error(),
			})
			continue
		}
		res.Analyzed++
		res.Summaries = append(res.Summaries, *out.summary)
		r.log.Debug().Str("run_id", res.RunID).Str("symbol", out.symbol).Msg("symbol analyzed")
		r.emit(ctx, domain.ProgressEvent{
			Type: domain.EventSymbolAnalyzed, RunID: res.RunID, Symbol: out.symbol,
			Completed: completed, Total: total, Summary: out.summary,
		})
	}

	// Workers race, results don't: order by symbol.
	sort.Slice(res.Summaries, func(i, j int) bool { return res.Summaries[i].Symbol < res.Summaries[j].Symbol })
	sort.Strings(res.Errors)

	res.FinishedAt = r.clock.Now()
	r.emit(ctx, domain.ProgressEvent{Type: domain.EventRunFinished, RunID: res.RunID, Completed: completed, Total: total})

	cancelled := ctx.Err() != nil
	r.observeRun(res, cancelled)

	r.log.Info().
		Str("run_id", res.RunID).
		Int("analyzed", res.Analyzed).
		Int("skipped", res.Skipped).
		Bool("cancelled", cancelled).
		Msg("analysis run finished")

	if cancelled {
		// Partial runs stay out of history.
		return res, ctx.Err()
	}

	if err := r.persist(ctx, res); err != nil {
		res.Warnings = append(res.Warnings, "run history not persisted: "+err.Error())
		r.log.Warn().Str("run_id", res.RunID).Err(err).Msg("run history not persisted")
	}

	return res, nil
}

// resolve validates the request and pins every run parameter: symbol
// normalization, detector config, interval and date-window resolution.
// Returned warnings describe automatic corrections.
func (r *Runner) resolve(req domain.AnalysisRequest) (domain.AnalysisRequest, dipScan, []string, error) {
	var dip dipScan
	var warnings []string

	if r.provider == nil {
		return req, dip, nil, errors.New("provider is required")
	}

	req.Symbols = domain.NormalizeSymbols(req.Symbols)
	if len(req.Symbols) == 0 {
		return req, dip, nil, ErrNoSymbols
	}

	cfg := detect.Config{Kind: req.Detector, Threshold: req.Threshold, AnchorTime: req.AnchorTime}
	if err := cfg.Validate(); err != nil {
		return req, dip, nil, err
	}

	if req.Interval == "" {
		req.Interval = domain.Interval1Min
	}
	if !req.Interval.Valid() {
		return req, dip, nil, fmt.Errorf("unsupported interval %q", req.Interval)
	}
	if req.Detector == domain.DetectorAnchor && !req.Interval.AnchorCapable() {
		warnings = append(warnings, fmt.Sprintf(
			"anchor analysis requires 1m or 5m bars; interval %s switched to 1m", req.Interval))
		req.Interval = domain.Interval1Min
	}

	switch {
	case req.Detector == domain.DetectorDip:
		// The dip scan decides its own reference day from the clock.
		dip.day, dip.live = detect.DipReferenceDay(r.cal, r.clock.Now())
		req.Start, req.End = dip.day, dip.day
		req.Period = ""

	case req.ByRange():
		if req.Start.IsZero() || req.End.IsZero() {
			return req, dip, nil, errors.New("date range requires both start and end")
		}
		start, end, adjustments, err := calendar.ValidateRange(r.cal, req.Start, req.End)
		if err != nil {
			return req, dip, nil, err
		}
		for _, a := range adjustments {
			warnings = append(warnings, a.String())
		}
		if clamped, adj := marketdata.ClampOneMinuteRange(req.Interval, start, end); adj != nil {
			warnings = append(warnings, adj.String())
			start = clamped
		}
		req.Start, req.End = start, end
		req.Period = ""

	default:
		if req.Period == "" {
			req.Period = domain.Period5Days
		}
		if !req.Period.Valid() {
			return req, dip, nil, fmt.Errorf("unsupported period %q", req.Period)
		}
		if req.Interval == domain.Interval1Min &&
			(req.Period == domain.Period1Month || req.Period == domain.Period3Months) {
			warnings = append(warnings, fmt.Sprintf(
				"1-minute history is limited to %d calendar days; period %s reduced to 5d",
				marketdata.MaxOneMinuteLookbackDays, req.Period))
			req.Period = domain.Period5Days
		}
	}

	return req, dip, warnings, nil
}

// analyzeSymbol runs the full fetch, segment, detect, aggregate
// pipeline for one symbol. Every failure is wrapped as
// DataUnavailableError: the symbol is skipped, never the run.
func (r *Runner) analyzeSymbol(ctx context.Context, req domain.AnalysisRequest, dip dipScan, symbol string) (*domain.SymbolSummary, error) {
	fetchStart := time.Now()
	bars, err := r.fetchBars(ctx, req, dip, symbol)
	if r.metrics != nil {
		r.metrics.FetchLatency.WithLabelValues(r.provider.Name()).Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		return nil, &DataUnavailableError{Symbol: symbol, Err: err}
	}
	if len(bars) == 0 {
		return nil, &DataUnavailableError{Symbol: symbol, Err: ErrNoBars}
	}

	session.SortBars(bars)

	detectStart := time.Now()
	summary := r.detectSymbol(req, dip, symbol, bars)
	if r.metrics != nil {
		r.metrics.DetectLatency.WithLabelValues(string(req.Detector)).Observe(time.Since(detectStart).Seconds())
	}
	if summary == nil {
		return nil, &DataUnavailableError{Symbol: symbol, Err: ErrNoQualifyingSessions}
	}
	return summary, nil
}

func (r *Runner) fetchBars(ctx context.Context, req domain.AnalysisRequest, dip dipScan, symbol string) ([]domain.Bar, error) {
	if req.Detector == domain.DetectorDip {
		return r.provider.BarsByRange(ctx, symbol, req.Interval, dip.day, dip.day.AddDate(0, 0, 1))
	}
	if req.ByRange() {
		// End names a day; fetch through the end of it.
		return r.provider.BarsByRange(ctx, symbol, req.Interval, req.Start, req.End.AddDate(0, 0, 1))
	}
	return r.provider.BarsByPeriod(ctx, symbol, req.Interval, req.Period)
}

func (r *Runner) detectSymbol(req domain.AnalysisRequest, dip dipScan, symbol string, bars []domain.Bar) *domain.SymbolSummary {
	switch req.Detector {
	case domain.DetectorSwing:
		var results []domain.SwingSessionResult
		for _, s := range session.Segment(symbol, bars, nil) {
			if len(s.Bars) < minSessionBars {
				continue
			}
			up, down := detect.CountSwings(s.Bars, req.Threshold)
			results = append(results, domain.SwingSessionResult{Date: s.Date, UpCount: up, DownCount: down})
		}
		return aggregate.BuildSwingSummary(symbol, results)

	case domain.DetectorReversal:
		var results []domain.ReversalSessionResult
		for _, s := range session.Segment(symbol, bars, nil) {
			if len(s.Bars) < minSessionBars {
				continue
			}
			results = append(results, domain.ReversalSessionResult{
				Date:       s.Date,
				CycleCount: detect.CountCycles(s.Bars, req.Threshold),
			})
		}
		return aggregate.BuildReversalSummary(symbol, results)

	case domain.DetectorAnchor:
		var records []domain.AnchorRecord
		for _, s := range session.Segment(symbol, bars, anchorWindow) {
			if rec := detect.AnalyzeAnchor(s, req.AnchorTime); rec != nil {
				records = append(records, *rec)
			}
		}
		return aggregate.BuildAnchorSummary(symbol, records)

	case domain.DetectorDip:
		for _, s := range session.Segment(symbol, bars, nil) {
			if !sameDay(s.Date, dip.day) {
				continue
			}
			report, err := detect.ScanDip(s, req.Threshold, dip.live)
			if err != nil || report == nil {
				return nil
			}
			return aggregate.BuildDipSummary(symbol, report)
		}
	}
	return nil
}

// sameDay compares calendar dates ignoring zone, since provider bars
// carry the exchange zone while the clock carries the host's.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (r *Runner) emit(ctx context.Context, ev domain.ProgressEvent) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}

func (r *Runner) persist(ctx context.Context, res *Result) error {
	if r.runs == nil && r.summaries == nil && r.details == nil {
		return nil
	}

	if r.runs != nil {
		record := res.Record()
		if err := r.runs.Insert(ctx, &record); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}

	if r.summaries != nil && len(res.Summaries) > 0 {
		createdAt := r.clock.Now()
		rows := make([]*domain.SummaryRow, len(res.Summaries))
		for i, s := range res.Summaries {
			row := domain.NewSummaryRow(res.RunID, s, createdAt)
			row.SummaryID = idhash.ComputeSummaryID(res.RunID, s.Symbol, s.Detector)
			rows[i] = row
		}
		if err := r.summaries.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("insert summaries: %w", err)
		}
	}

	if r.details != nil {
		var rows []*domain.DetailRow
		for _, s := range res.Summaries {
			rows = append(rows, domain.DetailRowsFrom(res.RunID, s)...)
		}
		if len(rows) > 0 {
			if err := r.details.InsertBulk(ctx, rows); err != nil {
				return fmt.Errorf("insert details: %w", err)
			}
		}
	}

	return nil
}

func (r *Runner) observeRun(res *Result, cancelled bool) {
	if r.metrics == nil {
		return
	}
	status := "completed"
	if cancelled {
		status = "cancelled"
	}
	detector := string(res.Request.Detector)
	r.metrics.RunsTotal.WithLabelValues(detector, status).Inc()
	r.metrics.RunDuration.WithLabelValues(detector).Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	r.metrics.SymbolsAnalyzed.Add(float64(res.Analyzed))
	r.metrics.SymbolsSkipped.Add(float64(res.Skipped))
	if !cancelled {
		r.metrics.LastSuccessfulRun.Set(float64(res.FinishedAt.Unix()))
	}
}
