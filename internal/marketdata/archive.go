package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

// ArchiveProvider replays bars previously persisted to a bar store,
// making archived history interchangeable with a live provider.
type ArchiveProvider struct {
	store storage.BarStore
	now   func() time.Time
}

// NewArchiveProvider creates a provider over the given archive.
func NewArchiveProvider(store storage.BarStore) *ArchiveProvider {
	return &ArchiveProvider{store: store, now: time.Now}
}

// WithClock overrides the time source used to resolve period lookbacks.
func (p *ArchiveProvider) WithClock(now func() time.Time) *ArchiveProvider {
	p.now = now
	return p
}

func (p *ArchiveProvider) Name() string { return "archive" }

// BarsByRange returns archived bars with timestamps in [start, end).
func (p *ArchiveProvider) BarsByRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	bars, err := p.store.GetRange(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	// The store range is inclusive on both ends.
	for len(bars) > 0 && !bars[len(bars)-1].Time.Before(end) {
		bars = bars[:len(bars)-1]
	}
	return bars, nil
}

// BarsByPeriod resolves the period against the clock and reads the
// corresponding trailing window from the archive.
func (p *ArchiveProvider) BarsByPeriod(ctx context.Context, symbol string, interval domain.Interval, period domain.Period) ([]domain.Bar, error) {
	end := p.now()
	return p.store.GetRange(ctx, symbol, interval, end.AddDate(0, 0, -periodDays(period)), end)
}

func periodDays(period domain.Period) int {
	switch period {
	case domain.Period1Day:
		return 1
	case domain.Period5Days:
		return 5
	case domain.Period1Month:
		return 31
	case domain.Period3Months:
		return 93
	default:
		return 5
	}
}

var _ Provider = (*ArchiveProvider)(nil)

// RecordingProvider wraps another provider and writes every fetched
// batch through to the bar archive. Re-fetching an already archived
// window is not an error; the duplicate insert is skipped.
type RecordingProvider struct {
	inner Provider
	store storage.BarStore
	log   zerolog.Logger
}

// NewRecordingProvider wraps inner with archive write-through.
func NewRecordingProvider(inner Provider, store storage.BarStore, logger *zerolog.Logger) *RecordingProvider {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &RecordingProvider{inner: inner, store: store, log: l}
}

func (p *RecordingProvider) Name() string { return p.inner.Name() }

func (p *RecordingProvider) BarsByRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	bars, err := p.inner.BarsByRange(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	p.record(ctx, symbol, interval, bars)
	return bars, nil
}

func (p *RecordingProvider) BarsByPeriod(ctx context.Context, symbol string, interval domain.Interval, period domain.Period) ([]domain.Bar, error) {
	bars, err := p.inner.BarsByPeriod(ctx, symbol, interval, period)
	if err != nil {
		return nil, err
	}
	p.record(ctx, symbol, interval, bars)
	return bars, nil
}

func (p *RecordingProvider) record(ctx context.Context, symbol string, interval domain.Interval, bars []domain.Bar) {
	if len(bars) == 0 {
		return
	}
	err := p.store.InsertBulk(ctx, symbol, interval, bars)
	switch {
	case err == nil:
		p.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("bars archived")
	case errors.Is(err, storage.ErrDuplicateKey):
		p.log.Debug().Str("symbol", symbol).Msg("bars already archived")
	default:
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("bar archive write failed")
	}
}

var _ Provider = (*RecordingProvider)(nil)
