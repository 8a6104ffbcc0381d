// Package stub provides a scripted in-memory market data provider for
// demos and tests.
package stub

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/marketdata"
)

// Provider serves pre-loaded bars keyed by symbol and interval. All
// reads return copies so callers cannot mutate the script.
type Provider struct {
	mu   sync.RWMutex
	bars map[string][]domain.Bar
	errs map[string]error
}

// NewProvider creates an empty scripted provider.
func NewProvider() *Provider {
	return &Provider{
		bars: make(map[string][]domain.Bar),
		errs: make(map[string]error),
	}
}

func (p *Provider) Name() string { return "stub" }

func key(symbol string, interval domain.Interval) string {
	return fmt.Sprintf("%s|%s", symbol, interval)
}

// SetBars replaces the scripted bars for one symbol and interval.
func (p *Provider) SetBars(symbol string, interval domain.Interval, bars []domain.Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := make([]domain.Bar, len(bars))
	copy(cp, bars)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })
	p.bars[key(symbol, interval)] = cp
}

// SetError scripts a fetch failure for one symbol. Every call for the
// symbol fails regardless of interval.
func (p *Provider) SetError(symbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[symbol] = err
}

// BarsByRange returns the scripted bars with timestamps in [start, end).
func (p *Provider) BarsByRange(_ context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.errs[symbol]; err != nil {
		return nil, err
	}

	var out []domain.Bar
	for _, b := range p.bars[key(symbol, interval)] {
		if b.Time.Before(start) || !b.Time.Before(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// BarsByPeriod returns every scripted bar for the symbol and interval.
func (p *Provider) BarsByPeriod(_ context.Context, symbol string, interval domain.Interval, _ domain.Period) ([]domain.Bar, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.errs[symbol]; err != nil {
		return nil, err
	}

	src := p.bars[key(symbol, interval)]
	out := make([]domain.Bar, len(src))
	copy(out, src)
	return out, nil
}

var _ marketdata.Provider = (*Provider)(nil)

// GenerateSession synthesizes one reproducible trading session for a
// symbol: count bars from 09:30 at the given interval, prices drifting
// on a sine wave around base with seeded noise. The same inputs always
// produce the same bars.
func GenerateSession(symbol string, day time.Time, interval domain.Interval, count int, base float64) []domain.Bar {
	seed := int64(day.Year())*10000 + int64(day.Month())*100 + int64(day.Day())
	for _, r := range symbol {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, day.Location())
	step := interval.Duration()

	bars := make([]domain.Bar, 0, count)
	price := base
	for i := 0; i < count; i++ {
		drift := math.Sin(float64(i)/9.0) * base * 0.03
		noise := (rng.Float64() - 0.5) * base * 0.02
		next := base + drift + noise
		if next <= 0 {
			next = base
		}
		bars = append(bars, domain.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   price,
			High:   math.Max(price, next) * 1.001,
			Low:    math.Min(price, next) * 0.999,
			Close:  next,
			Volume: float64(1000 + rng.Intn(9000)),
		})
		price = next
	}
	return bars
}
