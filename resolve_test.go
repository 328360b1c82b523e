package perf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

// fakeSource serves prices and rates from a MarketData, optionally failing the first calls.
type fakeSource struct {
	*MarketData
	mu       sync.Mutex
	calls    map[string]int
	failures int // transient failures before every lookup succeeds
}

func newFakeSource(m *MarketData, failures int) *fakeSource {
	return &fakeSource{MarketData: m, calls: make(map[string]int), failures: failures}
}

func (s *fakeSource) call(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	if s.calls[key] <= s.failures {
		return errors.New("connection reset")
	}
	return nil
}

func (s *fakeSource) Price(ctx context.Context, inst Instrument, on date.Date) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if err := s.call(fmt.Sprint(inst, on)); err != nil {
		return decimal.Zero, err
	}
	return s.MarketData.Price(ctx, inst, on)
}

func (s *fakeSource) FX(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if err := s.call(fmt.Sprint(from, to, on)); err != nil {
		return decimal.Zero, err
	}
	return s.MarketData.FX(ctx, from, to, on)
}

func TestNewRequirements(t *testing.T) {
	d1, d2, end := date.New(2024, 1, 1), date.New(2024, 1, 2), date.New(2024, 1, 3)
	orders := []Order{
		NewOrder(d1, Buy, AAPL, "", Q(1), 100, 0, "USD"),
		NewOrder(d2, Buy, AAPL, "", Q(1), 100, 0, "USD"),
		NewOrder(d2, Buy, NESN, "", Q(1), 100, 0, "CHF"),
		NewOrder(end.Add(1), Buy, BALN, "", Q(1), 100, 0, "CHF"),
	}

	reqs := NewRequirements(orders, "CHF", d1, end, Options{})
	wantPrices := []PriceKey{{AAPL, end}, {NESN, end}}
	wantFX := []FXKey{{"USD", "CHF", d1}, {"USD", "CHF", d2}, {"USD", "CHF", end}}
	if fmt.Sprint(reqs.Prices) != fmt.Sprint(wantPrices) {
		t.Errorf("Prices = %v, want %v", reqs.Prices, wantPrices)
	}
	if fmt.Sprint(reqs.FX) != fmt.Sprint(wantFX) {
		t.Errorf("FX = %v, want %v", reqs.FX, wantFX)
	}

	revalued := NewRequirements(orders, "CHF", d1, end, Options{Revalue: true})
	if got, want := len(revalued.FX), 3; got != want {
		t.Errorf("len(FX) with revalue = %d, want %d (every chart day is already a lookup)", got, want)
	}
	revalued = NewRequirements(orders, "CHF", d1.Add(-2), end, Options{Revalue: true})
	if got, want := len(revalued.FX), 5; got != want {
		t.Errorf("len(FX) with revalue = %d, want %d", got, want)
	}
}

func TestResolve(t *testing.T) {
	d1, end := date.New(2024, 1, 1), date.New(2024, 1, 3)
	m := NewMarketData()
	m.SetPrice(AAPL, d1, dec(150))
	m.SetFX("CHF", "USD", d1, dec(1.25))
	orders := []Order{
		NewOrder(d1, Buy, AAPL, "", Q(1), 100, 0, "USD"),
		NewOrder(d1, Buy, NESN, "", Q(1), 100, 0, "CHF"), // no quote
	}
	reqs := NewRequirements(orders, "CHF", d1, end, Options{})
	src := newFakeSource(m, 1)

	table, err := Resolve(context.Background(), src, reqs, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got, err := table.PriceAt(AAPL, end); err != nil || !got.Equal(dec(150)) {
		t.Errorf("PriceAt(AAPL) = %v, %v, want 150", got, err)
	}
	if got, err := table.FXRate("USD", "CHF", end); err != nil || !got.Equal(dec(0.8)) {
		t.Errorf("FXRate(USDCHF) = %v, %v, want 0.8", got, err)
	}
	if _, err := table.PriceAt(NESN, end); !errors.Is(err, ErrNotFound) {
		t.Errorf("PriceAt(NESN) error = %v, want %v", err, ErrNotFound)
	}

	// transient failures are retried, not found is not.
	if got := src.calls[fmt.Sprint(AAPL, end)]; got != 2 {
		t.Errorf("AAPL price calls = %d, want 2", got)
	}
	if got := src.calls[fmt.Sprint(NESN, end)]; got != 2 {
		t.Errorf("NESN price calls = %d, want 2 (one transient failure, then not found)", got)
	}
}

func TestResolve_Canceled(t *testing.T) {
	d1 := date.New(2024, 1, 1)
	orders := []Order{NewOrder(d1, Buy, AAPL, "", Q(1), 100, 0, "USD")}
	reqs := NewRequirements(orders, "CHF", d1, d1, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Resolve(ctx, newFakeSource(NewMarketData(), 0), reqs, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want %v", err, context.Canceled)
	}
}
