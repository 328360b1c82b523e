package perf

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

var currencyPairRegex = regexp.MustCompile(`^[A-Z]{6}$`)

// CurrencyPair splits a six letter pair like "USDCHF" into its two ISO codes.
func CurrencyPair(pair string) (from, to string, err error) {
	if len(pair) != 6 {
		return "", "", fmt.Errorf("invalid length: currency pair must be 6 characters, got %d", len(pair))
	}
	if !currencyPairRegex.MatchString(pair) {
		return "", "", fmt.Errorf("invalid format: currency pair must be 6 uppercase letters")
	}
	from, to = pair[:3], pair[3:]
	if err := ValidateCurrency(from); err != nil {
		return "", "", err
	}
	if err := ValidateCurrency(to); err != nil {
		return "", "", err
	}
	return from, to, nil
}

// ParseInstrument parses "SYMBOL" or "SOURCE:SYMBOL".
func ParseInstrument(s string) (Instrument, error) {
	src, sym, found := strings.Cut(s, ":")
	if !found {
		src, sym = "", s
	}
	if sym == "" {
		return Instrument{}, fmt.Errorf("invalid instrument %q: symbol is missing", s)
	}
	return Instrument{Symbol: sym, DataSource: src}, nil
}

// MarketData is an in-memory store of daily prices and exchange rates.
//
// Lookups return the latest value on or before the requested day. It is safe for concurrent use.
type MarketData struct {
	mu     sync.RWMutex
	prices map[Instrument]*date.History[decimal.Decimal]
	fx     map[string]*date.History[decimal.Decimal] // by pair, e.g. "USDCHF"
}

// NewMarketData returns an empty store.
func NewMarketData() *MarketData {
	return &MarketData{
		prices: make(map[Instrument]*date.History[decimal.Decimal]),
		fx:     make(map[string]*date.History[decimal.Decimal]),
	}
}

// SetPrice records the price of inst on a given day, replacing any previous value.
func (m *MarketData) SetPrice(inst Instrument, on date.Date, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.prices[inst]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[inst] = h
	}
	h.Append(on, price)
}

// SetFX records the value of one unit of 'from' in 'to' on a given day.
func (m *MarketData) SetFX(from, to string, on date.Date, rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.fx[from+to]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.fx[from+to] = h
	}
	h.Append(on, rate)
}

// Merge records every price and rate of t, and returns how many there were.
func (m *MarketData) Merge(t *RateTable) int {
	for k, v := range t.prices {
		m.SetPrice(k.Instrument, k.Date, v)
	}
	for k, v := range t.fx {
		m.SetFX(k.From, k.To, k.Date, v)
	}
	return t.Len()
}

// Instruments returns the instruments with prices, sorted.
func (m *MarketData) Instruments() []Instrument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]Instrument, 0, len(m.prices))
	for inst := range m.prices {
		list = append(list, inst)
	}
	sortInstruments(list)
	return list
}

// Price returns the price of inst on 'on' or the most recent day before.
func (m *MarketData) Price(_ context.Context, inst Instrument, on date.Date) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.prices[inst]; ok {
		if v, ok := h.ValueAsOf(on); ok {
			return v, nil
		}
	}
	return decimal.Zero, fmt.Errorf("price of %s on %s: %w", inst, on, ErrNotFound)
}

// FX returns the value of one unit of 'from' in 'to' on 'on' or the most recent day before.
// The inverse pair is used when the direct one is unknown.
func (m *MarketData) FX(_ context.Context, from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.fx[from+to]; ok {
		if v, ok := h.ValueAsOf(on); ok {
			return v, nil
		}
	}
	if h, ok := m.fx[to+from]; ok {
		if v, ok := h.ValueAsOf(on); ok && !v.IsZero() {
			return decimal.NewFromInt(1).Div(v), nil
		}
	}
	return decimal.Zero, fmt.Errorf("exchange rate %s%s on %s: %w", from, to, on, ErrNotFound)
}

var _ Source = (*MarketData)(nil)
