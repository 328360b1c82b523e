package perf

import (
	"fmt"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

// RateResolver supplies the externally sourced numbers the engine needs.
type RateResolver interface {
	// PriceAt returns the price of inst in its own currency on a given day.
	PriceAt(inst Instrument, on date.Date) (decimal.Decimal, error)
	// FXRate returns the value of one unit of 'from' expressed in 'to' on a given day.
	FXRate(from, to string, on date.Date) (decimal.Decimal, error)
}

// PriceKey identifies a price lookup.
type PriceKey struct {
	Instrument Instrument
	Date       date.Date
}

// FXKey identifies an exchange rate lookup.
type FXKey struct {
	From, To string
	Date     date.Date
}

// RateTable is a fully resolved lookup table.
//
// It is filled once, by Resolve or by the Set methods, and only read afterwards.
type RateTable struct {
	prices map[PriceKey]decimal.Decimal
	fx     map[FXKey]decimal.Decimal
}

// NewRateTable returns an empty table.
func NewRateTable() *RateTable {
	return &RateTable{
		prices: make(map[PriceKey]decimal.Decimal),
		fx:     make(map[FXKey]decimal.Decimal),
	}
}

// SetPrice records the price of inst on a given day.
func (t *RateTable) SetPrice(inst Instrument, on date.Date, price decimal.Decimal) *RateTable {
	t.prices[PriceKey{inst, on}] = price
	return t
}

// SetFX records the value of one unit of 'from' in 'to' on a given day.
func (t *RateTable) SetFX(from, to string, on date.Date, rate decimal.Decimal) *RateTable {
	t.fx[FXKey{from, to, on}] = rate
	return t
}

// Len returns the number of prices and rates in the table.
func (t *RateTable) Len() int { return len(t.prices) + len(t.fx) }

func (t *RateTable) PriceAt(inst Instrument, on date.Date) (decimal.Decimal, error) {
	p, ok := t.prices[PriceKey{inst, on}]
	if !ok {
		return decimal.Zero, fmt.Errorf("price of %s on %s: %w", inst, on, ErrNotFound)
	}
	return p, nil
}

func (t *RateTable) FXRate(from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := t.fx[FXKey{from, to, on}]; ok {
		return r, nil
	}
	if r, ok := t.fx[FXKey{to, from, on}]; ok && !r.IsZero() {
		return decimal.NewFromInt(1).Div(r), nil
	}
	return decimal.Zero, fmt.Errorf("exchange rate %s%s on %s: %w", from, to, on, ErrNotFound)
}

// convert expresses m in currency 'to' using the rate of a given day.
func convert(r RateResolver, m Money, to string, on date.Date) (Money, error) {
	if m.Currency() == to || m.Currency() == "" {
		return m.In(to), nil
	}
	rate, err := r.FXRate(m.Currency(), to, on)
	if err != nil {
		return Money{}, err
	}
	return m.Exchange(rate, to), nil
}
