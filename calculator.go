package perf

import (
	"context"
	"fmt"

	"github.com/etnz/perf/date"
	"go.uber.org/zap"
)

// Calculator evaluates a set of orders against fully resolved rates.
//
// Transaction points are built once, at creation. All methods are read-only and safe for concurrent use.
type Calculator struct {
	base   string
	opts   Options
	rates  RateResolver
	points []TransactionPoint
}

// NewCalculator builds the transaction points of orders, with rates for every order date.
func NewCalculator(orders []Order, base string, rates RateResolver, opts Options) (*Calculator, error) {
	if err := ValidateCurrency(base); err != nil {
		return nil, fmt.Errorf("invalid base currency: %w", err)
	}
	return &Calculator{
		base:   base,
		opts:   opts,
		rates:  rates,
		points: BuildTransactionPoints(orders, base, rates, opts),
	}, nil
}

// ResolveCalculator resolves from src every rate needed to evaluate orders over [start, end]
// then builds a Calculator on them.
func ResolveCalculator(ctx context.Context, src Source, orders []Order, base string, start, end date.Date, opts Options) (*Calculator, error) {
	if start.IsZero() && len(orders) > 0 {
		start = firstDate(orders)
	}
	reqs := NewRequirements(orders, base, start, end, opts)
	opts.logger().Info("resolving rates", zap.Int("lookups", reqs.Len()), zap.Stringer("start", start), zap.Stringer("end", end))
	table, err := Resolve(ctx, src, reqs, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve rates: %w", err)
	}
	return NewCalculator(orders, base, table, opts)
}

func firstDate(orders []Order) date.Date {
	first := orders[0].Date
	for _, o := range orders[1:] {
		if o.Date.Before(first) {
			first = o.Date
		}
	}
	return first
}

// Base returns the base currency.
func (c *Calculator) Base() string { return c.base }

// TransactionPoints returns the points. They must not be modified.
func (c *Calculator) TransactionPoints() []TransactionPoint { return c.points }

// Start returns the first order date, or the zero date if there are no orders.
func (c *Calculator) Start() date.Date {
	if len(c.points) == 0 {
		return date.Date{}
	}
	return c.points[0].Date
}

// CurrentPositions evaluates positions as of asOf, over [start, asOf]. A zero start means since the first order.
func (c *Calculator) CurrentPositions(start, asOf date.Date) CurrentPositionsResult {
	if start.IsZero() {
		start = c.Start()
	}
	return EvaluatePositions(c.points, c.rates, c.base, start, asOf, c.opts)
}

// Chart returns the investment series over [start, end]. A zero start means since the first order.
func (c *Calculator) Chart(start, end date.Date) ChartSeries {
	if start.IsZero() {
		if start = c.Start(); start.IsZero() {
			return ChartSeries{}
		}
	}
	return GenerateChart(c.points, c.rates, c.base, start, end, c.opts)
}

// Investments returns the investment of each transaction point.
func (c *Calculator) Investments() []ChartDataPoint { return Investments(c.points) }

// GroupedInvestments returns the net investment per period of the chart over [start, end].
func (c *Calculator) GroupedInvestments(start, end date.Date, period date.Period) []GroupedInvestment {
	return GroupInvestments(c.Chart(start, end).Points, period)
}
