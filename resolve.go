package perf

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source fetches prices and exchange rates, typically from a quote store or a remote service.
//
// It returns an error wrapping ErrNotFound when the value is unknown; any other error is
// considered transient and retried by Resolve.
type Source interface {
	Price(ctx context.Context, inst Instrument, on date.Date) (decimal.Decimal, error)
	FX(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, error)
}

// Requirements lists every lookup a calculation needs.
type Requirements struct {
	Prices []PriceKey
	FX     []FXKey
}

// Len returns the number of lookups.
func (r Requirements) Len() int { return len(r.Prices) + len(r.FX) }

// NewRequirements collects the lookups needed to build transaction points from orders,
// evaluate positions as of 'end' and chart the range [start, end].
func NewRequirements(orders []Order, base string, start, end date.Date, opts Options) Requirements {
	prices := make(map[PriceKey]struct{})
	fx := make(map[FXKey]struct{})
	needFX := func(from string, on date.Date) {
		if from != base {
			fx[FXKey{From: from, To: base, Date: on}] = struct{}{}
		}
	}

	currencies := make(map[string]struct{})
	var days []date.Date
	for _, o := range orders {
		// transaction date rates for the currency effect ledger and the fees.
		needFX(o.Currency(), o.Date)
		if !o.Date.After(end) {
			prices[PriceKey{Instrument: o.Instrument, Date: end}] = struct{}{}
			needFX(o.Currency(), end)
			currencies[o.Currency()] = struct{}{}
			days = append(days, o.Date)
		}
	}

	if opts.Revalue && !start.After(end) {
		for _, on := range chartDays(days, start, end, opts.dailyLimit()) {
			for c := range currencies {
				needFX(c, on)
			}
		}
	}

	reqs := Requirements{}
	for k := range prices {
		reqs.Prices = append(reqs.Prices, k)
	}
	for k := range fx {
		reqs.FX = append(reqs.FX, k)
	}
	slices.SortFunc(reqs.Prices, func(a, b PriceKey) int {
		if c := strings.Compare(a.Instrument.String(), b.Instrument.String()); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	slices.SortFunc(reqs.FX, func(a, b FXKey) int {
		if c := strings.Compare(a.From+a.To, b.From+b.To); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return reqs
}

// Resolve fetches every lookup of reqs from src, concurrently, and returns the resolved table.
//
// Lookups that fail are left out of the table: the calculation reports them as
// per-instrument errors. Resolve only fails when ctx is done before the batch completes.
func Resolve(ctx context.Context, src Source, reqs Requirements, opts Options) (*RateTable, error) {
	log := opts.logger()
	table := NewRateTable()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for _, k := range reqs.Prices {
		g.Go(func() error {
			v, err := retry(gctx, opts, func() (decimal.Decimal, error) { return src.Price(gctx, k.Instrument, k.Date) })
			if err != nil {
				log.Debug("price not resolved", zap.Stringer("instrument", k.Instrument), zap.Stringer("date", k.Date), zap.Error(err))
				return ctxErr(gctx, err)
			}
			mu.Lock()
			defer mu.Unlock()
			table.SetPrice(k.Instrument, k.Date, v)
			return nil
		})
	}
	for _, k := range reqs.FX {
		g.Go(func() error {
			v, err := retry(gctx, opts, func() (decimal.Decimal, error) { return src.FX(gctx, k.From, k.To, k.Date) })
			if err != nil {
				log.Debug("exchange rate not resolved", zap.String("pair", k.From+k.To), zap.Stringer("date", k.Date), zap.Error(err))
				return ctxErr(gctx, err)
			}
			mu.Lock()
			defer mu.Unlock()
			table.SetFX(k.From, k.To, k.Date, v)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("rates resolved", zap.Int("requested", reqs.Len()), zap.Int("resolved", table.Len()))
	return table, nil
}

// retry runs op until it succeeds, returns ErrNotFound, or exhausts the configured attempts.
func retry(ctx context.Context, opts Options, op func() (decimal.Decimal, error)) (decimal.Decimal, error) {
	return backoff.Retry(ctx, func() (decimal.Decimal, error) {
		v, err := op()
		if errors.Is(err, ErrNotFound) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(opts.retries()))
}

// ctxErr returns the context error when the batch was canceled, and nil for a lookup failure.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	return nil
}
