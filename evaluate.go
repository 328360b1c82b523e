package perf

import (
	"maps"
	"slices"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Position is the evaluation of a single instrument as of a given day.
//
// Performance and time-weighted investment figures are in the base currency.
// "WithCE" figures include the currency effect: historical amounts are converted at the
// rate of their own date. The other figures are native amounts converted at the evaluation day's rate.
type Position struct {
	Instrument
	Name     string
	Currency string

	Quantity          Quantity
	AverageCost       Money // native, zero when nothing is held
	MarketPrice       Money // native
	MarketPriceInBase Money
	MarketValue       Money // base
	Investment        Money // native
	InvestmentInBase  Money // native investment at the evaluation day's rate
	InvestmentWithCE  Money // base
	Fees              Money // base
	FirstBuy          date.Date
	Transactions      int

	GrossPerformance       Money
	GrossPerformanceWithCE Money
	NetPerformance         Money
	NetPerformanceWithCE   Money

	GrossPerformancePercentage       Ratio
	GrossPerformancePercentageWithCE Ratio
	NetPerformancePercentage         Ratio
	NetPerformancePercentageWithCE   Ratio

	TimeWeightedInvestment       Money
	TimeWeightedInvestmentWithCE Money
}

// CurrentPositionsResult is the evaluation of a portfolio as of a given day.
//
// Totals only cover Positions; instruments in Errors are left out.
type CurrentPositionsResult struct {
	CurrentValue          Money
	TotalInvestment       Money
	TotalInvestmentWithCE Money
	Fees                  Money

	GrossPerformance       Money
	GrossPerformanceWithCE Money
	NetPerformance         Money
	NetPerformanceWithCE   Money

	GrossPerformancePercentage       Ratio
	GrossPerformancePercentageWithCE Ratio
	NetPerformancePercentage         Ratio
	NetPerformancePercentageWithCE   Ratio

	TimeWeightedInvestment       Money
	TimeWeightedInvestmentWithCE Money

	Positions []Position
	Errors    []*InstrumentError
	HasErrors bool
}

func newResult(base string) CurrentPositionsResult {
	zero := M(0, base)
	return CurrentPositionsResult{
		CurrentValue:                 zero,
		TotalInvestment:              zero,
		TotalInvestmentWithCE:        zero,
		Fees:                         zero,
		GrossPerformance:             zero,
		GrossPerformanceWithCE:       zero,
		NetPerformance:               zero,
		NetPerformanceWithCE:         zero,
		TimeWeightedInvestment:       zero,
		TimeWeightedInvestmentWithCE: zero,
	}
}

func (r *CurrentPositionsResult) add(p Position) {
	r.Positions = append(r.Positions, p)
	r.CurrentValue = r.CurrentValue.Add(p.MarketValue)
	r.TotalInvestment = r.TotalInvestment.Add(p.InvestmentInBase)
	r.TotalInvestmentWithCE = r.TotalInvestmentWithCE.Add(p.InvestmentWithCE)
	r.Fees = r.Fees.Add(p.Fees)
	r.GrossPerformance = r.GrossPerformance.Add(p.GrossPerformance)
	r.GrossPerformanceWithCE = r.GrossPerformanceWithCE.Add(p.GrossPerformanceWithCE)
	r.NetPerformance = r.NetPerformance.Add(p.NetPerformance)
	r.NetPerformanceWithCE = r.NetPerformanceWithCE.Add(p.NetPerformanceWithCE)
	r.TimeWeightedInvestment = r.TimeWeightedInvestment.Add(p.TimeWeightedInvestment)
	r.TimeWeightedInvestmentWithCE = r.TimeWeightedInvestmentWithCE.Add(p.TimeWeightedInvestmentWithCE)
}

func (r *CurrentPositionsResult) fail(err *InstrumentError) {
	r.Errors = append(r.Errors, err)
	r.HasErrors = true
}

// EvaluatePositions evaluates every instrument with orders in [start, asOf] or held at start.
//
// Prices and exchange rates are looked up as of 'asOf'. An instrument that failed while
// building the points, or whose price or rate is unavailable, is reported in Errors only.
// Points after asOf are ignored.
func EvaluatePositions(points []TransactionPoint, rates RateResolver, base string, start, asOf date.Date, opts Options) CurrentPositionsResult {
	log := opts.logger()
	res := newResult(base)
	last := pointAsOf(points, asOf)
	if last < 0 || start.After(asOf) {
		return res
	}
	before := pointAsOf(points, start.Add(-1))

	for _, inst := range sortedInstruments(points[last]) {
		s := points[last].Instruments[inst]
		if before >= 0 {
			prev, ok := points[before].Instruments[inst]
			if ok && prev.Transactions == s.Transactions && !prev.Quantity.IsPositive() {
				continue // closed before start
			}
		}
		if s.Err != nil {
			log.Debug("instrument skipped", zap.Stringer("instrument", inst), zap.Error(s.Err))
			res.fail(s.Err)
			continue
		}
		p, err := evaluate(points, rates, base, s, start, asOf)
		if err != nil {
			log.Debug("instrument skipped", zap.Stringer("instrument", inst), zap.Error(err))
			res.fail(err)
			continue
		}
		res.add(p)
	}

	res.GrossPerformancePercentage = res.GrossPerformance.Ratio(res.TimeWeightedInvestment)
	res.GrossPerformancePercentageWithCE = res.GrossPerformanceWithCE.Ratio(res.TimeWeightedInvestmentWithCE)
	res.NetPerformancePercentage = res.NetPerformance.Ratio(res.TimeWeightedInvestment)
	res.NetPerformancePercentageWithCE = res.NetPerformanceWithCE.Ratio(res.TimeWeightedInvestmentWithCE)
	return res
}

// evaluate computes the position of the instrument in state s, as of asOf.
func evaluate(points []TransactionPoint, rates RateResolver, base string, s InstrumentState, start, asOf date.Date) (Position, *InstrumentError) {
	price, err := rates.PriceAt(s.Instrument, asOf)
	if err != nil {
		return Position{}, rateUnavailable(s.Instrument, asOf, err)
	}
	fx, err := rates.FXRate(s.Currency, base, asOf)
	if err != nil {
		return Position{}, rateUnavailable(s.Instrument, asOf, err)
	}

	p := Position{
		Instrument:       s.Instrument,
		Name:             s.Name,
		Currency:         s.Currency,
		Quantity:         s.Quantity,
		AverageCost:      M(0, s.Currency),
		MarketPrice:      M(price, s.Currency),
		Investment:       s.Investment,
		InvestmentWithCE: s.InvestmentWithCE,
		Fees:             s.Fees,
		FirstBuy:         s.FirstBuy,
		Transactions:     s.Transactions,
	}
	if s.Quantity.IsPositive() {
		p.AverageCost = s.AverageCost
	}
	p.MarketPriceInBase = p.MarketPrice.Exchange(fx, base)
	p.MarketValue = p.MarketPriceInBase.Mul(s.Quantity)
	p.InvestmentInBase = s.Investment.Exchange(fx, base)

	nativeValue := p.MarketPrice.Mul(s.Quantity)
	p.GrossPerformance = nativeValue.Sub(s.Investment).Add(s.Realized).Exchange(fx, base)
	p.GrossPerformanceWithCE = p.MarketValue.Sub(s.InvestmentWithCE).Add(s.RealizedWithCE)
	p.NetPerformance = p.GrossPerformance.Sub(s.Fees)
	p.NetPerformanceWithCE = p.GrossPerformanceWithCE.Sub(s.Fees)

	twi := timeWeighted(points, s.Instrument, start, asOf, func(s InstrumentState) decimal.Decimal { return s.Investment.Decimal() })
	p.TimeWeightedInvestment = M(twi, s.Currency).Exchange(fx, base)
	twiCE := timeWeighted(points, s.Instrument, start, asOf, func(s InstrumentState) decimal.Decimal { return s.InvestmentWithCE.Decimal() })
	p.TimeWeightedInvestmentWithCE = M(twiCE, base)

	p.GrossPerformancePercentage = p.GrossPerformance.Ratio(p.TimeWeightedInvestment)
	p.GrossPerformancePercentageWithCE = p.GrossPerformanceWithCE.Ratio(p.TimeWeightedInvestmentWithCE)
	p.NetPerformancePercentage = p.NetPerformance.Ratio(p.TimeWeightedInvestment)
	p.NetPerformancePercentageWithCE = p.NetPerformanceWithCE.Ratio(p.TimeWeightedInvestmentWithCE)
	return p, nil
}

// timeWeighted returns the average of an instrument's investment over the days of [start, asOf]
// during which it was not zero.
//
// The investment is piecewise constant between transaction points; each interval weighs its
// length in whole days. When no such day exists, the investment as of asOf is returned.
func timeWeighted(points []TransactionPoint, inst Instrument, start, asOf date.Date, investment func(InstrumentState) decimal.Decimal) decimal.Decimal {
	valueAt := func(i int) decimal.Decimal {
		if i < 0 {
			return decimal.Zero
		}
		s, ok := points[i].Instruments[inst]
		if !ok {
			return decimal.Zero
		}
		return investment(s)
	}

	sum := decimal.Zero
	days := 0
	i := pointAsOf(points, start)
	for from := start; from.Before(asOf); i++ {
		to := asOf
		if i+1 < len(points) && points[i+1].Date.Before(asOf) {
			to = points[i+1].Date
		}
		if v := valueAt(i); !v.IsZero() {
			n := to.DaysSince(from)
			sum = sum.Add(v.Mul(decimal.NewFromInt(int64(n))))
			days += n
		}
		from = to
	}
	if days == 0 {
		return valueAt(pointAsOf(points, asOf))
	}
	return sum.Div(decimal.NewFromInt(int64(days)))
}

// sortedInstruments returns the instruments of p, sorted by their string form.
func sortedInstruments(p TransactionPoint) []Instrument {
	list := slices.Collect(maps.Keys(p.Instruments))
	sortInstruments(list)
	return list
}
