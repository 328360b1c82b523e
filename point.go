package perf

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/perf/date"
	"go.uber.org/zap"
)

// InstrumentState is the running account of a single instrument, as of a transaction point.
//
// Native amounts are in the instrument's currency, the other ones in the base currency.
type InstrumentState struct {
	Instrument
	Name     string
	Currency string

	Quantity    Quantity
	AverageCost Money // native, weighted average unit cost of the held quantity
	Investment  Money // native cost basis of the held quantity
	Realized    Money // native gross performance realized by sells

	// InvestmentWithCE is the cost basis, each transaction being converted at its own date.
	InvestmentWithCE Money
	// RealizedWithCE is the realized gross performance, each sell being converted at its own date.
	RealizedWithCE Money
	Fees           Money

	FirstBuy     date.Date
	Transactions int

	// Err is the first error met while folding this instrument's orders, if any.
	Err *InstrumentError
}

// TransactionPoint is a frozen snapshot of every instrument's state on a day with orders.
type TransactionPoint struct {
	Date        date.Date
	Instruments map[Instrument]InstrumentState

	// Investment is the base currency cost basis, at transaction date rates, of the instruments
	// that never fail.
	Investment Money
	Fees       Money
}

// State returns the state of inst at this point.
func (p TransactionPoint) State(inst Instrument) (InstrumentState, bool) {
	s, ok := p.Instruments[inst]
	return s, ok
}

// BuildTransactionPoints folds orders into transaction points, one per distinct order date,
// in ascending date order.
//
// Orders are processed in date order, same-day orders in their input order.
// Rates are needed at each order date for orders not in the base currency.
// Failures are recorded against the instrument in its state and never stop the fold.
func BuildTransactionPoints(orders []Order, base string, rates RateResolver, opts Options) []TransactionPoint {
	log := opts.logger()
	sorted := slices.Clone(orders)
	SortOrders(sorted)

	states := make(map[Instrument]InstrumentState)
	var points []TransactionPoint
	for i := 0; i < len(sorted); {
		day := sorted[i].Date
		for ; i < len(sorted) && sorted[i].Date == day; i++ {
			o := sorted[i]
			s, ok := states[o.Instrument]
			if !ok {
				s = newInstrumentState(o, base)
			}
			failed := s.Err != nil
			s = s.apply(o, base, rates, opts.FeePolicy)
			if !failed && s.Err != nil {
				log.Debug("instrument error", zap.Stringer("instrument", o.Instrument), zap.Error(s.Err))
			}
			states[o.Instrument] = s
		}
		points = append(points, freeze(day, states))
	}
	total(points, states, base)
	return points
}

func newInstrumentState(o Order, base string) InstrumentState {
	cur := o.Currency()
	return InstrumentState{
		Instrument:       o.Instrument,
		Name:             o.Name,
		Currency:         cur,
		AverageCost:      M(0, cur),
		Investment:       M(0, cur),
		Realized:         M(0, cur),
		InvestmentWithCE: M(0, base),
		RealizedWithCE:   M(0, base),
		Fees:             M(0, base),
	}
}

// apply returns the state after order o.
func (s InstrumentState) apply(o Order, base string, rates RateResolver, policy FeePolicy) InstrumentState {
	if s.Name == "" {
		s.Name = o.Name
	}
	s.Transactions++
	if o.Currency() != s.Currency {
		s.fail(&InstrumentError{Instrument: o.Instrument, Date: o.Date, Kind: ErrCurrencyMismatch,
			Err: fmt.Errorf("order in %s, instrument in %s", o.Currency(), s.Currency)})
		return s
	}

	fx, err := rates.FXRate(o.Currency(), base, o.Date)
	if err != nil {
		s.fail(rateUnavailable(o.Instrument, o.Date, err))
	}

	switch policy {
	case FeesAsBase:
		s.Fees = s.Fees.Add(M(o.Fee.Decimal(), base))
	default:
		s.Fees = s.Fees.Add(o.Fee.Exchange(fx, base))
	}

	amount := o.Amount()
	switch o.Type {
	case Buy:
		held := s.Quantity.Add(o.Quantity)
		if held.IsZero() {
			return s
		}
		s.AverageCost = s.AverageCost.Mul(s.Quantity).Add(amount).Div(held)
		s.Quantity = held
		s.Investment = s.Investment.Add(amount)
		s.InvestmentWithCE = s.InvestmentWithCE.Add(amount.Exchange(fx, base))
		if s.FirstBuy.IsZero() {
			s.FirstBuy = o.Date
		}
	case Sell:
		if s.Quantity.LessThan(o.Quantity) {
			s.fail(insufficientQuantity(o.Instrument, o.Date, s.Quantity, o.Quantity))
			return s
		}
		removed, removedCE := s.Investment, s.InvestmentWithCE
		if !o.Quantity.Equal(s.Quantity) {
			removed = s.AverageCost.Mul(o.Quantity)
			removedCE = s.InvestmentWithCE.Mul(o.Quantity.Div(s.Quantity))
		}
		s.Realized = s.Realized.Add(amount.Sub(removed))
		s.RealizedWithCE = s.RealizedWithCE.Add(amount.Exchange(fx, base).Sub(removedCE))
		s.Investment = s.Investment.Sub(removed)
		s.InvestmentWithCE = s.InvestmentWithCE.Sub(removedCE)
		s.Quantity = s.Quantity.Sub(o.Quantity)
	}
	return s
}

// fail records err, keeping the first one.
func (s *InstrumentState) fail(err *InstrumentError) {
	if s.Err == nil {
		s.Err = err
	}
}

func freeze(day date.Date, states map[Instrument]InstrumentState) TransactionPoint {
	return TransactionPoint{Date: day, Instruments: maps.Clone(states)}
}

// total sets the Investment and Fees of every point. An instrument that fails at any
// point is left out of all of them, so that it never shows up as a withdrawal.
func total(points []TransactionPoint, final map[Instrument]InstrumentState, base string) {
	for i := range points {
		p := &points[i]
		p.Investment, p.Fees = M(0, base), M(0, base)
		for inst, s := range p.Instruments {
			if final[inst].Err != nil {
				continue
			}
			p.Investment = p.Investment.Add(s.InvestmentWithCE)
			p.Fees = p.Fees.Add(s.Fees)
		}
	}
}

// pointAsOf returns the index of the latest point on or before 'on', or -1.
func pointAsOf(points []TransactionPoint, on date.Date) int {
	i, found := slices.BinarySearchFunc(points, on, func(p TransactionPoint, d date.Date) int { return p.Date.Compare(d) })
	if found {
		return i
	}
	return i - 1
}
