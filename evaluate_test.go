package perf

import (
	"errors"
	"reflect"
	"testing"

	"github.com/etnz/perf/date"
)

func TestEvaluatePositions_RoundTrip(t *testing.T) {
	rates := balnRates()
	points := BuildTransactionPoints(balnOrders(), "CHF", rates, Options{})
	res := EvaluatePositions(points, rates, "CHF", date.New(2021, 11, 22), date.New(2021, 12, 18), Options{})

	if res.HasErrors {
		t.Fatalf("EvaluatePositions() has errors: %v", res.Errors)
	}
	if len(res.Positions) != 1 {
		t.Fatalf("EvaluatePositions() returned %d positions, want 1", len(res.Positions))
	}
	p := res.Positions[0]

	moneys := []struct {
		name      string
		got, want Money
	}{
		{"MarketPrice", p.MarketPrice, CHF(148.9)},
		{"MarketValue", p.MarketValue, CHF(0)},
		{"AverageCost", p.AverageCost, CHF(0)},
		{"Investment", p.Investment, CHF(0)},
		{"InvestmentWithCE", p.InvestmentWithCE, CHF(0)},
		{"Fees", p.Fees, CHF(3.2)},
		{"GrossPerformance", p.GrossPerformance, CHF(-12.6)},
		{"GrossPerformanceWithCE", p.GrossPerformanceWithCE, CHF(-12.6)},
		{"NetPerformance", p.NetPerformance, CHF(-15.8)},
		{"NetPerformanceWithCE", p.NetPerformanceWithCE, CHF(-15.8)},
		{"TimeWeightedInvestment", p.TimeWeightedInvestment, CHF(285.8)},
		{"TimeWeightedInvestmentWithCE", p.TimeWeightedInvestmentWithCE, CHF(285.8)},
		{"total GrossPerformance", res.GrossPerformance, CHF(-12.6)},
		{"total NetPerformance", res.NetPerformance, CHF(-15.8)},
		{"total CurrentValue", res.CurrentValue, CHF(0)},
	}
	for _, m := range moneys {
		if !m.got.Equal(m.want) {
			t.Errorf("%s = %v, want %v", m.name, m.got, m.want)
		}
	}

	ratios := []struct {
		name      string
		got, want Ratio
	}{
		{"GrossPerformancePercentage", p.GrossPerformancePercentage, R(-0.0440867739678096571)},
		{"GrossPerformancePercentageWithCE", p.GrossPerformancePercentageWithCE, R(-0.0440867739678096571)},
		{"NetPerformancePercentage", p.NetPerformancePercentage, R(-0.0552834149755073478)},
		{"NetPerformancePercentageWithCE", p.NetPerformancePercentageWithCE, R(-0.0552834149755073478)},
		{"total GrossPerformancePercentage", res.GrossPerformancePercentage, R(-0.0440867739678096571)},
		{"total NetPerformancePercentageWithCE", res.NetPerformancePercentageWithCE, R(-0.0552834149755073478)},
	}
	for _, r := range ratios {
		if !r.got.Equal(r.want) {
			t.Errorf("%s = %v, want %v", r.name, r.got.Decimal(), r.want.Decimal())
		}
	}

	if !p.Quantity.IsZero() {
		t.Errorf("Quantity = %v, want 0", p.Quantity)
	}
	if got, want := p.FirstBuy, date.New(2021, 11, 22); got != want {
		t.Errorf("FirstBuy = %v, want %v", got, want)
	}
	if got, want := p.Transactions, 2; got != want {
		t.Errorf("Transactions = %v, want %v", got, want)
	}
	if got, want := p.Name, "Bâloise Holding AG"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestEvaluatePositions_CurrencyEffect(t *testing.T) {
	d1, asOf := date.New(2024, 1, 1), date.New(2024, 1, 11)
	orders := []Order{NewOrder(d1, Buy, AAPL, "Apple", Q(10), 100, 1, "USD")}
	rates := NewRateTable().
		SetFX("USD", "CHF", d1, dec(0.9)).
		SetFX("USD", "CHF", asOf, dec(1)).
		SetPrice(AAPL, asOf, dec(110))

	tests := []struct {
		policy             FeePolicy
		net, netWithEffect Money
	}{
		{FeesAtPaymentDate, CHF(99.1), CHF(199.1)},
		{FeesAsBase, CHF(99), CHF(199)},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			opts := Options{FeePolicy: tt.policy}
			points := BuildTransactionPoints(orders, "CHF", rates, opts)
			res := EvaluatePositions(points, rates, "CHF", d1, asOf, opts)
			if len(res.Positions) != 1 {
				t.Fatalf("EvaluatePositions() = %v, want 1 position", res)
			}
			p := res.Positions[0]
			if got, want := p.MarketValue, CHF(1100); !got.Equal(want) {
				t.Errorf("MarketValue = %v, want %v", got, want)
			}
			if got, want := p.AverageCost, USD(100); !got.Equal(want) {
				t.Errorf("AverageCost = %v, want %v", got, want)
			}
			if got, want := p.GrossPerformance, CHF(100); !got.Equal(want) {
				t.Errorf("GrossPerformance = %v, want %v", got, want)
			}
			if got, want := p.GrossPerformanceWithCE, CHF(200); !got.Equal(want) {
				t.Errorf("GrossPerformanceWithCE = %v, want %v", got, want)
			}
			if got := p.NetPerformance; !got.Equal(tt.net) {
				t.Errorf("NetPerformance = %v, want %v", got, tt.net)
			}
			if got := p.NetPerformanceWithCE; !got.Equal(tt.netWithEffect) {
				t.Errorf("NetPerformanceWithCE = %v, want %v", got, tt.netWithEffect)
			}
			if got, want := p.TimeWeightedInvestment, CHF(1000); !got.Equal(want) {
				t.Errorf("TimeWeightedInvestment = %v, want %v", got, want)
			}
			if got, want := p.TimeWeightedInvestmentWithCE, CHF(900); !got.Equal(want) {
				t.Errorf("TimeWeightedInvestmentWithCE = %v, want %v", got, want)
			}
			if got, want := p.GrossPerformancePercentage, R(0.1); !got.Equal(want) {
				t.Errorf("GrossPerformancePercentage = %v, want %v", got, want)
			}
			if got, want := p.GrossPerformancePercentageWithCE, R(2.0/9); !got.Equal(want) {
				t.Errorf("GrossPerformancePercentageWithCE = %v, want %v", got, want)
			}
			if got, want := res.TotalInvestment, CHF(1000); !got.Equal(want) {
				t.Errorf("TotalInvestment = %v, want %v", got, want)
			}
			if got, want := res.TotalInvestmentWithCE, CHF(900); !got.Equal(want) {
				t.Errorf("TotalInvestmentWithCE = %v, want %v", got, want)
			}
		})
	}
}

func TestEvaluatePositions_TimeWeightedInvestment(t *testing.T) {
	d0 := date.New(2024, 1, 1)
	orders := []Order{
		NewOrder(d0, Buy, NESN, "", Q(1), 100, 0, "CHF"),
		NewOrder(d0.Add(10), Buy, NESN, "", Q(1), 100, 0, "CHF"),
	}
	asOf := d0.Add(20)
	rates := NewRateTable().SetPrice(NESN, asOf, dec(130))
	points := BuildTransactionPoints(orders, "CHF", rates, Options{})

	tests := []struct {
		name        string
		start, asOf date.Date
		twi         Money
	}{
		{"whole range", d0, asOf, CHF(150)},
		{"start before first order", d0.Add(-10), asOf, CHF(150)},
		{"start mid range", d0.Add(5), asOf, CHF(1000.0 / 6 * 1)},
		{"same day", asOf, asOf, CHF(200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := EvaluatePositions(points, rates, "CHF", tt.start, tt.asOf, Options{}).Positions[0]
			if got := p.TimeWeightedInvestment; !got.Decimal().Round(6).Equal(tt.twi.Decimal().Round(6)) {
				t.Errorf("TimeWeightedInvestment = %v, want %v", got.Decimal(), tt.twi.Decimal())
			}
		})
	}
}

func TestEvaluatePositions_ZeroTimeWeightedInvestment(t *testing.T) {
	day := date.New(2024, 1, 1)
	orders := []Order{
		NewOrder(day, Buy, NESN, "", Q(1), 100, 0, "CHF"),
		NewOrder(day, Sell, NESN, "", Q(1), 110, 0, "CHF"),
	}
	rates := NewRateTable().SetPrice(NESN, day, dec(110))
	points := BuildTransactionPoints(orders, "CHF", rates, Options{})
	res := EvaluatePositions(points, rates, "CHF", day, day, Options{})

	p := res.Positions[0]
	if !p.TimeWeightedInvestment.IsZero() {
		t.Errorf("TimeWeightedInvestment = %v, want 0", p.TimeWeightedInvestment)
	}
	if got, want := p.GrossPerformance, CHF(10); !got.Equal(want) {
		t.Errorf("GrossPerformance = %v, want %v", got, want)
	}
	for _, r := range []Ratio{p.GrossPerformancePercentage, p.NetPerformancePercentageWithCE, res.GrossPerformancePercentage} {
		if !r.IsZero() {
			t.Errorf("percentage = %v, want 0", r)
		}
	}
}

func TestEvaluatePositions_InsufficientQuantityIsolation(t *testing.T) {
	d1, asOf := date.New(2024, 1, 1), date.New(2024, 2, 1)
	good := []Order{NewOrder(d1, Buy, NESN, "", Q(3), 100, 1, "CHF")}
	bad := []Order{
		NewOrder(d1, Buy, AAPL, "", Q(1), 100, 1, "CHF"),
		NewOrder(d1.Add(3), Sell, AAPL, "", Q(2), 100, 1, "CHF"),
	}
	rates := NewRateTable().SetPrice(NESN, asOf, dec(120)).SetPrice(AAPL, asOf, dec(100))

	alone := EvaluatePositions(BuildTransactionPoints(good, "CHF", rates, Options{}), rates, "CHF", d1, asOf, Options{})
	mixed := EvaluatePositions(BuildTransactionPoints(append(bad, good...), "CHF", rates, Options{}), rates, "CHF", d1, asOf, Options{})

	if !mixed.HasErrors || len(mixed.Errors) != 1 {
		t.Fatalf("Errors = %v, want a single error", mixed.Errors)
	}
	if err := mixed.Errors[0]; !errors.Is(err, ErrInsufficientQuantity) || err.Instrument != AAPL {
		t.Errorf("Errors[0] = %v, want insufficient quantity on %s", err, AAPL)
	}
	if !reflect.DeepEqual(alone.Positions, mixed.Positions) {
		t.Errorf("Positions = %v, want %v", mixed.Positions, alone.Positions)
	}
	if !mixed.NetPerformance.Equal(alone.NetPerformance) || !mixed.TimeWeightedInvestment.Equal(alone.TimeWeightedInvestment) {
		t.Errorf("totals were affected by the failing instrument: %v != %v", mixed.NetPerformance, alone.NetPerformance)
	}
}

func TestEvaluatePositions_RateUnavailableIsolation(t *testing.T) {
	d1, asOf := date.New(2024, 1, 1), date.New(2024, 2, 1)
	good := []Order{NewOrder(d1, Buy, NESN, "", Q(3), 100, 1, "CHF")}
	orders := append([]Order{NewOrder(d1, Buy, AAPL, "", Q(1), 100, 1, "USD")}, good...)
	rates := NewRateTable().
		SetPrice(NESN, asOf, dec(120)).
		SetPrice(AAPL, asOf, dec(100)).
		SetFX("USD", "CHF", d1, dec(0.9)) // but not on asOf

	alone := EvaluatePositions(BuildTransactionPoints(good, "CHF", rates, Options{}), rates, "CHF", d1, asOf, Options{})
	mixed := EvaluatePositions(BuildTransactionPoints(orders, "CHF", rates, Options{}), rates, "CHF", d1, asOf, Options{})

	if !mixed.HasErrors {
		t.Fatal("HasErrors = false, want true")
	}
	if err := mixed.Errors[0]; !errors.Is(err, ErrRateUnavailable) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Errors[0] = %v, want rate unavailable", err)
	}
	if !reflect.DeepEqual(alone, withoutErrors(mixed)) {
		t.Errorf("EvaluatePositions() = %v, want %v", mixed, alone)
	}
}

func withoutErrors(res CurrentPositionsResult) CurrentPositionsResult {
	res.Errors, res.HasErrors = nil, false
	return res
}

func TestEvaluatePositions_Empty(t *testing.T) {
	res := EvaluatePositions(nil, NewRateTable(), "CHF", date.New(2024, 1, 1), date.New(2024, 2, 1), Options{})
	if len(res.Positions) != 0 || res.HasErrors {
		t.Errorf("EvaluatePositions(nil) = %v, want no positions", res)
	}
	if got, want := res.CurrentValue, CHF(0); !got.Equal(want) {
		t.Errorf("CurrentValue = %v, want %v", got, want)
	}
	if !res.NetPerformancePercentage.IsZero() {
		t.Errorf("NetPerformancePercentage = %v, want 0", res.NetPerformancePercentage)
	}
}

func TestEvaluatePositions_StartAfterActivity(t *testing.T) {
	rates := balnRates()
	points := BuildTransactionPoints(balnOrders(), "CHF", rates, Options{})
	res := EvaluatePositions(points, rates, "CHF", date.New(2021, 12, 1), date.New(2021, 12, 18), Options{})
	if len(res.Positions) != 0 {
		t.Errorf("EvaluatePositions() = %v, want no positions for an instrument closed before start", res.Positions)
	}
}

func TestEvaluatePositions_Idempotent(t *testing.T) {
	rates := balnRates()
	points := BuildTransactionPoints(balnOrders(), "CHF", rates, Options{})
	first := EvaluatePositions(points, rates, "CHF", date.New(2021, 11, 22), date.New(2021, 12, 18), Options{})
	second := EvaluatePositions(points, rates, "CHF", date.New(2021, 11, 22), date.New(2021, 12, 18), Options{})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("EvaluatePositions() is not idempotent")
	}
}
