package perf

import (
	"context"
	"testing"

	"github.com/etnz/perf/date"
)

func TestResolveCalculator(t *testing.T) {
	m := NewMarketData()
	m.SetPrice(BALN, date.New(2021, 12, 17), dec(148.9))

	end := date.New(2021, 12, 18)
	calc, err := ResolveCalculator(context.Background(), m, balnOrders(), "CHF", date.Date{}, end, Options{})
	if err != nil {
		t.Fatalf("ResolveCalculator() error = %v", err)
	}
	if got, want := calc.Start(), date.New(2021, 11, 22); got != want {
		t.Errorf("Start() = %v, want %v", got, want)
	}

	res := calc.CurrentPositions(date.Date{}, end)
	if res.HasErrors {
		t.Fatalf("CurrentPositions() errors = %v", res.Errors)
	}
	if got, want := res.NetPerformance, CHF(-15.8); !got.Equal(want) {
		t.Errorf("NetPerformance = %v, want %v", got, want)
	}
	if got, want := res.TimeWeightedInvestment, CHF(285.8); !got.Equal(want) {
		t.Errorf("TimeWeightedInvestment = %v, want %v", got, want)
	}
	if got, want := res.Positions[0].MarketPrice, CHF(148.9); !got.Equal(want) {
		t.Errorf("MarketPrice = %v, want %v", got, want)
	}

	if got := calc.Investments(); len(got) != 2 {
		t.Errorf("Investments() = %v, want 2 points", got)
	}
	grouped := calc.GroupedInvestments(date.Date{}, end, date.Monthly)
	want := []GroupedInvestment{{date.New(2021, 11, 1), 0}, {date.New(2021, 12, 1), 0}}
	if len(grouped) != 2 || grouped[0] != want[0] || grouped[1] != want[1] {
		t.Errorf("GroupedInvestments() = %v, want %v", grouped, want)
	}
}

func TestNewCalculator_InvalidBase(t *testing.T) {
	if _, err := NewCalculator(nil, "XYZ", NewRateTable(), Options{}); err == nil {
		t.Error("NewCalculator() with an unknown base currency expected an error")
	}
}

func TestCalculator_NoOrders(t *testing.T) {
	calc, err := NewCalculator(nil, "CHF", NewRateTable(), Options{})
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	if res := calc.CurrentPositions(date.Date{}, date.New(2024, 1, 1)); len(res.Positions) != 0 || res.HasErrors {
		t.Errorf("CurrentPositions() = %v, want empty", res)
	}
	if series := calc.Chart(date.Date{}, date.New(2024, 1, 1)); len(series.Points) != 0 {
		t.Errorf("Chart() = %v, want empty", series)
	}
}
