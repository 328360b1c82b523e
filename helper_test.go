package perf

import (
	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

var (
	BALN = Instrument{Symbol: "BALN.SW", DataSource: "YAHOO"}
	AAPL = Instrument{Symbol: "AAPL", DataSource: "YAHOO"}
	NESN = Instrument{Symbol: "NESN.SW", DataSource: "YAHOO"}
)

// CHF is a helper for test to create swiss franc money from const
func CHF(v float64) Money { return M(v, "CHF") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// dec is a helper for test to create a decimal from const
func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// balnOrders is a round trip on BALN.SW: bought on 2021-11-22, sold on 2021-11-30.
func balnOrders() []Order {
	return []Order{
		NewOrder(date.New(2021, 11, 22), Buy, BALN, "Bâloise Holding AG", Q(2), 142.9, 1.55, "CHF"),
		NewOrder(date.New(2021, 11, 30), Sell, BALN, "Bâloise Holding AG", Q(2), 136.6, 1.65, "CHF"),
	}
}

// balnRates has the BALN.SW price on 2021-12-18.
func balnRates() *RateTable {
	return NewRateTable().SetPrice(BALN, date.New(2021, 12, 18), dec(148.9))
}
