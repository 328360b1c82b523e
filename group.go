package perf

import (
	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

// GroupedInvestment is the net investment change within a calendar period.
type GroupedInvestment struct {
	Date       date.Date `json:"date"` // first day of the period
	Investment float64   `json:"investment"`
}

// GroupInvestments buckets a chronological series into periods.
//
// Each point contributes its change since the previous point to the period it falls in;
// the first point changes from zero. Periods without points are omitted, periods with points
// but no change report zero.
func GroupInvestments(series []ChartDataPoint, period date.Period) []GroupedInvestment {
	var grouped []GroupedInvestment
	var sum decimal.Decimal
	prev := decimal.Zero
	for _, p := range series {
		bucket := p.Date.StartOf(period)
		if n := len(grouped); n == 0 || grouped[n-1].Date != bucket {
			if n > 0 {
				grouped[n-1].Investment = sum.InexactFloat64()
			}
			grouped = append(grouped, GroupedInvestment{Date: bucket})
			sum = decimal.Zero
		}
		v := p.Investment.Decimal()
		sum = sum.Add(v.Sub(prev))
		prev = v
	}
	if len(grouped) > 0 {
		grouped[len(grouped)-1].Investment = sum.InexactFloat64()
	}
	return grouped
}
