package perf

import (
	"slices"

	"github.com/etnz/perf/date"
	"go.uber.org/zap"
)

// ChartDataPoint is the cumulative investment, in base currency, on a given day.
type ChartDataPoint struct {
	Date       date.Date `json:"date"`
	Investment Money     `json:"investment"`
}

// ChartSeries is a chronological investment series and the instruments left out of it.
type ChartSeries struct {
	Points []ChartDataPoint   `json:"points"`
	Errors []*InstrumentError `json:"errors,omitempty"`
}

// HasErrors reports whether some instruments are missing from the series.
func (s ChartSeries) HasErrors() bool { return len(s.Errors) > 0 }

// Investments returns the investment of each transaction point.
// Instruments that fail at any point are left out of the whole series.
func Investments(points []TransactionPoint) []ChartDataPoint {
	series := make([]ChartDataPoint, 0, len(points))
	for _, p := range points {
		series = append(series, ChartDataPoint{Date: p.Date, Investment: p.Investment})
	}
	return series
}

// GenerateChart returns the investment on every day of [start, end].
//
// Ranges longer than Options.DailyLimit days are sampled on transaction point dates
// plus start and end.
// Each day reports the investment of the latest point on or before it. With Options.Revalue,
// native investments are converted at that day's rate. An instrument failing in the points,
// or with a missing rate, is left out of the whole series.
func GenerateChart(points []TransactionPoint, rates RateResolver, base string, start, end date.Date, opts Options) ChartSeries {
	var series ChartSeries
	if start.After(end) {
		return series
	}
	activity := make([]date.Date, 0, len(points))
	for _, p := range points {
		activity = append(activity, p.Date)
	}
	days := chartDays(activity, start, end, opts.dailyLimit())

	// instruments failing in the fold are left out of every day, and reported once.
	failed := make(map[Instrument]bool)
	if len(points) > 0 {
		last := points[len(points)-1]
		for _, inst := range sortedInstruments(last) {
			if s := last.Instruments[inst]; s.Err != nil {
				failed[inst] = true
				series.Errors = append(series.Errors, s.Err)
			}
		}
	}

	if !opts.Revalue {
		for _, day := range days {
			v := M(0, base)
			if i := pointAsOf(points, day); i >= 0 {
				v = points[i].Investment
			}
			series.Points = append(series.Points, ChartDataPoint{Date: day, Investment: v})
		}
		return series
	}

	values := make([]map[Instrument]Money, len(days))
	for j, day := range days {
		values[j] = make(map[Instrument]Money)
		i := pointAsOf(points, day)
		if i < 0 {
			continue
		}
		for _, inst := range sortedInstruments(points[i]) {
			s := points[i].Instruments[inst]
			if failed[inst] || s.Investment.IsZero() {
				continue
			}
			v, err := convert(rates, s.Investment, base, day)
			if err != nil {
				opts.logger().Debug("instrument left out of chart", zap.Stringer("instrument", inst), zap.Error(err))
				failed[inst] = true
				series.Errors = append(series.Errors, rateUnavailable(inst, day, err))
				continue
			}
			values[j][inst] = v
		}
	}
	for j, day := range days {
		v := M(0, base)
		for inst, m := range values[j] {
			if !failed[inst] {
				v = v.Add(m)
			}
		}
		series.Points = append(series.Points, ChartDataPoint{Date: day, Investment: v})
	}
	return series
}

// chartDays returns every day of [start, end], or, when there are more than limit,
// start, end and the activity days in between.
func chartDays(activity []date.Date, start, end date.Date, limit int) []date.Date {
	r := date.Between(start, end)
	if r.Len() <= limit {
		return slices.Collect(r.Days())
	}
	days := []date.Date{start}
	for _, d := range activity {
		if d.After(start) && d.Before(end) {
			days = append(days, d)
		}
	}
	if end.After(start) {
		days = append(days, end)
	}
	slices.SortFunc(days, date.Date.Compare)
	return slices.Compact(days)
}
