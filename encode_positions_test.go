package perf

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/etnz/perf/date"
)

func TestCurrentPositionsResult_MarshalJSON(t *testing.T) {
	points := BuildTransactionPoints(balnOrders(), "CHF", balnRates(), Options{})
	sold := EvaluatePositions(points, balnRates(), "CHF", date.Date{}, date.New(2021, 12, 18), Options{})
	oversold := EvaluatePositions(
		BuildTransactionPoints(balnOrders()[1:], "CHF", balnRates(), Options{}),
		balnRates(), "CHF", date.Date{}, date.New(2021, 12, 18), Options{})

	tests := []struct {
		name    string
		res     CurrentPositionsResult
		want    []string
		notWant []string
	}{
		{
			name: "baln round trip",
			res:  sold,
			want: []string{
				`{"currentValue":{"currency":"CHF","amount":0},`,
				`"netPerformance":{"currency":"CHF","amount":-15.8},`,
				`"timeWeightedInvestment":{"currency":"CHF","amount":285.8},`,
				`"positions":[{"symbol":"BALN.SW","dataSource":"YAHOO","name":"Bâloise Holding AG","currency":"CHF","quantity":0,`,
				`"firstBuy":"2021-11-22","transactions":2,`,
				`"hasErrors":false}`,
			},
			notWant: []string{`"errors"`, `"GrossPerformance"`, `"Symbol"`},
		},
		{
			name: "failed instrument",
			res:  oversold,
			want: []string{
				`"positions":[],"hasErrors":true,"errors":[{"instrument":"YAHOO:BALN.SW","date":"2021-11-30","kind":"insufficient quantity",`,
			},
		},
		{
			name: "empty",
			res:  newResult("CHF"),
			want: []string{`"positions":[],"hasErrors":false}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.res)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			got := string(b)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("json.Marshal() = %s\nwant it to contain %s", got, want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("json.Marshal() = %s\nwant it without %s", got, notWant)
				}
			}
		})
	}
}
