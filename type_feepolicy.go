package perf

import "fmt"

// FeePolicy defines how order fees are expressed in the base currency.
type FeePolicy int

const (
	// FeesAtPaymentDate converts each fee from the order currency into the base
	// currency using the exchange rate of the order date.
	FeesAtPaymentDate FeePolicy = iota
	// FeesAsBase takes fee amounts as already denominated in the base currency.
	FeesAsBase
)

func (p FeePolicy) String() string {
	switch p {
	case FeesAtPaymentDate:
		return "payment-date"
	case FeesAsBase:
		return "base"
	default:
		return "unknown"
	}
}

// ParseFeePolicy parses a string into a FeePolicy.
func ParseFeePolicy(s string) (FeePolicy, error) {
	switch s {
	case "payment-date", "":
		return FeesAtPaymentDate, nil
	case "base":
		return FeesAsBase, nil
	default:
		return 0, fmt.Errorf("unknown fee policy: %q", s)
	}
}
