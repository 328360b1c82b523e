package perf

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ratio is an exact dimensionless ratio, e.g. -0.044 for a -4.4% return.
type Ratio struct {
	value decimal.Decimal
}

// R returns value as a Ratio.
func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Ratio {
	return Ratio{value: newDecimal(value)}
}

func (r Ratio) Decimal() decimal.Decimal { return r.value }
func (r Ratio) IsZero() bool             { return r.value.IsZero() }

// Equal reports whether r and q are equal, up to 1e-10.
func (r Ratio) Equal(q Ratio) bool {
	const precision = 10
	return r.value.Round(precision).Equal(q.value.Round(precision))
}

// String formats the ratio as a percentage.
func (r Ratio) String() string {
	return fmt.Sprintf("%s%%", r.value.Shift(2).StringFixed(2))
}

// SignedString formats the ratio as a signed percentage, "-" for zero.
func (r Ratio) SignedString() string {
	if r.value.IsZero() {
		return "-"
	}
	if r.value.IsPositive() {
		return "+" + r.String()
	}
	return r.String()
}

func (r Ratio) MarshalJSON() ([]byte, error) { return r.value.MarshalJSON() }
func (r *Ratio) UnmarshalJSON(b []byte) error { return r.value.UnmarshalJSON(b) }
