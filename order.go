package perf

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/perf/date"
)

// OrderType identifies the side of an order.
type OrderType string

// Order types.
const (
	Buy  OrderType = "buy"
	Sell OrderType = "sell"
)

// Instrument identifies a tradeable instrument by its symbol and the data source its quotes come from.
type Instrument struct {
	Symbol     string `json:"symbol"`
	DataSource string `json:"dataSource,omitempty"`
}

// String returns "SYMBOL" or "SOURCE:SYMBOL" when a data source is set.
func (i Instrument) String() string {
	if i.DataSource == "" {
		return i.Symbol
	}
	return i.DataSource + ":" + i.Symbol
}

// Order is a buy or sell of a quantity of an instrument at a unit price.
//
// Quantity, UnitPrice and Fee are expressed in Currency, the native currency of the instrument.
type Order struct {
	Instrument
	Name      string
	Type      OrderType
	Date      date.Date
	Quantity  Quantity
	UnitPrice Money
	Fee       Money
}

// NewOrder creates a new Order, prices and fee being expressed in currency.
func NewOrder(on date.Date, typ OrderType, inst Instrument, name string, quantity Quantity, unitPrice, fee float64, currency string) Order {
	return Order{
		Instrument: inst,
		Name:       name,
		Type:       typ,
		Date:       on,
		Quantity:   quantity,
		UnitPrice:  M(unitPrice, currency),
		Fee:        M(fee, currency),
	}
}

// Currency returns the currency of the order.
func (o Order) Currency() string { return o.UnitPrice.Currency() }

// Amount returns quantity times unit price.
func (o Order) Amount() Money { return o.UnitPrice.Mul(o.Quantity) }

// Validate checks the order's fields and reports every failure found.
func (o Order) Validate() error {
	var errs []error
	if o.Symbol == "" {
		errs = append(errs, errors.New("symbol is missing"))
	}
	if o.Type != Buy && o.Type != Sell {
		errs = append(errs, fmt.Errorf("unknown order type %q", o.Type))
	}
	if o.Date.IsZero() {
		errs = append(errs, errors.New("date is missing"))
	}
	if !o.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %s", o.Quantity))
	}
	if o.UnitPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("unit price must not be negative, got %s", o.UnitPrice.Decimal()))
	}
	if o.Fee.IsNegative() {
		errs = append(errs, fmt.Errorf("fee must not be negative, got %s", o.Fee.Decimal()))
	}
	if err := ValidateCurrency(o.Currency()); err != nil {
		errs = append(errs, err)
	} else if o.Fee.Currency() != "" && o.Fee.Currency() != o.Currency() {
		errs = append(errs, fmt.Errorf("fee currency %s does not match order currency %s", o.Fee.Currency(), o.Currency()))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid %s order for %s on %s: %w", o.Type, o.Instrument, o.Date, err)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Order.
func (o Order) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", o.Type)
	w.Append("date", o.Date)
	w.Append("symbol", o.Symbol)
	w.Optional("dataSource", o.DataSource)
	w.Optional("name", o.Name)
	w.Append("quantity", o.Quantity)
	w.Append("unitPrice", o.UnitPrice.Decimal())
	w.Append("fee", o.Fee.Decimal())
	w.Append("currency", o.Currency())
	return w.MarshalJSON()
}

// SortOrders sorts orders by date. The sort is stable: orders on the same day keep their relative order.
func SortOrders(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int { return a.Date.Compare(b.Date) })
}

// sortInstruments sorts instruments by their string form.
func sortInstruments(list []Instrument) {
	slices.SortFunc(list, func(a, b Instrument) int { return strings.Compare(a.String(), b.String()) })
}
