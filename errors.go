package perf

import (
	"errors"
	"fmt"

	"github.com/etnz/perf/date"
)

var (
	// ErrNotFound is returned by a RateResolver or a Source when a price or rate is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientQuantity reports a sell of more units than held.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrRateUnavailable reports a price or exchange rate that could not be resolved.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrCurrencyMismatch reports an order whose currency differs from the instrument's earlier orders.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// InstrumentError is a failure scoped to a single instrument.
//
// It matches its Kind with errors.Is.
type InstrumentError struct {
	Instrument Instrument
	Date       date.Date
	Kind       error // ErrInsufficientQuantity, ErrRateUnavailable or ErrCurrencyMismatch
	Err        error // underlying cause, if any
}

func (e *InstrumentError) Error() string {
	msg := fmt.Sprintf("%s on %s: %v", e.Instrument, e.Date, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InstrumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func insufficientQuantity(inst Instrument, on date.Date, held, sold Quantity) *InstrumentError {
	return &InstrumentError{
		Instrument: inst,
		Date:       on,
		Kind:       ErrInsufficientQuantity,
		Err:        fmt.Errorf("cannot sell %s, holding %s", sold, held),
	}
}

func rateUnavailable(inst Instrument, on date.Date, err error) *InstrumentError {
	return &InstrumentError{Instrument: inst, Date: on, Kind: ErrRateUnavailable, Err: err}
}

func (e *InstrumentError) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("instrument", e.Instrument.String())
	w.Append("date", e.Date)
	w.Append("kind", e.Kind.Error())
	if e.Err != nil {
		w.Append("error", e.Err.Error())
	}
	return w.MarshalJSON()
}
