package perf

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// jorder is the object read from an orders file using the json parser.
type jorder struct {
	Type       OrderType       `json:"type"`
	Date       date.Date       `json:"date"`
	Symbol     string          `json:"symbol"`
	DataSource string          `json:"dataSource,omitempty"`
	Name       string          `json:"name,omitempty"`
	Quantity   Quantity        `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Fee        decimal.Decimal `json:"fee"`
	Currency   string          `json:"currency"`
}

func (j jorder) order() Order {
	return Order{
		Instrument: Instrument{Symbol: j.Symbol, DataSource: j.DataSource},
		Name:       j.Name,
		Type:       OrderType(strings.ToLower(string(j.Type))),
		Date:       j.Date,
		Quantity:   j.Quantity,
		UnitPrice:  M(j.UnitPrice, j.Currency),
		Fee:        M(j.Fee, j.Currency),
	}
}

// DecodeOrders decodes orders from a stream of JSONL data, one order per line.
//
// Every line is decoded and validated; all failures are reported together.
// Orders are returned sorted by date, orders on the same day keeping their order in the stream.
func DecodeOrders(r io.Reader) ([]Order, error) {
	var orders []Order
	var errs []error
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue // Skip empty lines
		}

		var j jorder
		if err := json.Unmarshal(lineBytes, &j); err != nil {
			errs = append(errs, fmt.Errorf("line %d: could not decode %q: %w", line, string(lineBytes), err))
			continue
		}
		o := j.order()
		if err := o.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		orders = append(orders, o)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	SortOrders(orders)
	return orders, nil
}

// EncodeOrder marshals a single order to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeOrder(w io.Writer, o Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write order: %w", err)
	}
	return nil
}

// EncodeOrders persists orders, sorted by date, to an io.Writer in JSONL format.
// The sort is stable, meaning orders on the same day maintain their original relative order.
func EncodeOrders(w io.Writer, orders []Order) error {
	sorted := make([]Order, len(orders))
	copy(sorted, orders)
	SortOrders(sorted)

	for _, o := range sorted {
		if err := EncodeOrder(w, o); err != nil {
			return err
		}
	}
	return nil
}

// LoadOrders reads an orders file.
func LoadOrders(filename string) ([]Order, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open orders file %q: %w", filename, err)
	}
	defer f.Close()
	orders, err := DecodeOrders(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", filename, err)
	}
	return orders, nil
}
