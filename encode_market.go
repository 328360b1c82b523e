package perf

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/etnz/perf/date"
	"github.com/shopspring/decimal"
)

const attrOn = "on"

// Market data is persisted as JSONL, one line per day, human-readable and git-friendly:
//
//	{"on":"2021-12-18","USDCHF":0.92,"YAHOO:BALN.SW":148.9}
//
// Keys other than "on" are either a six letter currency pair or an instrument
// in its "SOURCE:SYMBOL" form.

// decodeDailyQuotes decodes a single line. lineNum is for error messages only.
func decodeDailyQuotes(m *MarketData, lineNum int, line []byte) error {
	if len(strings.TrimSpace(string(line))) == 0 {
		return nil
	}

	jobj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(line, &jobj); err != nil {
		return fmt.Errorf("line %d: not a correct json: %w", lineNum, err)
	}

	jvalue, ok := jobj[attrOn]
	if !ok {
		return fmt.Errorf("line %d: missing the property %q with a date", lineNum, attrOn)
	}
	var on date.Date
	if err := json.Unmarshal(jvalue, &on); err != nil {
		return fmt.Errorf("line %d: property %q must be a valid date: %w", lineNum, attrOn, err)
	}

	for key, raw := range jobj {
		if key == attrOn {
			continue
		}
		var v decimal.Decimal
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("line %d: property %q must be a number: %w", lineNum, key, err)
		}
		if from, to, err := CurrencyPair(key); err == nil {
			m.SetFX(from, to, on, v)
			continue
		}
		inst, err := ParseInstrument(key)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		m.SetPrice(inst, on, v)
	}
	return nil
}

// DecodeMarketData reads quotes from a JSONL stream.
func DecodeMarketData(r io.Reader) (*MarketData, error) {
	m := NewMarketData()
	scanner := bufio.NewScanner(r)
	var errs []error
	for i := 1; scanner.Scan(); i++ {
		if err := decodeDailyQuotes(m, i, scanner.Bytes()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("cannot decode market data: %w", err)
	}
	return m, nil
}

// EncodeMarketData writes every quote of m as JSONL, one line per day in chronological order.
// Within a line, currency pairs come first, then instruments, each sorted.
func EncodeMarketData(w io.Writer, m *MarketData) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type column struct {
		key     string
		history *date.History[decimal.Decimal]
	}
	var columns []column
	pairs := make([]string, 0, len(m.fx))
	for pair := range m.fx {
		pairs = append(pairs, pair)
	}
	slices.Sort(pairs)
	for _, pair := range pairs {
		columns = append(columns, column{pair, m.fx[pair]})
	}
	instruments := make([]Instrument, 0, len(m.prices))
	for inst := range m.prices {
		instruments = append(instruments, inst)
	}
	sortInstruments(instruments)
	for _, inst := range instruments {
		columns = append(columns, column{inst.String(), m.prices[inst]})
	}

	days := make([][]date.Date, 0, len(columns))
	for _, c := range columns {
		days = append(days, c.history.Days())
	}

	bw := bufio.NewWriter(w)
	for day := range date.Merge(days...) {
		var jw jsonObjectWriter
		jw.Append(attrOn, day)
		for _, c := range columns {
			if v, ok := c.history.Get(day); ok {
				jw.Append(c.key, v)
			}
		}
		b, err := jw.MarshalJSON()
		if err != nil {
			return fmt.Errorf("cannot encode market data on %s: %w", day, err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write market data: %w", err)
	}
	return nil
}

// LoadMarketData reads a market data file. A missing file is an empty store.
func LoadMarketData(filename string) (*MarketData, error) {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewMarketData(), nil
		}
		return nil, fmt.Errorf("cannot open market data file %q: %w", filename, err)
	}
	defer f.Close()
	m, err := DecodeMarketData(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", filename, err)
	}
	return m, nil
}

// SaveMarketData writes m into a market data file, replacing it.
func SaveMarketData(filename string, m *MarketData) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create market data file %q: %w", filename, err)
	}
	if err := EncodeMarketData(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
