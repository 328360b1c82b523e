// Package provider fetches prices and exchange rates from HTTP services returning JSON.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTTL is how long fetched values are kept in memory.
const DefaultTTL = 24 * time.Hour

// Endpoint describes where a value is and how to extract it from the JSON response.
//
// URL may contain the placeholders {symbol}, {source}, {from}, {to} and {date}
// (formatted as 2006-01-02). Path is a JSONPath expression selecting a number, or a
// string holding a number, e.g. "$.close" or "$.data[-1:].close".
type Endpoint struct {
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
}

// JSONQuotes is a perf.Source backed by JSON HTTP endpoints.
//
// An HTTP 404, or a path that selects nothing, is reported as perf.ErrNotFound;
// other failures are transient.
type JSONQuotes struct {
	Prices Endpoint
	Rates  Endpoint

	client *http.Client
	cache  *cache.Cache
	log    *zap.Logger
}

// Option configures a JSONQuotes.
type Option func(*JSONQuotes)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option { return func(q *JSONQuotes) { q.client = c } }

// WithTTL sets how long fetched values are cached.
func WithTTL(ttl time.Duration) Option {
	return func(q *JSONQuotes) { q.cache = cache.New(ttl, 2*ttl) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(q *JSONQuotes) { q.log = l } }

// New returns a source reading prices and rates from the given endpoints.
func New(prices, rates Endpoint, opts ...Option) *JSONQuotes {
	q := &JSONQuotes{
		Prices: prices,
		Rates:  rates,
		client: http.DefaultClient,
		cache:  cache.New(DefaultTTL, 2*DefaultTTL),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Price fetches the price of inst on a given day.
func (q *JSONQuotes) Price(ctx context.Context, inst perf.Instrument, on date.Date) (decimal.Decimal, error) {
	if q.Prices.URL == "" {
		return decimal.Zero, fmt.Errorf("no price endpoint for %s: %w", inst, perf.ErrNotFound)
	}
	addr := expand(q.Prices.URL, map[string]string{
		"symbol": inst.Symbol,
		"source": inst.DataSource,
		"date":   on.String(),
	})
	return q.get(ctx, addr, q.Prices.Path)
}

// FX fetches the value of one unit of 'from' in 'to' on a given day.
func (q *JSONQuotes) FX(ctx context.Context, from, to string, on date.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if q.Rates.URL == "" {
		return decimal.Zero, fmt.Errorf("no exchange rate endpoint for %s%s: %w", from, to, perf.ErrNotFound)
	}
	addr := expand(q.Rates.URL, map[string]string{
		"from": from,
		"to":   to,
		"date": on.String(),
	})
	return q.get(ctx, addr, q.Rates.Path)
}

// expand replaces the {name} placeholders of tmpl with their query-escaped value.
func expand(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", url.QueryEscape(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// get fetches addr and extracts the number at path, using the cache.
func (q *JSONQuotes) get(ctx context.Context, addr, path string) (decimal.Decimal, error) {
	key := addr + " " + path
	if v, found := q.cache.Get(key); found {
		return v.(decimal.Decimal), nil
	}

	var jobj any
	if err := q.jget(ctx, addr, &jobj); err != nil {
		return decimal.Zero, err
	}
	v, err := extract(jobj, path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot read %q from %s: %w", path, addr, err)
	}
	q.cache.Set(key, v, cache.DefaultExpiration)
	return v, nil
}

// jget performs an HTTP GET request and unmarshals the JSON response into data.
func (q *JSONQuotes) jget(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("invalid request %q: %w", addr, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	q.log.Debug("http get", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cannot http GET %v%v: %v: %w", req.URL.Host, req.URL.Path, resp.Status, perf.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return fmt.Errorf("cannot decode response of %v%v: %w", req.URL.Host, req.URL.Path, err)
	}
	return nil
}

// extract returns the number at path in jobj.
func extract(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%v: %w", err, perf.ErrNotFound)
	}
	// jsonpath returns a list for filters and slices: keep the first item if any.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("empty selection: %w", perf.ErrNotFound)
		}
		jval = jlist[0]
	}

	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		// some APIs return numbers as strings, sometimes with a decimal comma.
		s := strings.ReplaceAll(strings.ReplaceAll(v, ",", "."), " ", "")
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", jval)
	}
}

var _ perf.Source = (*JSONQuotes)(nil)
