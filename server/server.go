// Package server exposes portfolio calculations as a read-only HTTP API.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/etnz/perf/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server answers queries over a set of orders, resolving the rates each query needs from a Source.
type Server struct {
	src    perf.Source
	orders []perf.Order
	base   string
	end    date.Date
	opts   perf.Options
	log    *zap.Logger
}

// New returns a server over orders. Queries default to the range from the first order to end.
func New(src perf.Source, orders []perf.Order, base string, end date.Date, opts perf.Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{src: src, orders: orders, base: base, end: end, opts: opts, log: log}
}

// calculator resolves the rates of [start, end] for the request.
func (s *Server) calculator(w http.ResponseWriter, r *http.Request, start, end date.Date) (*perf.Calculator, bool) {
	calc, err := perf.ResolveCalculator(r.Context(), s.src, s.orders, s.base, start, end, s.opts)
	if err != nil {
		s.log.Error("cannot resolve rates", zap.Error(err))
		sendJSONError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return calc, true
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/positions", s.handlePositions)
	r.Get("/investments", s.handleInvestments)
	r.Get("/investments/{period}", s.handleGrouped)
	r.Get("/chart", s.handleChart)
	r.Get("/report", s.handleReport)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("status", ww.Status()))
	})
}

// handlePositions serves GET /positions?start=&asOf=
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start", date.Date{})
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	asOf, err := queryDate(r, "asOf", s.end)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	calc, ok := s.calculator(w, r, start, asOf)
	if !ok {
		return
	}
	sendJSON(w, calc.CurrentPositions(start, asOf))
}

// handleInvestments serves GET /investments, the investment of each transaction point.
func (s *Server) handleInvestments(w http.ResponseWriter, r *http.Request) {
	calc, ok := s.calculator(w, r, date.Date{}, s.end)
	if !ok {
		return
	}
	points := calc.Investments()
	if points == nil {
		points = []perf.ChartDataPoint{}
	}
	sendJSON(w, points)
}

// handleChart serves GET /chart?start=&end=
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.queryRange(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	calc, ok := s.calculator(w, r, start, end)
	if !ok {
		return
	}
	series := calc.Chart(start, end)
	if series.Points == nil {
		series.Points = []perf.ChartDataPoint{}
	}
	sendJSON(w, series)
}

// handleGrouped serves GET /investments/{period}?start=&end=
func (s *Server) handleGrouped(w http.ResponseWriter, r *http.Request) {
	period, err := date.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	start, end, err := s.queryRange(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	calc, ok := s.calculator(w, r, start, end)
	if !ok {
		return
	}
	grouped := calc.GroupedInvestments(start, end, period)
	if grouped == nil {
		grouped = []perf.GroupedInvestment{}
	}
	sendJSON(w, grouped)
}

// handleReport serves GET /report?start=&asOf= as an HTML page.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "start", date.Date{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	asOf, err := queryDate(r, "asOf", s.end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	calc, err := perf.ResolveCalculator(r.Context(), s.src, s.orders, s.base, start, asOf, s.opts)
	if err != nil {
		s.log.Error("cannot resolve rates", zap.Error(err))
		http.Error(w, "cannot resolve rates", http.StatusInternalServerError)
		return
	}
	md := renderer.PositionsMarkdown(calc.CurrentPositions(start, asOf), asOf)
	body, err := renderer.HTML(md)
	if err != nil {
		s.log.Error("cannot render report", zap.Error(err))
		http.Error(w, "cannot render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Positions on %s</title></head><body>\n", asOf)
	w.Write(body)
	fmt.Fprint(w, "</body></html>\n")
}

func (s *Server) queryRange(r *http.Request) (start, end date.Date, err error) {
	if start, err = queryDate(r, "start", date.Date{}); err != nil {
		return
	}
	if end, err = queryDate(r, "end", s.end); err != nil {
		return
	}
	if !start.IsZero() && start.After(end) {
		err = fmt.Errorf("start %s is after end %s", start, end)
	}
	return
}

// queryDate reads a date query parameter, def when it is absent.
func queryDate(r *http.Request, key string, def date.Date) (date.Date, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	d, err := date.Parse(v)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
