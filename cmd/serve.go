package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/etnz/perf/server"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type serveCmd struct {
	listen string
	end    string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve positions and investments over HTTP" }
func (*serveCmd) Usage() string {
	return `pcalc serve [-listen <addr>] [-end <date>]

  Serves a read-only JSON API:
    GET /positions?start=&asOf=
    GET /investments
    GET /investments/{period}?start=&end=
    GET /chart?start=&end=
    GET /report?start=&asOf=    (HTML)
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listen, "listen", "", "Address to listen on, overrides listen")
	f.StringVar(&c.end, "end", date.Today().String(), "Default end date of queries")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	end, err := parseDate("end", c.end, date.Today())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()
	if c.listen != "" {
		a.cfg.Listen = c.listen
	}

	market, err := perf.LoadMarketData(a.cfg.MarketFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           server.New(market, a.orders, a.cfg.BaseCurrency, end, a.cfg.Options(a.log)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	a.log.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
