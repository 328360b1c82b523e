package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/etnz/perf/provider"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type quoteCmd struct {
	end string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "fetch the prices and exchange rates the orders need" }
func (*quoteCmd) Usage() string {
	return `pcalc quote [-end <date>]

  Fetches from the configured provider every price and exchange rate needed to
  evaluate the orders until end, and records them in the market data file.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.end, "end", date.Today().String(), "Evaluation date to fetch quotes for")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}
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

	if a.cfg.Provider.Prices.URL == "" && a.cfg.Provider.Rates.URL == "" {
		fmt.Fprintln(os.Stderr, "Error: no provider configured (provider.prices.url, provider.rates.url)")
		return subcommands.ExitFailure
	}
	src := provider.New(a.cfg.Provider.Prices, a.cfg.Provider.Rates, provider.WithLogger(a.log))

	market, err := perf.LoadMarketData(a.cfg.MarketFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var start date.Date
	if len(a.orders) > 0 {
		start = a.orders[0].Date
	}
	opts := a.cfg.Options(a.log)
	reqs := perf.NewRequirements(a.orders, a.cfg.BaseCurrency, start, end, opts)
	table, err := perf.Resolve(ctx, src, reqs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	n := market.Merge(table)
	if err := perf.SaveMarketData(a.cfg.MarketFile, market); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	a.log.Info("quotes recorded", zap.String("file", a.cfg.MarketFile), zap.Int("found", n), zap.Int("wanted", reqs.Len()))
	fmt.Fprintf(stdout, "%d of %d quotes recorded in %s\n", n, reqs.Len(), a.cfg.MarketFile)
	return subcommands.ExitSuccess
}
