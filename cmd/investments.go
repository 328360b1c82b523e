package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/etnz/perf/renderer"
	"github.com/google/subcommands"
)

type investmentsCmd struct {
	json bool
}

func (*investmentsCmd) Name() string     { return "investments" }
func (*investmentsCmd) Synopsis() string { return "display the investment after each order date" }
func (*investmentsCmd) Usage() string {
	return `pcalc investments [-json]

  Lists the cumulative investment, in base currency, at each date with orders.
`
}

func (c *investmentsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the result as JSON")
}

func (c *investmentsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	calc, err := a.calculator(ctx, date.Date{}, date.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	points := calc.Investments()
	if c.json {
		if points == nil {
			points = []perf.ChartDataPoint{}
		}
		return printJSON(points)
	}
	printMarkdown(renderer.InvestmentsMarkdown("Investments", perf.ChartSeries{Points: points}))
	return subcommands.ExitSuccess
}
