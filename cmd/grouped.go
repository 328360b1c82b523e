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
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

type groupedCmd struct {
	start string
	end   string
	json  bool
}

func (*groupedCmd) Name() string     { return "grouped" }
func (*groupedCmd) Synopsis() string { return "display the net investment per period" }
func (*groupedCmd) Usage() string {
	return `pcalc grouped [-start <date>] [-end <date>] [-json] [weekly|monthly|quarterly|yearly]

  Sums the investment changes of the daily chart within each calendar period.
  Periods default to monthly.
`
}

func (*groupedCmd) Args() complete.Predictor {
	return predict.Set{"weekly", "monthly", "quarterly", "yearly"}
}

func (c *groupedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "Start of the range (default: first order)")
	f.StringVar(&c.end, "end", date.Today().String(), "End of the range")
	f.BoolVar(&c.json, "json", false, "print the result as JSON")
}

func (c *groupedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period := date.Monthly
	switch f.NArg() {
	case 0:
	case 1:
		p, err := date.ParsePeriod(f.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		period = p
	default:
		fmt.Fprintln(os.Stderr, "at most one period expected")
		return subcommands.ExitUsageError
	}
	start, end, status := parseRange(c.start, c.end)
	if status != subcommands.ExitSuccess {
		return status
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.log.Sync()

	calc, err := a.calculator(ctx, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	grouped := calc.GroupedInvestments(start, end, period)
	if c.json {
		if grouped == nil {
			grouped = []perf.GroupedInvestment{}
		}
		return printJSON(grouped)
	}
	printMarkdown(renderer.GroupedMarkdown(grouped, period, calc.Base()))
	return subcommands.ExitSuccess
}
