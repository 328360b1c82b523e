package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/perf/date"
	"github.com/etnz/perf/renderer"
	"github.com/google/subcommands"
)

type chartCmd struct {
	start   string
	end     string
	revalue bool
	json    bool
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "display the daily investment over a range" }
func (*chartCmd) Usage() string {
	return `pcalc chart [-start <date>] [-end <date>] [-revalue] [-json]

  Lists the cumulative investment, in base currency, for each day of the range.
  Long ranges are sampled at order dates (see daily_limit).
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "Start of the range (default: first order)")
	f.StringVar(&c.end, "end", date.Today().String(), "End of the range")
	f.BoolVar(&c.revalue, "revalue", false, "convert investments at each day's exchange rate")
	f.BoolVar(&c.json, "json", false, "print the result as JSON")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	a.cfg.Revalue = a.cfg.Revalue || c.revalue

	calc, err := a.calculator(ctx, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	series := calc.Chart(start, end)
	if c.json {
		return printJSON(series)
	}
	printMarkdown(renderer.InvestmentsMarkdown(fmt.Sprintf("Investment until %s", end), series))
	return subcommands.ExitSuccess
}

// parseRange parses -start and -end flags.
func parseRange(startFlag, endFlag string) (start, end date.Date, status subcommands.ExitStatus) {
	start, err := parseDate("start", startFlag, date.Date{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return start, end, subcommands.ExitUsageError
	}
	end, err = parseDate("end", endFlag, date.Today())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return start, end, subcommands.ExitUsageError
	}
	if !start.IsZero() && start.After(end) {
		fmt.Fprintf(os.Stderr, "start %s is after end %s\n", start, end)
		return start, end, subcommands.ExitUsageError
	}
	return start, end, subcommands.ExitSuccess
}
