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

// positionsCmd holds the flags for the 'positions' subcommand.
type positionsCmd struct {
	start string
	asOf  string
	json  bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display positions and their performance on a given date" }
func (*positionsCmd) Usage() string {
	return `pcalc positions [-start <date>] [-d <date>] [-json]

  Evaluates every instrument held or traded between start and the evaluation date:
  market value, gross and net performance, with and without currency effect.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "Start of the evaluation period (default: first order)")
	f.StringVar(&c.asOf, "d", date.Today().String(), "Evaluation date")
	f.BoolVar(&c.json, "json", false, "print the result as JSON")
}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, err := parseDate("start", c.start, date.Date{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	asOf, err := parseDate("d", c.asOf, date.Today())
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

	calc, err := a.calculator(ctx, start, asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	res := calc.CurrentPositions(start, asOf)
	if c.json {
		return printJSON(res)
	}
	printMarkdown(renderer.PositionsMarkdown(res, asOf))
	return subcommands.ExitSuccess
}
