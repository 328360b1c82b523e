// Package cmd implements the pcalc command line application.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/perf"
	"github.com/etnz/perf/date"
	"github.com/etnz/perf/renderer"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"go.uber.org/zap"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "pcalc.yaml", "Path to the configuration file")
var ordersFile = flag.String("orders", "", "Path to the orders file (JSONL format), overrides orders_file")
var marketFile = flag.String("market", "", "Path to the market data file (JSONL format), overrides market_file")
var baseCurrency = flag.String("base", "", "Base currency, overrides base_currency")

// stdout receives the commands output.
var stdout io.Writer = os.Stdout

// commands returns the pcalc subcommands by group.
func commands() map[string][]subcommands.Command {
	return map[string][]subcommands.Command{
		"reports": {
			&positionsCmd{},
			&investmentsCmd{},
			&chartCmd{},
			&groupedCmd{},
		},
		"market data": {
			&quoteCmd{},
		},
		"server": {
			&serveCmd{},
		},
		"help": {
			&topicCmd{},
		},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range commands() {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// argsPredictor is implemented by commands that complete their positional arguments.
type argsPredictor interface {
	Args() complete.Predictor
}

// Completion returns the shell completion of the application, top level flags and subcommands included.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(flag.CommandLine),
	}
	for _, cmds := range commands() {
		for _, cmd := range cmds {
			f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(f)
			sub := &complete.Command{Flags: predictFlags(f)}
			if a, ok := cmd.(argsPredictor); ok {
				sub.Args = a.Args()
			}
			root.Sub[cmd.Name()] = sub
		}
	}
	return root
}

func predictFlags(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch {
		case fl.Name == "config":
			flags[fl.Name] = predict.Files("*.yaml")
		case fl.Name == "orders" || fl.Name == "market":
			flags[fl.Name] = predict.Files("*.jsonl")
		case isBool(fl):
			flags[fl.Name] = predict.Nothing
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

func isBool(fl *flag.Flag) bool {
	b, ok := fl.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// loadConfig reads the configuration file and applies the top level flags.
func loadConfig() (*Config, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	if *ordersFile != "" {
		cfg.OrdersFile = *ordersFile
	}
	if *marketFile != "" {
		cfg.MarketFile = *marketFile
	}
	if *baseCurrency != "" {
		cfg.BaseCurrency = strings.ToUpper(*baseCurrency)
		if err := perf.ValidateCurrency(cfg.BaseCurrency); err != nil {
			return nil, fmt.Errorf("invalid base currency: %w", err)
		}
	}
	return cfg, nil
}

// app is what every command needs: the configuration, a logger and the orders.
type app struct {
	cfg    *Config
	log    *zap.Logger
	orders []perf.Order
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("cannot create logger: %w", err)
	}
	orders, err := perf.LoadOrders(cfg.OrdersFile)
	if err != nil {
		return nil, err
	}
	log.Debug("orders loaded", zap.String("file", cfg.OrdersFile), zap.Int("count", len(orders)))
	return &app{cfg: cfg, log: log, orders: orders}, nil
}

// calculator resolves every rate needed over [start, end] from the market data file.
func (a *app) calculator(ctx context.Context, start, end date.Date) (*perf.Calculator, error) {
	market, err := perf.LoadMarketData(a.cfg.MarketFile)
	if err != nil {
		return nil, err
	}
	return perf.ResolveCalculator(ctx, market, a.orders, a.cfg.BaseCurrency, start, end, a.cfg.Options(a.log))
}

// parseDate parses a date flag; an empty value returns def.
func parseDate(name, value string, def date.Date) (date.Date, error) {
	if value == "" {
		return def, nil
	}
	d, err := date.Parse(value)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return d, nil
}

// printMarkdown renders markdown for the terminal, or prints it as is when rendering fails.
func printMarkdown(md string) {
	out, err := renderer.Terminal(md, 120)
	if err != nil {
		out = md
	}
	fmt.Fprint(stdout, out)
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
