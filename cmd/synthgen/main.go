// Command synthgen writes the synthetic corpora used to populate the
// EconFlux knowledge bases.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/scttfrdmn/econflux/econflux-go/observability"
	"github.com/scttfrdmn/econflux/econflux-go/synth"
)

type options struct {
	records  int
	years    int
	output   string
	seed     uint64
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("synthgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.IntVar(&opts.records, "records", 100, "Number of records per category")
	fs.IntVar(&opts.records, "r", 100, "Shorthand for --records")
	fs.IntVar(&opts.years, "years", 3, "Years back from today for the first record")
	fs.IntVar(&opts.years, "y", 3, "Shorthand for --years")
	fs.StringVar(&opts.output, "output", synth.DefaultOutputDir, "Output directory")
	fs.StringVar(&opts.output, "o", synth.DefaultOutputDir, "Shorthand for --output")
	fs.Uint64Var(&opts.seed, "seed", 0, "Random seed; 0 seeds from the clock")
	fs.StringVar(&opts.logLevel, "log-level", "INFO", "Log level")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.records < 1 {
		return opts, fmt.Errorf("--records must be at least 1")
	}
	if opts.years < 1 {
		return opts, fmt.Errorf("--years must be at least 1")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "synthgen: %v\n", err)
		return 2
	}

	logger := observability.NewLogger(stderr, observability.ParseLevel(opts.logLevel), false, false)

	_, err = synth.Generate(ctx, synth.Options{
		OutputDir: opts.output,
		Records:   opts.records,
		YearsBack: opts.years,
		Seed:      opts.seed,
		Out:       stdout,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
