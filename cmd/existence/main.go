package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laev/existence/internal/config"
	"github.com/laev/existence/internal/demo"
	"github.com/laev/existence/internal/engine"
	"github.com/laev/existence/internal/source"
	"github.com/laev/existence/pkg/existence"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	configPath  string
	watch       bool
	httpAddr    string
	logLevel    string
	probability float64
	possibility float64
	threshold   float64
	single      bool // -probability or -possibility was given
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("existence", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "path to config file; without it the built-in examples are printed")
	fs.BoolVar(&o.watch, "watch", false, "keep running: reload config on change and poll sources (requires -config)")
	fs.StringVar(&o.httpAddr, "http", "", "HTTP API listen address in watch mode (overrides server.http_addr)")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug | info | warn | error")
	fs.Float64Var(&o.probability, "probability", 0, "evaluate a single triple: P in [0,1]")
	fs.Float64Var(&o.possibility, "possibility", 0, "evaluate a single triple: Π in [0,1]")
	fs.Float64Var(&o.threshold, "threshold", existence.DefaultThreshold, "evaluate a single triple: θ in (0,1]")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var setP, setQ, setT bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "probability":
			setP = true
		case "possibility":
			setQ = true
		case "threshold":
			setT = true
		}
	})
	o.single = setP || setQ

	switch {
	case o.single && !(setP && setQ):
		return nil, errors.New("-probability and -possibility must be given together")
	case setT && !o.single:
		return nil, errors.New("-threshold requires -probability and -possibility")
	case o.single && o.configPath != "":
		return nil, errors.New("-probability/-possibility cannot be combined with -config")
	case o.watch && o.configPath == "":
		return nil, errors.New("-watch requires -config")
	}
	return o, nil
}

// run is main without the process exit, so it can be tested.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "existence:", err)
		return exitInvalid
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		fmt.Fprintln(stderr, "existence: bad -log-level:", err)
		return exitInvalid
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})))

	switch {
	case opts.single:
		return runSingle(opts, stdout)
	case opts.configPath == "":
		if err := demo.Run(stdout, demo.Examples); err != nil {
			slog.Error("demo failed", "err", err)
			return exitFailure
		}
		return exitOK
	}

	slog.Info("existence starting", "config", opts.configPath, "watch", opts.watch)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return exitFailure
	}
	slog.Info("config loaded",
		"threshold", cfg.Threshold,
		"phenomena", len(cfg.Phenomena),
		"sources", len(cfg.Sources),
	)

	if opts.watch {
		if opts.httpAddr != "" {
			cfg.Server.HTTPAddr = opts.httpAddr
		}
		return runWatch(ctx, opts.configPath, cfg, stdout)
	}
	return runOnce(ctx, cfg, stdout)
}

// runSingle evaluates the triple given on the command line and prints the verdict.
func runSingle(opts *options, stdout io.Writer) int {
	ok, err := existence.ExistsWithThreshold(opts.probability, opts.possibility, opts.threshold)
	if err != nil {
		slog.Error("invalid input", "err", err)
		return exitInvalid
	}
	fmt.Fprintln(stdout, ok)
	return exitOK
}

// runOnce evaluates every configured phenomenon and one read of every source,
// printing a line per result. It fails if any input was rejected or any source
// could not be read.
func runOnce(ctx context.Context, cfg *config.Config, stdout io.Writer) int {
	eng := engine.New()
	now := time.Now().UTC()
	code := exitOK

	results := eng.ProcessAll(engine.FromConfig(cfg), now)
	for _, src := range cfg.Sources {
		reading, err := readSource(ctx, src)
		if err != nil {
			slog.Error("source read failed", "source", src.ID, "err", err)
			code = exitFailure
			continue
		}
		results = append(results, eng.ProcessAll(engine.FromReading(reading, cfg.Threshold), now)...)
	}

	for _, r := range results {
		fmt.Fprintln(stdout, formatResult(r))
		if r.Err != "" {
			code = exitFailure
		}
	}
	return code
}

func readSource(ctx context.Context, src config.Source) (*source.Reading, error) {
	r, err := source.New(src)
	if err != nil {
		return nil, err
	}
	return r.Read(ctx)
}

// formatResult renders one result in the demonstration's line format,
// prefixed with the phenomenon and its origin.
func formatResult(r *engine.Result) string {
	prefix := fmt.Sprintf("%s [%s]: ", r.ID, r.Origin)
	if r.Err != "" {
		return prefix + "error: " + r.Err
	}
	return prefix + demo.Line(demo.Example{
		Probability: r.Input.Probability,
		Possibility: r.Input.Possibility,
		Threshold:   r.Input.Threshold,
	}, r.Output.Exists)
}
