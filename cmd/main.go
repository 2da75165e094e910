package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aredoff/proxycheck"
	"github.com/aredoff/proxycheck/internal/api"
	"github.com/aredoff/proxycheck/internal/parser"
	"github.com/aredoff/proxycheck/internal/proxy"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

type options struct {
	configFile  string
	inputFile   string
	concurrency int
	timeout     time.Duration
	oracle      string
	output      string
	workingOnly bool
	serve       string
	quiet       bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "ini config file")
	flag.StringVar(&opts.inputFile, "f", "", "proxy list file, one proxy per line (default stdin)")
	flag.IntVar(&opts.concurrency, "c", 0, "number of proxies checked concurrently")
	flag.DurationVar(&opts.timeout, "timeout", 0, "timeout of a single protocol attempt")
	flag.StringVar(&opts.oracle, "oracle", "", "host:port reached through every proxy")
	flag.StringVar(&opts.output, "o", "text", "output format: text or jsonl")
	flag.BoolVar(&opts.workingOnly, "working", false, "print working proxies only")
	flag.StringVar(&opts.serve, "serve", "", "serve the HTTP API on this address instead of checking a list")
	flag.BoolVar(&opts.quiet, "q", false, "no progress bar")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	config, err := proxycheck.LoadConfig(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(config, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := proxycheck.NewChecker(config)

	if opts.serve != "" {
		if err := api.NewServer(checker, opts.serve, config.Logger).ListenAndServe(ctx); err != nil {
			config.Logger.Fatal().Err(err).Msg("server failed")
		}
		return
	}

	if err := run(ctx, checker, config.Logger, opts); err != nil {
		config.Logger.Fatal().Err(err).Msg("check failed")
	}
}

func applyFlags(config *proxycheck.Config, opts options) {
	if opts.concurrency > 0 {
		config.Concurrency = opts.concurrency
	}
	if opts.timeout > 0 {
		config.Timeout = opts.timeout
	}
	if opts.oracle != "" {
		config.OracleAddr = opts.oracle
	}
	if opts.verbose {
		config.Logger = config.Logger.Level(zerolog.DebugLevel)
	}
}

func run(ctx context.Context, checker *proxycheck.Checker, logger zerolog.Logger, opts options) error {
	var in io.Reader = os.Stdin
	if opts.inputFile != "" {
		f, err := os.Open(opts.inputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	list, err := parser.ReadList(in)
	if err != nil {
		return fmt.Errorf("failed to read proxy list: %w", err)
	}
	if len(list) == 0 {
		logger.Warn().Msg("no proxies to check")
		return nil
	}

	batch := checker.Start(ctx, list)

	var bar *progressbar.ProgressBar
	if !opts.quiet {
		bar = progressbar.Default(int64(len(list)), "checking")
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	w := os.Stdout
	outcomes := batch.Outcomes()
	for outcomes != nil {
		select {
		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			if opts.workingOnly && !o.Working {
				continue
			}
			if err := printOutcome(w, o, opts.output); err != nil {
				return err
			}
		case <-ticker.C:
			if bar != nil {
				completed, _ := batch.Progress()
				_ = bar.Set(completed)
			}
		}
	}
	batch.Wait()

	completed, total := batch.Progress()
	if bar != nil {
		_ = bar.Set(completed)
		_ = bar.Finish()
	}

	stats := batch.Results().Stats()
	logger.Info().
		Int("completed", completed).
		Int("total", total).
		Int("working", stats.Working).
		Int("failed", stats.Failed).
		Int("invalid", stats.Invalid).
		Int("errors", stats.Errors).
		Float64("mean_latency_ms", stats.MeanLatency()).
		Bool("cancelled", batch.Cancelled()).
		Msg("check finished")
	return nil
}

func printOutcome(w io.Writer, o proxy.Outcome, format string) error {
	if format == "jsonl" {
		return json.NewEncoder(w).Encode(o)
	}

	latency := "-"
	if o.Latency != nil {
		latency = fmt.Sprintf("%dms", *o.Latency)
	}
	status := "FAIL"
	if o.Working {
		status = "OK"
	}
	_, err := fmt.Fprintf(w, "%-40s %-8s %-5s %s\n", o.Proxy, o.Type, status, latency)
	return err
}
