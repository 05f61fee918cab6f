// Command snippetcheck evaluates JavaScript or TypeScript snippets
// against test cases from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"digital.vasic.snippetcheck/pkg/bank"
	"digital.vasic.snippetcheck/pkg/config"
	"digital.vasic.snippetcheck/pkg/engine"
	"digital.vasic.snippetcheck/pkg/env"
	"digital.vasic.snippetcheck/pkg/logging"
	"digital.vasic.snippetcheck/pkg/metrics"
	"digital.vasic.snippetcheck/pkg/monitor"
	"digital.vasic.snippetcheck/pkg/normalize"
	"digital.vasic.snippetcheck/pkg/report"
)

// Exit codes.
const (
	exitPassed = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	source   string
	cases    string
	suite    string
	problem  string
	function string
	dialect  string
	timeout  time.Duration
	config   string
	envFile  string
	jsonOut  bool
	verbose  bool
	verify   bool
	validate bool
	monitor  string
	history  string
	summary  string
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("snippetcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.source, "source", "", "Snippet file to evaluate")
	fs.StringVar(&o.cases, "cases", "", "YAML or JSON file with a list of test cases")
	fs.StringVar(&o.suite, "suite", "", "Problem suite file or directory")
	fs.StringVar(&o.problem, "problem", "", "Problem ID within the suite")
	fs.StringVar(&o.function, "function", "", "Preferred function name")
	fs.StringVar(&o.dialect, "dialect", "", "Source dialect: typescript or javascript")
	fs.DurationVar(&o.timeout, "timeout", 0, "Per-case timeout (e.g. 2s)")
	fs.StringVar(&o.config, "config", "", "Path to YAML config file")
	fs.StringVar(&o.envFile, "env", "", "Path to .env file")
	fs.BoolVar(&o.jsonOut, "json", false, "Print results as JSON")
	fs.BoolVar(&o.verbose, "verbose", false, "Also list passing cases")
	fs.BoolVar(&o.verify, "verify", false, "Run every problem's reference solution")
	fs.BoolVar(&o.validate, "validate", false, "Validate the suite file and exit")
	fs.StringVar(&o.monitor, "monitor", "", "Serve the live monitor on this address")
	fs.StringVar(&o.history, "history", "", "Append run records to this JSON lines file")
	fs.StringVar(&o.summary, "summary", "", "Write a summary into this directory")
	fs.StringVar(&o.logLevel, "log-level", "", "Override the log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func loadConfig(o *options) (config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return cfg, err
		}
	}

	loader := env.NewLoader()
	if o.envFile != "" {
		if err := loader.Load(o.envFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(loader); err != nil {
		return cfg, err
	}

	if o.timeout > 0 {
		cfg.Timeout = o.timeout
	}
	if o.dialect != "" {
		cfg.Dialect = o.dialect
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.monitor != "" {
		cfg.Monitor.Addr = o.monitor
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitPassed
		}
		return exitUsage
	}

	if o.validate {
		return validate(o, stdout, stderr)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "load config failed: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		fmt.Fprintf(stderr, "create logger failed: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Close() }()

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	}

	var monitorOpts []monitor.ServerOption
	if cfg.Metrics.Enabled {
		pm, err := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
		if err != nil {
			fmt.Fprintf(stderr, "create metrics failed: %v\n", err)
			return exitUsage
		}
		opts = append(opts, engine.WithMetrics(pm))
		monitorOpts = append(monitorOpts, monitor.WithHandler("/metrics", pm.Handler()))
	}

	if cfg.Monitor.Addr != "" {
		collector := monitor.NewEventCollector()
		opts = append(opts, engine.WithCollector(collector))
		srv := monitor.NewServer(cfg.Monitor.Addr, collector,
			append(monitorOpts, monitor.WithServerLogger(logger))...)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("monitor stopped", logging.ErrorField(err))
			}
		}()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	eng, err := engine.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "create engine failed: %v\n", err)
		return exitUsage
	}

	jobs, err := buildJobs(o)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	entries := make([]report.Entry, 0, len(jobs))
	for _, br := range eng.RunBatch(ctx, jobs, 0) {
		if br.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", br.ID, br.Err)
			return exitFailed
		}
		entries = append(entries, report.Entry{Name: br.ID, Result: br.Result})
	}

	return finish(o, entries, stdout, stderr)
}

func finish(o *options, entries []report.Entry, stdout, stderr io.Writer) int {
	var rep report.Reporter = report.NewTextReporter(o.verbose)
	if o.jsonOut {
		rep = report.NewJSONReporter(true)
	}

	allPassed := len(entries) > 0
	for _, e := range entries {
		if err := rep.WriteReport(stdout, e); err != nil {
			fmt.Fprintf(stderr, "write report failed: %v\n", err)
			return exitFailed
		}
		if o.history != "" {
			if err := report.AppendToHistory(o.history, e); err != nil {
				fmt.Fprintf(stderr, "%v\n", err)
			}
		}
		allPassed = allPassed && e.Result.AllPassed
	}

	if o.summary != "" {
		if err := report.SaveSummary(report.BuildSummary(entries), o.summary); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
		}
	}

	if allPassed {
		return exitPassed
	}
	return exitFailed
}

// buildJobs turns the flags into evaluation jobs.
func buildJobs(o *options) ([]engine.Job, error) {
	var dialect normalize.Dialect
	if o.dialect != "" {
		d, err := normalize.ParseDialect(o.dialect)
		if err != nil {
			return nil, err
		}
		dialect = d
	}

	if o.verify {
		if o.suite == "" {
			return nil, errors.New("-verify needs -suite")
		}
		return verifyJobs(o.suite)
	}

	if o.source == "" {
		return nil, errors.New("-source is required")
	}
	data, err := os.ReadFile(o.source)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	job := engine.Job{
		ID:       o.source,
		Source:   string(data),
		Dialect:  dialect,
		Function: o.function,
	}
	if dialect == "" {
		job.Dialect = dialectFromExt(o.source)
	}

	switch {
	case o.cases != "":
		cases, err := bank.LoadCases(o.cases)
		if err != nil {
			return nil, err
		}
		job.Cases = cases
	case o.suite != "":
		p, err := findProblem(o.suite, o.problem)
		if err != nil {
			return nil, err
		}
		job.ID = p.ID
		job.Cases = p.Cases
		if job.Function == "" {
			job.Function = p.Function
		}
		if o.dialect == "" && p.Dialect != "" {
			job.Dialect, _ = normalize.ParseDialect(p.Dialect)
		}
	default:
		return nil, errors.New("one of -cases or -suite is required")
	}
	return []engine.Job{job}, nil
}

func loadBank(path string) (*bank.Bank, error) {
	b := bank.New()
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		err = b.LoadDir(path)
	} else {
		err = b.LoadFile(path)
	}
	return b, err
}

func findProblem(suite, id string) (*bank.Problem, error) {
	b, err := loadBank(suite)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if b.Count() != 1 {
			return nil, fmt.Errorf(
				"suite holds %d problems; choose one with -problem", b.Count())
		}
		return b.All()[0], nil
	}
	p, ok := b.Get(id)
	if !ok {
		return nil, fmt.Errorf("problem %q not found in %s", id, suite)
	}
	return p, nil
}

func verifyJobs(suite string) ([]engine.Job, error) {
	b, err := loadBank(suite)
	if err != nil {
		return nil, err
	}
	var jobs []engine.Job
	for _, p := range b.All() {
		if p.Solution == "" {
			continue
		}
		d, _ := normalize.ParseDialect(p.Dialect)
		jobs = append(jobs, engine.Job{
			ID:       p.ID,
			Source:   p.Solution,
			Dialect:  d,
			Cases:    p.Cases,
			Function: p.Function,
		})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no problem in %s has a solution", suite)
	}
	return jobs, nil
}

func dialectFromExt(path string) normalize.Dialect {
	switch filepath.Ext(path) {
	case ".js", ".mjs", ".cjs":
		return normalize.JavaScript
	case ".ts", ".mts", ".cts":
		return normalize.TypeScript
	}
	return ""
}

func validate(o *options, stdout, stderr io.Writer) int {
	if o.suite == "" {
		fmt.Fprintln(stderr, "-validate needs -suite")
		return exitUsage
	}
	errs := bank.ValidateFile(o.suite)
	for _, e := range errs {
		fmt.Fprintln(stdout, e.Error())
	}
	if len(errs) > 0 {
		return exitFailed
	}
	fmt.Fprintf(stdout, "%s: ok\n", o.suite)
	return exitPassed
}
