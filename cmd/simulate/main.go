package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/gigrec/internal/simulate"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		baseURL     = flag.String("url", def.BaseURL, "Base URL of the service")
		projects    = flag.Int("projects", def.Projects, "Projects to register")
		freelancers = flag.Int("freelancers", def.Freelancers, "Freelancers to register")
		users       = flag.Int("users", def.Users, "Users generating views and applications")
		clients     = flag.Int("clients", def.Clients, "Clients generating hires")
		events      = flag.Int("events", def.Events, "View and application events")
		hires       = flag.Int("hires", def.Hires, "Hire events")
		duplicates  = flag.Int("duplicates", def.Duplicates, "Events resent to exercise deduplication")
		span        = flag.Duration("span", def.Span, "History the event timestamps cover")
		workers     = flag.Int("workers", def.Workers, "Concurrent requests")
		timeout     = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		settle      = flag.Duration("settle", def.Settle, "Maximum wait for the queue to drain")
		sample      = flag.Int("sample", def.Sample, "Users and clients to fetch recommendations for")
		seed        = flag.Uint64("seed", def.Seed, "Workload seed")
		output      = flag.String("output", "", "Write the workload as a YAML warm-up seed")
		logFile     = flag.String("log", "", "Log file (default: simulate_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every sampled recommendation")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := simulate.Config{
		BaseURL:     *baseURL,
		Projects:    *projects,
		Freelancers: *freelancers,
		Users:       *users,
		Clients:     *clients,
		Events:      *events,
		Hires:       *hires,
		Duplicates:  *duplicates,
		Span:        *span,
		Workers:     *workers,
		Timeout:     *timeout,
		Settle:      *settle,
		Sample:      *sample,
		Seed:        *seed,
		OutputFile:  *output,
		Verbose:     *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
