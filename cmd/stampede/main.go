// Command stampede runs a YAML-defined environment of load scenarios and
// prints an aggregated report.
//
// Usage:
//
//	stampede -config env.yaml [-output text|json] [-quiet] [-verbose]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stampede/internal/collector"
	"stampede/internal/config"
	"stampede/internal/progress"
	"stampede/session"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML environment file (required)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}
	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	env, err := file.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	env.Log = log

	total := 0
	for _, spec := range env.Scenarios {
		n := spec.Concurrency
		if n < 1 {
			n = 1
		}
		total += n
	}
	prog := progress.New(total, *quiet)
	env.OnSessionDone = func(*session.Session) { prog.SessionDone() }

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	prog.Printf("Stampede starting: environment %q, %d sessions", env.Name, total)
	prog.Start()
	results := env.Run(ctx)
	prog.Stop()

	summary := collector.Compute(results)
	thresholdResults := file.Thresholds.Check(summary)

	if *output == "json" {
		if err := collector.FormatJSON(os.Stdout, summary, thresholdResults); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
	} else {
		collector.FormatText(os.Stdout, summary, thresholdResults)
	}

	if thresholdResults != nil && !thresholdResults.Passed {
		if *output == "text" {
			fmt.Fprintln(os.Stderr, "\nThreshold check failed!")
		}
		os.Exit(ExitThresholdFailed)
	}
	os.Exit(ExitSuccess)
}
