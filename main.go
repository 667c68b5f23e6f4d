// Package main is the entry point for the content coordination service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/app"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

var (
	// version can be set at build time via -ldflags
	version = "dev"
)

const oneShotTimeout = 10 * time.Minute

func main() {
	// A missing .env file is fine; explicit environment wins either way.
	_ = godotenv.Load()

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		runServe(args)
	case "scan":
		runScan(args)
	case "schedule":
		runSchedule(args)
	case "flush-dedup":
		runFlushDedup(args)
	case "version":
		fmt.Printf("content-coordinator %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		log.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: coordinator <command> [flags]

Commands:
  serve        Run the API server and background workers (default)
  scan         Run one coordinated scan and exit
  schedule     Generate or refill a daily posting schedule and exit
  flush-dedup  Clear the content deduplication cache and exit
  version      Print the version
  help         Show this help

Flags:
  -config string   Path to configuration file (default "config.yml")
`)
}

func newApp(fs *flag.FlagSet, args []string) *app.App {
	configPath := fs.String("config", "config.yml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	application, err := app.New(app.Options{
		ConfigPath: *configPath,
		Version:    version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	return application
}

func closeApp(application *app.App) {
	if err := application.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close application: %v\n", err)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	application := newApp(fs, args)
	defer closeApp(application)

	if err := application.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	application := newApp(fs, args)
	defer closeApp(application)

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	result, err := application.Scan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runSchedule(args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	date := fs.String("date", time.Now().Format(domain.DateFormat), "Schedule date (YYYY-MM-DD)")
	mode := fs.String("mode", string(domain.ScheduleModeRefill), "Schedule mode: full or refill-missing")
	twoDays := fs.Bool("two-days", false, "Refill today and tomorrow")
	application := newApp(fs, args)
	defer closeApp(application)

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	result, err := application.Schedule(ctx, *date, domain.ScheduleMode(*mode), *twoDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Schedule failed: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runFlushDedup(args []string) {
	fs := flag.NewFlagSet("flush-dedup", flag.ExitOnError)
	application := newApp(fs, args)
	defer closeApp(application)

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	if err := application.FlushDedup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Flush failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Deduplication cache flushed")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
