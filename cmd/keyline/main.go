// Package main is the entry point for keyline, an interactive line
// reader. Each accepted line is written to standard output, so keyline
// can feed a pipeline while editing happens on the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dshills/keyline/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags()
	if !ok {
		return 2
	}

	// Edit on the controlling terminal so stdout stays free for lines.
	if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		defer tty.Close()
		opts.In, opts.Out = tty, tty
	} else {
		opts.In, opts.Out = os.Stdin, os.Stderr
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := application.Warnings(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, stop := application.HandleSignals(context.Background())
	defer stop()

	if err := application.Run(ctx, os.Stdout); err != nil {
		application.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() (app.Options, bool) {
	var opts app.Options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable debug logging and dispatch tracing")
	flag.BoolVar(&opts.Debug, "d", false, "Enable debug logging (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	flag.StringVar(&opts.Prompt, "prompt", "", "Left prompt, with % escapes")
	flag.StringVar(&opts.RPrompt, "rprompt", "", "Right prompt, with % escapes")
	flag.BoolVar(&opts.NoWatch, "no-watch", false, "Do not reload the configuration when it changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "keyline - interactive line editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keyline [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keyline                       Read lines with the default prompt\n")
		fmt.Fprintf(os.Stderr, "  keyline -prompt '%%~ %%# '       Show the directory in the prompt\n")
		fmt.Fprintf(os.Stderr, "  keyline | sh                  Feed edited lines to a shell\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("keyline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		return opts, false
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments %v\n", flag.Args())
		return opts, false
	}
	return opts, true
}
