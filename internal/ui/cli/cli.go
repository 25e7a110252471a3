package cli

import (
	"flag"
	"io"
	"strings"
	"time"
)

const defaultConfigPath = "./umlc.toml"

type cliOptions struct {
	configPath   string
	watch        bool
	ui           bool
	formats      string
	outDir       string
	history      bool
	trend        string
	trendWindow  time.Duration
	trendJSON    string
	stdinFormat  string
	reloadConfig bool
	verbose      bool
	version      bool
	args         []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("umlc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and recompile sources as they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI (implies --watch)")
	fs.StringVar(&opts.formats, "format", "", "Comma-separated output formats, overriding output.formats")
	fs.StringVar(&opts.outDir, "out", "", "Output directory, overriding output.dir")
	fs.BoolVar(&opts.history, "history", false, "Record compile runs in the history store")
	fs.StringVar(&opts.trend, "trend", "", "Print the trend report for a source file and exit (requires history)")
	fs.DurationVar(&opts.trendWindow, "trend-window", 24*time.Hour, "Moving-window duration for --trend")
	fs.StringVar(&opts.trendJSON, "trend-json", "", "Write the --trend report as JSON to this path")
	fs.StringVar(&opts.stdinFormat, "stdin-format", "mermaid", "Format printed when compiling standard input (positional arg \"-\")")
	fs.BoolVar(&opts.reloadConfig, "reload-config", false, "Reload the config file on change in watch mode")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	if opts.ui {
		opts.watch = true
	}
	return opts, nil
}

func (o cliOptions) stdinMode() bool {
	return len(o.args) == 1 && o.args[0] == "-"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
