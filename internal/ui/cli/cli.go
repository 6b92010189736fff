package cli

import (
	"flag"
	"fmt"
	"io"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath string
	watch      bool
	ui         bool
	verbose    bool
	version    bool
	noCache    bool
	args       []string
}

func parseOptions(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("cz", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "usage: cz [flags] <file.cz|dir>...")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./cz.toml when present)")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild inputs when they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (requires -watch)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Ignore the build cache for this run")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	if opts.ui && !opts.watch {
		return fmt.Errorf("-ui requires -watch")
	}
	if len(opts.args) == 0 && !opts.watch {
		return fmt.Errorf("no input files")
	}
	return nil
}
