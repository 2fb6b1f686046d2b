package cli

import "flag"

const defaultConfigPath = "./loadscript.toml"

type cliOptions struct {
	configPath string
	once       bool
	watch      bool
	ui         bool
	outDir     string
	recent     int
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("loadscript", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Convert every matched document once and exit (default unless -watch or -ui)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-convert documents as they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.StringVar(&opts.outDir, "out", "", "Override the report output directory")
	fs.IntVar(&opts.recent, "recent", 0, "Print the N most recent recorded runs and exit (requires history)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
