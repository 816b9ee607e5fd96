// Package cli parses the command line into the app's configuration. It owns
// the subcommand surface and the usage text; everything behind it works with
// plain option structs.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/sweepx/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is the parsed command line: the ambient config plus exactly one
// populated subcommand.
type Invocation struct {
	App app.Config
	Run *app.RunOptions
	Sum *app.SumOptions
}

const usage = `sweepx - launch hyperparameter sweeps and summarize their results.

Usage:
  sweepx run [options] <experiment.hcl>
  sweepx sum [options] <experiment-name>...

Run 'sweepx <command> -h' for command options.
`

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating a clean early exit (help), or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	if len(args) == 0 {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}

	switch args[0] {
	case "run":
		return parseRun(args[1:], output)
	case "sum":
		return parseSum(args[1:], output)
	case "-h", "--help", "help":
		fmt.Fprint(output, usage)
		return nil, true, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", args[0])}
	}
}

func parseRun(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("sweepx run", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, "Usage:\n  sweepx run [options] <experiment.hcl>\n\nOptions:\n")
		flagSet.PrintDefaults()
	}

	tag := flagSet.String("tag", "", "Tag label prefixed to generated run names.")
	dryRun := flagSet.Bool("dry-run", false, "Print the composed commands without executing anything.")
	dryRunShort := flagSet.Bool("n", false, "Shorthand for -dry-run.")
	interactive := flagSet.Bool("interactive", false, "Execute runs locally instead of submitting to a farm.")
	interactiveShort := flagSet.Bool("i", false, "Shorthand for -interactive.")
	farm := flagSet.String("farm", "", "Select a farm_config by name for batch submission.")
	configPath := flagSet.String("config", "", "Path to an explicit global config file.")
	plainNames := flagSet.Bool("plain-names", false, "Name run directories by tag only, without petname or timestamp.")
	logLevel, logFormat := logFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		return parseError(err)
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "run: expected exactly one experiment file"}
	}

	appCfg, err := ambient(*logLevel, *logFormat)
	if err != nil {
		return nil, false, err
	}

	return &Invocation{
		App: appCfg,
		Run: &app.RunOptions{
			ExpPath:     flagSet.Arg(0),
			ConfigPath:  *configPath,
			Farm:        *farm,
			Tag:         *tag,
			DryRun:      *dryRun || *dryRunShort,
			Interactive: *interactive || *interactiveShort,
			PlainNames:  *plainNames,
		},
	}, false, nil
}

func parseSum(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("sweepx sum", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, "Usage:\n  sweepx sum [options] <experiment-name>...\n\nOptions:\n")
		flagSet.PrintDefaults()
	}

	sortWith := flagSet.String("sortwith", "", "Sort rows by this column; also adds a <key>-best metric column.")
	asc := flagSet.Bool("asc", false, "Sort ascending instead of descending.")
	ignore := flagSet.String("ignore", "", "Comma-separated hyperparameter columns to drop.")
	logRoot := flagSet.String("logroot", "", "Override the configured log root.")
	configPath := flagSet.String("config", "", "Path to an explicit global config file.")
	csvPath := flagSet.String("csv", "", "Also dump the table as CSV to this path.")
	logLevel, logFormat := logFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		return parseError(err)
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "sum: expected at least one experiment name"}
	}

	appCfg, err := ambient(*logLevel, *logFormat)
	if err != nil {
		return nil, false, err
	}

	var ignoreList []string
	if *ignore != "" {
		ignoreList = strings.Split(*ignore, ",")
	}

	return &Invocation{
		App: appCfg,
		Sum: &app.SumOptions{
			Experiments: flagSet.Args(),
			ConfigPath:  *configPath,
			LogRoot:     *logRoot,
			SortKey:     *sortWith,
			Ascending:   *asc,
			Ignore:      ignoreList,
			CSVPath:     *csvPath,
		},
	}, false, nil
}

func logFlags(flagSet *flag.FlagSet) (level, format *string) {
	level = flagSet.String("log-level", "info", "Logging level: 'debug', 'info', 'warn', or 'error'.")
	format = flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")
	return level, format
}

func ambient(level, format string) (app.Config, error) {
	level = strings.ToLower(level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return app.Config{}, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return app.Config{}, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	return app.Config{LogLevel: level, LogFormat: format}, nil
}

func parseError(err error) (*Invocation, bool, error) {
	if err == flag.ErrHelp {
		return nil, true, nil
	}
	return nil, false, &ExitError{Code: 2, Message: err.Error()}
}
