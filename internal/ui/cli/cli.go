package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	domainerrors "ratchet/internal/core/errors"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"
const defaultConfigPath = "./data/config/ratchet.toml"

type cliOptions struct {
	configPath string
	verbose    bool
	color      string
	format     string
	exitZero   bool
	table      bool
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// usageError marks failures caused by the invocation or the configuration rather
// than by the analyzer results.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func Run(args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ratchet: detect working directory: %v\n", err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, args, cwd, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(ctx context.Context, args []string, cwd string, s streams) int {
	root := newRootCommand(cwd, s)
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	// The change log already explains a regression.
	if !domainerrors.IsCode(err, domainerrors.CodeRegressionDetected) {
		fmt.Fprintf(s.err, "ratchet: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the process status: 2 for usage and configuration
// problems, 1 for regressions and runtime failures.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) || domainerrors.IsCode(err, domainerrors.CodeValidationError) {
		return 2
	}
	return 1
}

func newRootCommand(cwd string, s streams) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "ratchet [report]",
		Short: "Fail CI when analyzer issue counts go up, tighten the baseline when they go down",
		Long: `ratchet compares an analyzer report (ESLint JSON or SARIF) against a checked-in
baseline of per-file, per-rule issue counts. Improvements are written back to the
baseline; any increase fails the run and leaves the latest counts in a scratch file
for manual promotion.

Running ratchet without a subcommand is the same as "ratchet check".`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckCommand(cmd, opts, cwd, s, args)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default: "+defaultConfigPath+" or ./ratchet.toml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.color, "color", "", "Color mode: auto, always or never")
	flags.StringVar(&opts.format, "format", "", "Output format: text, json or yaml")
	flags.BoolVar(&opts.exitZero, "exit-zero", false, "Exit 0 even when regressions are detected")
	flags.BoolVar(&opts.table, "table", true, "Print the raw results table when issues were observed")

	root.AddCommand(
		newCheckCommand(opts, cwd, s),
		newPromoteCommand(opts, cwd, s),
		newStatusCommand(opts, cwd, s),
		newDiffCommand(opts, cwd, s),
		newHistoryCommand(opts, cwd, s),
		newWatchCommand(opts, cwd, s),
		newVersionCommand(s),
	)
	return root
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
