// Package cli is the mltrack command tree.
package cli

import (
	"context"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/pkg/log"
)

// DefaultLogDir is where runs and sweeps are looked up when --logdir is not given.
const DefaultLogDir = "runs"

// RootOptions are the global options
type RootOptions struct {
	IOStreams

	// LogDir is the directory holding experiments and sweeps
	LogDir string
	// LogLevel is the minimum level of the structured log
	LogLevel string
	// Pretty switches the structured log to a human-readable console format
	Pretty bool
	// RunSweep starts a sweep instead of printing the report
	RunSweep bool
	// ConfigPath is the sweep configuration used with RunSweep
	ConfigPath string
}

// NewCommand creates the top-level mltrack command.
//
// Invoked without a subcommand it keeps the original entry point: with --run_sweep it runs a
// sweep, otherwise it prints the report of --logdir.
func NewCommand() *cobra.Command {
	o := &RootOptions{LogDir: DefaultLogDir, LogLevel: "info"}

	sweepOpts := &SweepOptions{}
	reportOpts := &ReportOptions{Goal: "max", Output: formatTable}
	plotOpts := &PlotOptions{}

	rootCmd := &cobra.Command{
		Use:           "mltrack",
		Short:         "Track machine-learning experiments",
		Long:          "Record training metrics, run hyperparameter sweeps with early stopping and report on the results",
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			SetStreams(&o.IOStreams, cmd)
			if err := log.Setup(o.LogLevel, o.ErrOut, o.Pretty); err != nil {
				return err
			}
			sweepOpts.LogDir = o.LogDir
			reportOpts.LogDir = o.LogDir
			plotOpts.LogDir = o.LogDir
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.RunSweep {
				SetStreams(&sweepOpts.IOStreams, cmd)
				sweepOpts.ConfigPath = o.ConfigPath
				return sweepOpts.run(cmd.Context())
			}
			SetStreams(&reportOpts.IOStreams, cmd)
			return reportOpts.run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&o.LogDir, "logdir", o.LogDir, "Log `directory` of experiments and sweeps.")
	rootCmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", o.LogLevel, "Minimum log level: debug|info|warn|error.")
	rootCmd.PersistentFlags().BoolVar(&o.Pretty, "pretty", o.Pretty, "Human-readable log output.")
	rootCmd.Flags().BoolVar(&o.RunSweep, "run_sweep", o.RunSweep, "Start the hyperparameter sweep instead of printing the report.")
	rootCmd.Flags().StringVar(&o.ConfigPath, "config", o.ConfigPath, "Sweep configuration `file` used with --run_sweep.")

	rootCmd.AddCommand(NewSweepCommand(sweepOpts))
	rootCmd.AddCommand(NewReportCommand(reportOpts))
	rootCmd.AddCommand(NewPlotCommand(plotOpts))
	return rootCmd
}

// Execute runs the command tree and logs a failure with its error code. It returns the
// process exit status.
func Execute(ctx context.Context, args []string) int {
	cmd := NewCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	code, suggestion := classify(err)
	fields := []any{log.ErrorCodeKey, code}
	if suggestion != "" {
		fields = append(fields, log.SuggestionKey, suggestion)
	}
	log.Named("cli").Error("Command failed", append([]any{err}, fields...)...)
	return 1
}

// classify maps an error to its error code and, where one helps, a hint for the user.
func classify(err error) (string, string) {
	switch {
	case errors.IsConfiguration(err):
		if errors.Is(err, fs.ErrNotExist) {
			return log.ErrorConfiguration, "create experiment_cfg.json or pass --config"
		}
		return log.ErrorConfiguration, ""
	case errors.IsInvalidArgument(err):
		return log.ErrorInvalidArgument, ""
	case errors.IsSubprocessFailure(err):
		return log.ErrorSubprocess, ""
	case errors.IsIOFailure(err):
		return log.ErrorIO, "check that --logdir exists and is writable"
	default:
		return "UNKNOWN", ""
	}
}
