package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mltrack/pkg/log"
	"github.com/YuminosukeSato/mltrack/sweep"
)

// SweepOptions are the options for running a hyperparameter sweep
type SweepOptions struct {
	IOStreams

	// LogDir is the directory the sweep directory is created in
	LogDir string
	// ConfigPath is the sweep configuration file
	ConfigPath string
}

// NewSweepCommand creates a new command for running a hyperparameter sweep
func NewSweepCommand(o *SweepOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a hyperparameter sweep",
		Long: "Run a hyperparameter sweep described by a sweep configuration file, launching one " +
			"training subprocess per trial and stopping trials early when configured",

		PreRun: func(cmd *cobra.Command, args []string) {
			SetStreams(&o.IOStreams, cmd)
		},
		RunE: withContextE(o.run),
	}

	cmd.Flags().StringVar(&o.ConfigPath, "config", o.ConfigPath, "Sweep configuration `file`.")
	return cmd
}

func (o *SweepOptions) run(ctx context.Context) error {
	path := o.ConfigPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = filepath.Join(wd, sweep.ConfigFileName)
	}

	cfg, err := sweep.LoadConfig(path)
	if err != nil {
		return err
	}

	s, err := sweep.New(cfg, o.LogDir, sweep.WithOutput(o.Out, o.ErrOut))
	if err != nil {
		return err
	}
	defer s.Close()

	log.Named("cli").Info("Sweep directory created", log.SweepDirKey, s.Dir())
	return s.Run(ctx)
}
