package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
	"github.com/YuminosukeSato/mltrack/report"
)

// PlotOptions are the options for charting one metric
type PlotOptions struct {
	IOStreams

	// LogDir is the directory holding experiments and sweeps
	LogDir string
	// Metric is the metric to draw
	Metric string
	// Sweep selects a sweep directory instead of the plain experiments
	Sweep string
	// File is the image to write; the extension picks the format
	File string
	// ByTime plots against elapsed seconds instead of steps
	ByTime bool
}

// NewPlotCommand creates a new command for charting a metric
func NewPlotCommand(o *PlotOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot METRIC",
		Short: "Chart a metric across runs",
		Long:  "Draw one line per run for a metric and save the chart as an image",
		Args:  cobra.ExactArgs(1),

		PreRun: func(cmd *cobra.Command, args []string) {
			SetStreams(&o.IOStreams, cmd)
			o.Metric = args[0]
		},
		RunE: withContextE(o.run),
	}

	cmd.Flags().StringVar(&o.Sweep, "sweep", o.Sweep, "Plot the trials of this sweep `directory` name.")
	cmd.Flags().StringVarP(&o.File, "file", "f", o.File, "Output image `file` (png, svg, pdf). Defaults to METRIC.png.")
	cmd.Flags().BoolVar(&o.ByTime, "time", o.ByTime, "Use elapsed seconds for the x axis.")
	return cmd
}

func (o *PlotOptions) run(_ context.Context) error {
	var runs []report.Run
	title := o.Metric
	if o.Sweep != "" {
		sl, err := report.LoadSweep(filepath.Join(o.LogDir, o.Sweep))
		if err != nil {
			return err
		}
		runs = sl.Runs
		title = o.Metric + " (" + sl.Name + ")"
	} else {
		idx, err := report.Discover(o.LogDir)
		if err != nil {
			return err
		}
		if runs, err = report.LoadExperiments(o.LogDir, idx.Experiments); err != nil {
			return err
		}
	}
	if len(runs) == 0 {
		return errors.Newf("no runs found in %s", o.LogDir)
	}

	file := o.File
	if file == "" {
		file = o.Metric + ".png"
	}
	opts := []report.PlotOption{report.WithTitle(title)}
	if o.ByTime {
		opts = append(opts, report.WithTimeAxis())
	}
	if err := report.PlotMetric(runs, o.Metric, file, opts...); err != nil {
		return err
	}
	_, err := o.Out.Write([]byte("Wrote " + file + "\n"))
	return err
}
