package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mltrack/earlystop"
	"github.com/YuminosukeSato/mltrack/report"
)

// ReportOptions are the options for summarizing a log directory
type ReportOptions struct {
	IOStreams

	// LogDir is the directory holding experiments and sweeps
	LogDir string
	// Metric restricts the summaries to one metric
	Metric string
	// Goal decides whether the best value is the maximum or the minimum
	Goal string
	// Output is the output format
	Output string
}

// reportData is what the json and yaml formats print.
type reportData struct {
	Experiments []report.Summary  `json:"experiments" yaml:"experiments"`
	Sweeps      []report.SweepLog `json:"sweeps" yaml:"sweeps"`
	AllMetrics  []string          `json:"all_metrics" yaml:"all_metrics"`
}

// NewReportCommand creates a new command for summarizing recorded runs
func NewReportCommand(o *ReportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded runs",
		Long:  "Summarize the metrics of every experiment and sweep found in the log directory",

		PreRunE: func(cmd *cobra.Command, args []string) error {
			SetStreams(&o.IOStreams, cmd)
			return checkFormat(&o.Output)
		},
		RunE: withContextE(o.run),
	}

	cmd.Flags().StringVar(&o.Metric, "metric", o.Metric, "Only summarize this `metric`.")
	cmd.Flags().StringVar(&o.Goal, "goal", string(earlystop.GoalMax), "Whether the best value is the max or the min.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", formatTable, "Output format. One of: table|json|yaml")
	return cmd
}

func (o *ReportOptions) run(ctx context.Context) error {
	goal, err := earlystop.ParseGoal(o.Goal)
	if err != nil {
		return err
	}

	idx, err := report.Discover(o.LogDir)
	if err != nil {
		return err
	}
	runs, err := report.LoadExperiments(o.LogDir, idx.Experiments)
	if err != nil {
		return err
	}

	data := reportData{Experiments: report.SummarizeRuns(runs, o.Metric, goal)}
	all := runs
	for _, name := range idx.Sweeps {
		if err := ctx.Err(); err != nil {
			return err
		}
		sl, err := report.LoadSweep(filepath.Join(o.LogDir, name))
		if err != nil {
			return err
		}
		data.Sweeps = append(data.Sweeps, sl)
		all = append(all, sl.Runs...)
	}
	data.AllMetrics = report.AllMetrics(all)

	if o.Output != formatTable {
		return printObj(o.Out, o.Output, data)
	}

	_, _ = fmt.Fprintf(o.Out, "Experiments (%d)\n", len(runs))
	if err := report.WriteSummaries(o.Out, data.Experiments); err != nil {
		return err
	}
	if len(data.Sweeps) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(o.Out, "\nSweeps (%d)\n", len(data.Sweeps))
	if err := report.WriteSweeps(o.Out, data.Sweeps); err != nil {
		return err
	}
	for _, sl := range data.Sweeps {
		_, _ = fmt.Fprintf(o.Out, "\n%s\n", sl.Name)
		if err := report.WriteSummaries(o.Out, report.SummarizeRuns(sl.Runs, o.Metric, goal)); err != nil {
			return err
		}
	}
	return nil
}
