package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// WriteSummaries renders summaries as an aligned table.
func WriteSummaries(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No metrics found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tMETRIC\tCOUNT\tMIN\tMAX\tMEAN\tSTD\tLAST\tBEST\tBEST STEP")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			s.Run, s.Metric, s.Count,
			num(s.Min), num(s.Max), num(s.Mean), num(s.Std), num(s.Last), num(s.Best),
			s.BestStep)
	}
	return tw.Flush()
}

// WriteSweeps renders one line per trial of each sweep with its sampled hyperparameters.
func WriteSweeps(w io.Writer, sweeps []SweepLog) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SWEEP\tTRIAL\tHYPERPARAMETERS\tRUNS\tMETRIC\tGOAL")
	for _, sl := range sweeps {
		d := sl.Descriptor
		if len(d.SampledHyperparameters) == 0 {
			_, _ = fmt.Fprintf(tw, "%s\t-\t-\t%d\t%s\t%s\n", sl.Name, len(sl.Runs), d.OptimizationMetric, d.OptimizationGoal)
			continue
		}
		for i, hp := range d.SampledHyperparameters {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%v\t%d\t%s\t%s\n", sl.Name, i+1, hp, len(sl.Runs), d.OptimizationMetric, d.OptimizationGoal)
		}
	}
	return tw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
