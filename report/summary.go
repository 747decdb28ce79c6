package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mltrack/earlystop"
)

// Summary describes one metric series of one run.
type Summary struct {
	Run      string  `json:"run" yaml:"run"`
	Metric   string  `json:"metric" yaml:"metric"`
	Count    int     `json:"count" yaml:"count"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Std      float64 `json:"std" yaml:"std"`
	Last     float64 `json:"last" yaml:"last"`
	Best     float64 `json:"best" yaml:"best"`
	BestStep int64   `json:"best_step" yaml:"best_step"`
}

// Summarize computes the statistics of a series. Best is the maximum for GoalMax and the
// minimum for GoalMin; the first occurrence wins ties. Std is the sample standard deviation,
// zero for fewer than two records.
func Summarize(records []Record, goal earlystop.Goal) Summary {
	var s Summary
	s.Count = len(records)
	if s.Count == 0 {
		return s
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Value
	}

	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	if s.Count < 2 || math.IsNaN(s.Std) {
		s.Std = 0
	}
	s.Last = values[len(values)-1]

	best := floats.MaxIdx(values)
	if goal == earlystop.GoalMin {
		best = floats.MinIdx(values)
	}
	s.Best = values[best]
	s.BestStep = records[best].Step
	return s
}

// SummarizeRuns summarizes every metric of every run, ordered by run then metric. If
// metric is not empty only that metric is included.
func SummarizeRuns(runs []Run, metric string, goal earlystop.Goal) []Summary {
	var out []Summary
	for _, r := range runs {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			if metric == "" || name == metric {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			s := Summarize(r.Metrics[name], goal)
			s.Run = r.Name
			s.Metric = name
			out = append(out, s)
		}
	}
	return out
}
