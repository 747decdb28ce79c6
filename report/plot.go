package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

type plotConfig struct {
	title  string
	byTime bool
	width  vg.Length
	height vg.Length
}

// PlotOption configures PlotMetric.
type PlotOption func(*plotConfig)

// WithTitle sets the chart title. The default is the metric name.
func WithTitle(title string) PlotOption {
	return func(c *plotConfig) {
		c.title = title
	}
}

// WithTimeAxis plots against seconds since the run started instead of steps.
func WithTimeAxis() PlotOption {
	return func(c *plotConfig) {
		c.byTime = true
	}
}

// WithSize sets the canvas size.
func WithSize(width, height vg.Length) PlotOption {
	return func(c *plotConfig) {
		c.width = width
		c.height = height
	}
}

// PlotMetric draws metric for every run that recorded it, one line per run, and saves the
// chart to path. The image format follows the file extension (png, svg, pdf, ...).
func PlotMetric(runs []Run, metric, path string, opts ...PlotOption) error {
	cfg := plotConfig{title: metric, width: 8 * vg.Inch, height: 5 * vg.Inch}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = "step"
	if cfg.byTime {
		p.X.Label.Text = "time (s)"
	}
	p.Y.Label.Text = metric
	p.Add(plotter.NewGrid())

	lines := 0
	for _, r := range runs {
		records, ok := r.Metrics[metric]
		if !ok || len(records) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(records))
		for i, rec := range records {
			xys[i].X = float64(rec.Step)
			if cfg.byTime {
				xys[i].X = rec.Time
			}
			xys[i].Y = rec.Value
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "plot %s of %s", metric, r.Name)
		}
		line.Color = plotutil.Color(lines)
		line.Dashes = plotutil.Dashes(lines / len(plotutil.DefaultColors))
		p.Add(line)
		p.Legend.Add(r.Name, line)
		lines++
	}
	if lines == 0 {
		return errors.NewInvalidArgumentError("PlotMetric", "metric", metric, fmt.Sprintf("not recorded by any of %d runs", len(runs)))
	}

	if err := p.Save(cfg.width, cfg.height, path); err != nil {
		return errors.NewIOFailure("save", path, err)
	}
	return nil
}
