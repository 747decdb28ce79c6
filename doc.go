// Package mltrack tracks machine-learning experiments on a single machine.
//
// A training program records time-series metrics through a tracking.Logger, which buffers
// them in memory and persists them into one Log Store file per run. A hyperparameter sweep
// launches the training program once per sampled assignment and, when early stopping is
// configured, watches the optimization metric through a small shared Signal File and kills
// trials that stop improving.
//
// # Features
//
//   - Buffered metric logging: flushes when a buffer fills up and on a timer
//   - Crash-safe files: every write goes through write-then-rename
//   - Early stopping with a per-trial patience counter
//   - Sweeps over Choice and Uniform hyperparameters, reproducible with a seed
//   - Reports, summaries and charts of recorded runs
//
// # Quick Start
//
// Recording metrics from a training loop:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/YuminosukeSato/mltrack/tracking"
//	)
//
//	func main() {
//	    lg, err := tracking.New("runs")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer lg.Close()
//
//	    for epoch := 0; epoch < 100; epoch++ {
//	        loss := train(epoch)
//	        if err := lg.Record("loss", loss, epoch); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// Running a sweep described by experiment_cfg.json in the working directory:
//
//	mltrack --run_sweep --logdir runs
//
// The training script is started as
//
//	<interpreter> <main_script_name> --logdir <sweep dir> --<name> <value> ...
//
// and is expected to create its own tracking.Logger on the given log directory.
//
// # Packages
//
//   - tracking: MetricEvent, series codec, Log Store, Metric Buffer, Flush Timer, Logger
//   - earlystop: Signal File, patience Tracker, directory Watcher, Monitor
//   - sweep: samplers, sweep configuration, experiment_description.json, subprocesses
//   - report: decoding runs and sweeps, summaries, charts
//   - pkg/errors: error types and panic recovery
//   - pkg/log: structured logging over zerolog
//
// # Files
//
// A plain run writes runs/<Jan-02_15-04-05>/<Jan-02_15-04-05>.dat. A sweep writes
// runs/Experiment_<Jan-02_15-04-05>/ with experiment_description.json, one .dat per trial
// and, while early stopping is active, _temp/_temp.dat.
package mltrack
