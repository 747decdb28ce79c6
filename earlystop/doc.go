// Package earlystop implements the cross-process early-stopping channel between a training
// subprocess and the sweep that launched it.
//
// The training side publishes the latest value of the optimization metric into a small JSON
// Signal File (a single overwritten slot). The sweep side watches the file's directory,
// feeds every new value into a patience Tracker and kills the supervised subprocess once the
// metric has failed to improve for the configured number of consecutive observations.
package earlystop
