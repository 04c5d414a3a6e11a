// Package pipeline runs the translate and illustrate stages for one finalized recording.
//
// Each stage catches its own failure, reports it as a single log line and
// abandons the run. No failure reaches the caller as anything other than
// bookkeeping.
package pipeline
