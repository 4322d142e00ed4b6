// Package progress turns per-chunk download telemetry into a bounded set of
// display groups.
//
// A download can be split into any number of chunks, but the terminal only
// shows MaxGroups bars. Plan partitions the chunks once, right after the
// engine reports its metadata, and Aggregate folds every later telemetry
// snapshot into per-group totals using that fixed partition.
//
//	groups := progress.Plan(meta.Chunks)
//	for ev := range events {
//	    agg := progress.Aggregate(groups, snapshot)
//	    bars.Update(agg)
//	}
package progress
