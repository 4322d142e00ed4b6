package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/tanq16/dl/internal/progress"
)

// tracker holds live per-chunk byte counters written by the workers and
// turns them into snapshots for the reporter goroutine.
type tracker struct {
	size      int64
	bytes     []atomic.Int64
	completed []atomic.Bool

	// reporter-only state
	lastBytes  []int64
	lastTotal  int64
	lastTime   time.Time
	measured   bool
	speeds     []ewma.SimpleEWMA
	totalSpeed ewma.SimpleEWMA
}

func newTracker(size int64, chunks int) *tracker {
	return &tracker{
		size:      size,
		bytes:     make([]atomic.Int64, chunks),
		completed: make([]atomic.Bool, chunks),
		lastBytes: make([]int64, chunks),
		speeds:    make([]ewma.SimpleEWMA, chunks),
	}
}

func (t *tracker) add(chunk int, n int64) {
	t.bytes[chunk].Add(n)
}

func (t *tracker) set(chunk int, n int64) {
	t.bytes[chunk].Store(n)
}

func (t *tracker) complete(chunk int) {
	t.completed[chunk].Store(true)
}

// snapshot measures the interval since the previous call. The first call
// only sets the baseline and reports NaN speeds.
func (t *tracker) snapshot(now time.Time) progress.Snapshot {
	snap := progress.Snapshot{
		Details: make([]progress.Stat, len(t.bytes)),
		ETA:     math.NaN(),
	}
	elapsed := now.Sub(t.lastTime).Seconds()
	var total int64
	for i := range t.bytes {
		current := t.bytes[i].Load()
		total += current
		stat := progress.Stat{Bytes: current, Speed: math.NaN()}
		if t.measured {
			if elapsed > 0 {
				t.speeds[i].Add(float64(current-t.lastBytes[i]) / elapsed)
			}
			stat.Speed = t.speeds[i].Value()
			if t.completed[i].Load() {
				stat.Speed = 0
			}
		}
		t.lastBytes[i] = current
		snap.Details[i] = stat
	}

	snap.Total = progress.Stat{Bytes: total, Speed: math.NaN()}
	if t.measured {
		if elapsed > 0 {
			t.totalSpeed.Add(float64(total-t.lastTotal) / elapsed)
		}
		snap.Total.Speed = t.totalSpeed.Value()
		if t.size > 0 && snap.Total.Speed > 0 {
			snap.ETA = float64(t.size-total) / snap.Total.Speed
		}
	}
	t.measured = true
	t.lastTotal = total
	t.lastTime = now
	return snap
}
