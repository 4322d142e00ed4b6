package progress

import "math"

// Stat is a bytes/speed pair as reported by the engine.
// Speed is NaN until the engine has measured an interval.
type Stat struct {
	Bytes int64
	Speed float64
}

// Snapshot is one telemetry event: the overall pair plus one pair per chunk.
type Snapshot struct {
	Total   Stat
	Details []Stat
	ETA     float64 // seconds, NaN when unknown
}

// GroupState is a group's share of a snapshot.
type GroupState struct {
	Group
	Downloaded int64
	Speed      float64 // NaN when no chunk in the group has a measured speed
}

// State is everything the display needs for one frame.
type State struct {
	Groups []GroupState
	Total  Stat
	ETA    float64
}

// Aggregate folds a snapshot into per-group totals. It keeps no history:
// the same groups and snapshot always give the same State. The overall pair
// is the engine's own and is not rebuilt from the groups.
func Aggregate(groups []Group, snap Snapshot) State {
	out := State{
		Groups: make([]GroupState, len(groups)),
		Total:  snap.Total,
		ETA:    snap.ETA,
	}
	for i, g := range groups {
		gs := GroupState{Group: g}
		speed, measured := 0.0, false
		for k := g.Start; k < g.End && k < len(snap.Details); k++ {
			d := snap.Details[k]
			gs.Downloaded += d.Bytes
			if math.IsNaN(d.Speed) {
				continue
			}
			speed += d.Speed
			measured = true
		}
		if measured {
			gs.Speed = speed
		} else {
			gs.Speed = math.NaN()
		}
		out.Groups[i] = gs
	}
	return out
}
