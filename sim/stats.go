package sim

import (
	"sort"

	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
)

// Stats accumulates event counts per squad.
type Stats struct {
	Scans         int
	Engagements   int
	TargetChanges int

	squadScans   map[string]int
	squadEngaged map[string]int
}

func newStats() *Stats {
	return &Stats{
		squadScans:   map[string]int{},
		squadEngaged: map[string]int{},
	}
}

func (st *Stats) collect(w *ecs.World) {
	for _, evt := range w.Events().Drain() {
		switch data := evt.Data.(type) {
		case ecs.ScanEvent:
			st.Scans++
			st.squadScans[squadOf(w, data.Entity)]++
		case ecs.EngageEvent:
			st.Engagements++
			st.squadEngaged[squadOf(w, data.Entity)]++
		case ecs.TargetEvent:
			st.TargetChanges++
		}
	}
}

func squadOf(w *ecs.World, e ecs.Entity) string {
	if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok {
		return n.Squad
	}
	return ""
}

// SquadSummary is a per-squad line of Stats.
type SquadSummary struct {
	Squad   string
	Scans   int
	Engaged int
}

// Squads returns per-squad counters sorted by squad name.
func (st *Stats) Squads() []SquadSummary {
	names := map[string]struct{}{}
	for n := range st.squadScans {
		names[n] = struct{}{}
	}
	for n := range st.squadEngaged {
		names[n] = struct{}{}
	}
	out := make([]SquadSummary, 0, len(names))
	for n := range names {
		out = append(out, SquadSummary{Squad: n, Scans: st.squadScans[n], Engaged: st.squadEngaged[n]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Squad < out[j].Squad })
	return out
}
