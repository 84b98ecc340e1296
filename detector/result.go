package detector

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/faction"
)

// Set selects one partition of a Result.
type Set int

const (
	Allies Set = iota
	Enemies
	Neutrals
)

func (s Set) String() string {
	switch s {
	case Allies:
		return "allies"
	case Enemies:
		return "enemies"
	case Neutrals:
		return "neutrals"
	}
	return "unknown"
}

// ParseSet is the inverse of Set.String.
func ParseSet(name string) (Set, bool) {
	switch name {
	case "allies":
		return Allies, true
	case "enemies":
		return Enemies, true
	case "neutrals":
		return Neutrals, true
	}
	return 0, false
}

// Detected is one tagged entity seen by a scan.
type Detected struct {
	Entity  ecs.Entity
	Faction faction.ID
	// Position at scan time.
	Position cp.Vector
}

// Result is one scan's partition. A published Result is never mutated.
type Result struct {
	Allies   []Detected
	Enemies  []Detected
	Neutrals []Detected
}

// In returns the slice for s.
func (r *Result) In(s Set) []Detected {
	if r == nil {
		return nil
	}
	switch s {
	case Allies:
		return r.Allies
	case Enemies:
		return r.Enemies
	case Neutrals:
		return r.Neutrals
	}
	return nil
}

// Len is the number of entities across all sets.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Allies) + len(r.Enemies) + len(r.Neutrals)
}

func (r *Result) add(s Set, d Detected) {
	switch s {
	case Allies:
		r.Allies = append(r.Allies, d)
	case Enemies:
		r.Enemies = append(r.Enemies, d)
	default:
		r.Neutrals = append(r.Neutrals, d)
	}
}

// Entities flattens one set into entity handles.
func Entities(ds []Detected) []ecs.Entity {
	if len(ds) == 0 {
		return nil
	}
	out := make([]ecs.Entity, len(ds))
	for i, d := range ds {
		out[i] = d.Entity
	}
	return out
}
