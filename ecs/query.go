package ecs

import "github.com/milk9111/sentinel/ecs/component"

// Query returns live entities that carry every given kind. The smallest
// store drives the iteration so its order is the result order. Callbacks may
// mutate the world while walking the returned slice.
func (w *World) Query(kinds ...component.Key) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	sets := make([]*sparseSet, 0, len(kinds))
	for _, k := range kinds {
		s := w.store(k.ID(), false)
		if s.len() == 0 {
			return nil
		}
		sets = append(sets, s)
	}
	driver := 0
	for i, s := range sets {
		if s.len() < sets[driver].len() {
			driver = i
		}
	}

	out := make([]Entity, 0, sets[driver].len())
	for _, e := range sets[driver].denseEntities {
		if !w.IsAlive(e) {
			continue
		}
		matched := true
		for i, s := range sets {
			if i != driver && !s.has(e) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first live entity carrying kind.
func (w *World) First(kind component.Key) (Entity, bool) {
	ents := w.Query(kind)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}
