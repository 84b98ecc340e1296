package ecs

// sparseSet is a cache-friendly storage for one component kind keyed by
// entity slot id. Values are stored as `any` so a single World can hold
// every kind in one map.
type sparseSet struct {
	denseEntities []Entity
	denseValues   []any
	sparse        []int
}

func (s *sparseSet) index(id entityID) (int, bool) {
	if s == nil || id == 0 || int(id) > len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[id-1]
	if idx < 0 || idx >= len(s.denseEntities) || s.denseEntities[idx].id() != id {
		return 0, false
	}
	return idx, true
}

func (s *sparseSet) has(e Entity) bool {
	idx, ok := s.index(e.id())
	return ok && s.denseEntities[idx] == e
}

func (s *sparseSet) get(e Entity) (any, bool) {
	idx, ok := s.index(e.id())
	if !ok || s.denseEntities[idx] != e {
		return nil, false
	}
	return s.denseValues[idx], true
}

// set inserts or replaces the value for e. A stale generation occupying the
// same slot is overwritten.
func (s *sparseSet) set(e Entity, v any) {
	id := e.id()
	for int(id) > len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if idx, ok := s.index(id); ok {
		s.denseEntities[idx] = e
		s.denseValues[idx] = v
		return
	}
	s.denseEntities = append(s.denseEntities, e)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseEntities) - 1
}

func (s *sparseSet) remove(e Entity) bool {
	idx, ok := s.index(e.id())
	if !ok || s.denseEntities[idx] != e {
		return false
	}
	last := len(s.denseEntities) - 1
	moved := s.denseEntities[last]

	s.denseEntities[idx] = moved
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[moved.id()-1] = idx

	s.denseEntities[last] = 0
	s.denseValues[last] = nil
	s.denseEntities = s.denseEntities[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[e.id()-1] = -1
	return true
}

func (s *sparseSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}
