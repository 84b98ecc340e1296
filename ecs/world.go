package ecs

import "github.com/milk9111/sentinel/ecs/component"

// World owns entities, component stores and the event queue.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*sparseSet
	events   EventQueue

	physicsWorld *PhysicsWorld
	tick         uint64
	step         float64
}

// DefaultTickRate is the fixed update rate used when none is configured.
const DefaultTickRate = 60

// NewWorld creates an empty ECS world stepping at DefaultTickRate.
func NewWorld() *World {
	return &World{
		stores: make(map[component.ComponentID]*sparseSet),
		step:   1.0 / DefaultTickRate,
	}
}

func (w *World) store(id component.ComponentID, create bool) *sparseSet {
	s := w.stores[id]
	if s == nil && create {
		if w.stores == nil {
			w.stores = make(map[component.ComponentID]*sparseSet)
		}
		s = &sparseSet{}
		w.stores[id] = s
	}
	return s
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity frees the entity slot and drops all of its components.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.remove(e)
	}
	if w.physicsWorld != nil {
		w.physicsWorld.Untrack(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity in slot order.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	out := make([]Entity, 0, w.entities.count)
	w.entities.each(func(e Entity) { out = append(out, e) })
	return out
}

func CreateEntity(w *World) Entity         { return w.CreateEntity() }
func DestroyEntity(w *World, e Entity) bool { return w.DestroyEntity(e) }
func IsAlive(w *World, e Entity) bool       { return w.IsAlive(e) }
func Entities(w *World) []Entity           { return w.Entities() }

// SetTickRate sets the fixed number of updates per simulated second.
func (w *World) SetTickRate(rate int) {
	if w == nil || rate <= 0 {
		return
	}
	w.step = 1.0 / float64(rate)
}

// Step is the simulated time in seconds covered by one update.
func (w *World) Step() float64 {
	if w == nil {
		return 0
	}
	return w.step
}

// Tick is the number of completed updates.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Time is the simulated time in seconds at the start of the current tick.
func (w *World) Time() float64 {
	if w == nil {
		return 0
	}
	return float64(w.tick) * w.step
}

// Update runs every scheduled system once, then advances the tick counter
// and clears events nobody drained.
func (w *World) Update(s *Scheduler) {
	if w == nil {
		return
	}
	if s != nil {
		s.Update(w)
	}
	w.tick++
	w.events.flush()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// SetPhysicsWorld attaches a physics world to this ECS world.
func (w *World) SetPhysicsWorld(pw *PhysicsWorld) {
	if w == nil {
		return
	}
	w.physicsWorld = pw
}

// PhysicsWorld returns the attached physics world, if any.
func (w *World) PhysicsWorld() *PhysicsWorld {
	if w == nil {
		return nil
	}
	return w.physicsWorld
}
