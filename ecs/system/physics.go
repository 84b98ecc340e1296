package system

import (
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
)

// PhysicsSystem mirrors transforms into the world's spatial index.
type PhysicsSystem struct{}

func NewPhysicsSystem() *PhysicsSystem {
	return &PhysicsSystem{}
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		pw = ecs.NewPhysicsWorld()
		w.SetPhysicsWorld(pw)
	}

	live := make(map[ecs.Entity]struct{})
	ecs.ForEach2(w, component.TransformComponent.Kind(), component.BodyComponent.Kind(), func(e ecs.Entity, t *component.Transform, b *component.Body) {
		live[e] = struct{}{}
		pw.Track(e, t.Position(), b.Radius)
	})
	for _, e := range pw.TrackedEntities() {
		if _, ok := live[e]; !ok {
			pw.Untrack(e)
		}
	}

	pw.Step(w.Step())
}
