package ecs

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/jakecoffman/cp"
)

const collisionTypeTracked cp.CollisionType = 1

// Hit is one entity returned by an overlap query.
type Hit struct {
	Entity   Entity
	Position cp.Vector
}

// PhysicsWorld owns the Chipmunk space used as the world's spatial index.
// Tracked entities get a kinematic body with a circle sensor so they are
// indexed without being pushed around by the solver.
type PhysicsWorld struct {
	space *cp.Space

	bodies        map[Entity]*cp.Body
	shapeToEntity map[*cp.Shape]Entity
}

// NewPhysicsWorld creates an empty zero-gravity space.
func NewPhysicsWorld() *PhysicsWorld {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	return &PhysicsWorld{
		space:         space,
		bodies:        make(map[Entity]*cp.Body),
		shapeToEntity: make(map[*cp.Shape]Entity),
	}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// Tracked reports whether e has a body in the space.
func (pw *PhysicsWorld) Tracked(e Entity) bool {
	if pw == nil {
		return false
	}
	_, ok := pw.bodies[e]
	return ok
}

// Track adds e to the space at pos, or moves it there when already tracked.
func (pw *PhysicsWorld) Track(e Entity, pos cp.Vector, radius float64) {
	if pw == nil || pw.space == nil || !e.Valid() {
		return
	}
	if body, ok := pw.bodies[e]; ok {
		pw.move(body, pos)
		return
	}
	if radius <= 0 {
		radius = 0.5
	}

	body := cp.NewKinematicBody()
	body.SetPosition(pos)
	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypeTracked)

	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.bodies[e] = body
	pw.shapeToEntity[shape] = e
	slog.Debug("physics: tracking entity", "entity", e, "x", pos.X, "y", pos.Y, "radius", radius)
}

// Move updates the position of a tracked entity.
func (pw *PhysicsWorld) Move(e Entity, pos cp.Vector) {
	if pw == nil {
		return
	}
	if body, ok := pw.bodies[e]; ok {
		pw.move(body, pos)
	}
}

func (pw *PhysicsWorld) move(body *cp.Body, pos cp.Vector) {
	if body.Position() == pos {
		return
	}
	body.SetPosition(pos)
	// re-adding a shape recomputes its bounding box in the spatial index
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) {
		shapes = append(shapes, s)
	})
	for _, s := range shapes {
		pw.space.RemoveShape(s)
		pw.space.AddShape(s)
	}
}

// Untrack removes e and its shapes from the space.
func (pw *PhysicsWorld) Untrack(e Entity) {
	if pw == nil || pw.space == nil {
		return
	}
	body, ok := pw.bodies[e]
	if !ok {
		return
	}
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) {
		shapes = append(shapes, s)
	})
	for _, s := range shapes {
		pw.space.RemoveShape(s)
		delete(pw.shapeToEntity, s)
	}
	pw.space.RemoveBody(body)
	delete(pw.bodies, e)
}

// TrackedEntities lists every entity with a body in the space, by slot.
func (pw *PhysicsWorld) TrackedEntities() []Entity {
	if pw == nil {
		return nil
	}
	out := make([]Entity, 0, len(pw.bodies))
	for e := range pw.bodies {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entity) int {
		return cmp.Compare(a.id(), b.id())
	})
	return out
}

// Position returns the indexed position of a tracked entity.
func (pw *PhysicsWorld) Position(e Entity) (cp.Vector, bool) {
	if pw == nil {
		return cp.Vector{}, false
	}
	body, ok := pw.bodies[e]
	if !ok {
		return cp.Vector{}, false
	}
	return body.Position(), true
}

// Step advances the space by dt seconds.
func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || pw.space == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)
}

// Overlap returns every tracked entity whose position lies within radius of
// center. The bounding-box query is the broad phase; positions are then
// tested exactly. Hits are ordered by entity slot so repeated queries over an
// unchanged space return the same sequence.
func (pw *PhysicsWorld) Overlap(center cp.Vector, radius float64) []Hit {
	if pw == nil || pw.space == nil || radius < 0 || math.IsNaN(radius) {
		return nil
	}

	bb := cp.BB{L: center.X - radius, B: center.Y - radius, R: center.X + radius, T: center.Y + radius}
	seen := make(map[Entity]struct{})
	var hits []Hit
	pw.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		e, ok := pw.shapeToEntity[shape]
		if !ok {
			return
		}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		pos := shape.Body().Position()
		if pos.Distance(center) > radius {
			return
		}
		hits = append(hits, Hit{Entity: e, Position: pos})
	}, nil)

	slices.SortFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Entity.id(), b.Entity.id())
	})
	return hits
}
