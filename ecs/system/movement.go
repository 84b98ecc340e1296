package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/ojrac/opensimplex-go"
)

// wanderFrequency scales simulated seconds into noise space.
const wanderFrequency = 0.2

// MovementSystem steers bodies: away from anything inside avoid range, then
// toward the current target until it is inside attack range, otherwise along
// a noise-driven wander heading.
type MovementSystem struct {
	detection *DetectionSystem
	noise     opensimplex.Noise
}

func NewMovementSystem(detection *DetectionSystem, seed int64) *MovementSystem {
	return &MovementSystem{
		detection: detection,
		noise:     opensimplex.New(seed),
	}
}

func (s *MovementSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	dt := w.Step()

	ecs.ForEach2(w, component.TransformComponent.Kind(), component.BodyComponent.Kind(), func(e ecs.Entity, t *component.Transform, b *component.Body) {
		if b.Speed <= 0 {
			return
		}
		pos := t.Position()

		var dir cp.Vector
		c, hasDetector := s.detection.Classifier(e)
		if hasDetector {
			dir = s.avoid(w, c, pos)
		}

		if dir == (cp.Vector{}) && hasDetector {
			if tg, ok := ecs.Get(w, e, component.TargetingComponent.Kind()); ok && tg.Target != 0 {
				target := ecs.Entity(tg.Target)
				if dist, ok := c.Distance(target); ok {
					if dist <= c.Config().Ranges.Attack {
						w.Events().Push(ecs.Event{Type: ecs.EventEngaged, Data: ecs.EngageEvent{Entity: e, Target: target, Distance: dist}})
						return
					}
					if tt, ok := ecs.Get(w, target, component.TransformComponent.Kind()); ok {
						dir = tt.Position().Sub(pos)
					}
				}
			}
		}

		if dir == (cp.Vector{}) {
			dir = s.wander(w, e)
		}
		if dir.Length() == 0 {
			return
		}

		step := dir.Normalize().Mult(b.Speed * dt)
		t.SetPosition(pos.Add(step))
		t.Rotation = step.ToAngle()
	})
}

// avoid sums repulsion from every detected entity closer than the avoid
// range.
func (s *MovementSystem) avoid(w *ecs.World, c *detector.Classifier, pos cp.Vector) cp.Vector {
	radius := c.Config().Ranges.Avoid
	if radius <= 0 {
		return cp.Vector{}
	}
	var push cp.Vector
	res := c.Result()
	for _, set := range []detector.Set{detector.Allies, detector.Enemies, detector.Neutrals} {
		for _, d := range res.In(set) {
			ot, ok := ecs.Get(w, d.Entity, component.TransformComponent.Kind())
			if !ok {
				continue
			}
			dist := pos.Distance(ot.Position())
			if dist >= radius || dist == 0 {
				continue
			}
			away := pos.Sub(ot.Position()).Normalize()
			push = push.Add(away.Mult((radius - dist) / radius))
		}
	}
	return push
}

func (s *MovementSystem) wander(w *ecs.World, e ecs.Entity) cp.Vector {
	wd, ok := ecs.Get(w, e, component.WanderComponent.Kind())
	if !ok {
		return cp.Vector{}
	}
	n := s.noise.Eval2(wd.Seed, w.Time()*wanderFrequency+wd.Phase)
	angle := n * 2 * math.Pi
	return cp.ForAngle(angle)
}
