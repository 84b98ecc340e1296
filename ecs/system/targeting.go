package system

import (
	"log/slog"

	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
)

// TargetingSystem picks a target for every entity with a Targeting
// component from its detector's latest scan.
type TargetingSystem struct {
	detection *DetectionSystem
	scripts   *scriptCache
}

func NewTargetingSystem(detection *DetectionSystem) *TargetingSystem {
	return &TargetingSystem{
		detection: detection,
		scripts:   newScriptCache(nil),
	}
}

// SetScriptLoader overrides where targeting scripts are read from.
func (s *TargetingSystem) SetScriptLoader(load func(path string) ([]byte, error)) {
	s.scripts = newScriptCache(load)
}

// InvalidateScript drops the compiled copy of path so the next tick reloads
// it.
func (s *TargetingSystem) InvalidateScript(path string) {
	s.scripts.invalidate(path)
}

func (s *TargetingSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	ecs.ForEach(w, component.TargetingComponent.Kind(), func(e ecs.Entity, t *component.Targeting) {
		prev := ecs.Entity(t.Target)
		next := ecs.Entity(0)

		if c, ok := s.detection.Classifier(e); ok {
			next = s.pick(e, c, t)
		}
		if next != 0 && !w.IsAlive(next) {
			next = 0
		}
		if next == prev {
			return
		}

		t.Target = uint64(next)
		w.Events().Push(ecs.Event{Type: ecs.EventTarget, Data: ecs.TargetEvent{Entity: e, Target: next}})
	})
}

func (s *TargetingSystem) pick(e ecs.Entity, c *detector.Classifier, t *component.Targeting) ecs.Entity {
	current := ecs.Entity(t.Target)

	switch t.Policy {
	case component.TargetClosest, "":
		if d, ok := c.ClosestEnemy(); ok {
			return d.Entity
		}
	case component.TargetClosestFaction:
		if d, ok := c.ClosestOfFaction(t.Faction); ok {
			return d.Entity
		}
	case component.TargetRandom, component.TargetRandomFaction:
		// keep a random pick while it stays eligible
		for _, d := range c.Eligible(detector.Enemies) {
			if d.Entity == current && (t.Policy == component.TargetRandom || d.Faction == t.Faction) {
				return current
			}
		}
		var d detector.Detected
		var ok bool
		if t.Policy == component.TargetRandom {
			d, ok = c.RandomEnemy()
		} else {
			d, ok = c.RandomOfFaction(t.Faction)
		}
		if ok {
			return d.Entity
		}
	case component.TargetScript:
		next, err := s.scripts.run(t.ScriptPath, c, current)
		if err != nil {
			slog.Warn("targeting: script error", "entity", e, "script", t.ScriptPath, "error", err)
			return current
		}
		return next
	default:
		slog.Warn("targeting: unknown policy", "entity", e, "policy", t.Policy)
	}
	return 0
}
