package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/faction"
)

// worldView exposes faction tags and transforms of a world to detectors.
type worldView struct {
	w *ecs.World
}

func (v worldView) FactionOf(e ecs.Entity) (faction.ID, bool) {
	f, ok := ecs.Get(v.w, e, component.FactionComponent.Kind())
	if !ok || f.ID == "" {
		return "", false
	}
	return f.ID, true
}

func (v worldView) Position(e ecs.Entity) (cp.Vector, bool) {
	t, ok := ecs.Get(v.w, e, component.TransformComponent.Kind())
	if !ok {
		return cp.Vector{}, false
	}
	return t.Position(), true
}
