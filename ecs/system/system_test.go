package system

import (
	"testing"

	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/faction"
	"github.com/stretchr/testify/require"
)

// testWorld is a 10Hz world with a physics space attached.
func testWorld(t *testing.T) *ecs.World {
	t.Helper()
	w := ecs.NewWorld()
	w.SetTickRate(10)
	w.SetPhysicsWorld(ecs.NewPhysicsWorld())
	return w
}

func spawn(t *testing.T, w *ecs.World, x, y float64, f faction.ID) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}))
	require.NoError(t, ecs.Add(w, e, component.BodyComponent.Kind(), &component.Body{Radius: 0.5}))
	if f != "" {
		require.NoError(t, ecs.Add(w, e, component.FactionComponent.Kind(), &component.Faction{ID: f}))
	}
	return e
}

func sentry(t *testing.T, w *ecs.World, rate float64) ecs.Entity {
	t.Helper()
	e := spawn(t, w, 0, 0, faction.Players)
	require.NoError(t, ecs.Add(w, e, component.DetectorComponent.Kind(), &component.Detector{
		DetectionRange: 15,
		AttackRange:    5,
		AvoidRange:     1,
		DetectionRate:  rate,
		Allies:         []faction.ID{faction.Players},
		Enemies:        []faction.ID{faction.Enemies},
	}))
	return e
}

// eventLog collects events before the world flushes them.
type eventLog struct {
	events []ecs.Event
}

func (l *eventLog) Update(w *ecs.World) {
	l.events = append(l.events, w.Events().Drain()...)
}

func (l *eventLog) ofType(typ string) []ecs.Event {
	var out []ecs.Event
	for _, evt := range l.events {
		if evt.Type == typ {
			out = append(out, evt)
		}
	}
	return out
}
