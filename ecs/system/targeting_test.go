package system

import (
	"testing"

	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/faction"
	"github.com/stretchr/testify/require"
)

const orcs faction.ID = "orcs"

// hunterWorld places a players sentry at the origin with an enemy at x=3 and
// an orc at x=6.
func hunterWorld(t *testing.T, tg component.Targeting) (w *ecs.World, self, enemy, orc ecs.Entity) {
	t.Helper()
	w = testWorld(t)
	self = spawn(t, w, 0, 0, faction.Players)
	require.NoError(t, ecs.Add(w, self, component.DetectorComponent.Kind(), &component.Detector{
		DetectionRange: 10,
		AttackRange:    1,
		Enemies:        []faction.ID{faction.Enemies, orcs},
	}))
	require.NoError(t, ecs.Add(w, self, component.TargetingComponent.Kind(), &tg))
	enemy = spawn(t, w, 3, 0, faction.Enemies)
	orc = spawn(t, w, 6, 0, orcs)
	return w, self, enemy, orc
}

func targetOf(t *testing.T, w *ecs.World, e ecs.Entity) ecs.Entity {
	t.Helper()
	tg, ok := ecs.Get(w, e, component.TargetingComponent.Kind())
	require.True(t, ok)
	return ecs.Entity(tg.Target)
}

func TestTargetingPolicies(t *testing.T) {
	tests := []struct {
		name    string
		tg      component.Targeting
		wantOrc bool
	}{
		{"closest", component.Targeting{Policy: component.TargetClosest}, false},
		{"default_is_closest", component.Targeting{}, false},
		{"closest_faction", component.Targeting{Policy: component.TargetClosestFaction, Faction: orcs}, true},
		{"random_faction", component.Targeting{Policy: component.TargetRandomFaction, Faction: orcs}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, self, enemy, orc := hunterWorld(t, tc.tg)
			detection := NewDetectionSystem(1)
			log := &eventLog{}
			s := ecs.NewScheduler(NewPhysicsSystem(), detection, NewTargetingSystem(detection), log)
			w.Update(s)

			want := enemy
			if tc.wantOrc {
				want = orc
			}
			require.Equal(t, want, targetOf(t, w, self))

			changes := log.ofType(ecs.EventTarget)
			require.Len(t, changes, 1)
			require.Equal(t, ecs.TargetEvent{Entity: self, Target: want}, changes[0].Data)

			w.Update(s)
			require.Len(t, log.ofType(ecs.EventTarget), 1, "unchanged targets emit no event")
		})
	}
}

func TestTargetingRandomKeepsEligibleTarget(t *testing.T) {
	w, self, enemy, orc := hunterWorld(t, component.Targeting{Policy: component.TargetRandom})
	detection := NewDetectionSystem(7)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection, NewTargetingSystem(detection))

	w.Update(s)
	first := targetOf(t, w, self)
	require.Contains(t, []ecs.Entity{enemy, orc}, first)

	for i := 0; i < 20; i++ {
		w.Update(s)
		require.Equal(t, first, targetOf(t, w, self))
	}

	require.True(t, ecs.DestroyEntity(w, first))
	w.Update(s)
	next := targetOf(t, w, self)
	require.NotEqual(t, first, next)
	require.Contains(t, []ecs.Entity{enemy, orc}, next)
}

func TestTargetingLosesTargetOutOfRange(t *testing.T) {
	w, self, enemy, orc := hunterWorld(t, component.Targeting{Policy: component.TargetClosest})
	detection := NewDetectionSystem(1)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection, NewTargetingSystem(detection))
	w.Update(s)
	require.Equal(t, enemy, targetOf(t, w, self))

	require.True(t, ecs.DestroyEntity(w, enemy))
	require.True(t, ecs.DestroyEntity(w, orc))
	w.Update(s)
	require.Equal(t, ecs.Entity(0), targetOf(t, w, self))
}

func TestTargetingScript(t *testing.T) {
	src := `
choose := func(engine) {
	if engine.count("enemies") > 1 {
		return engine.closest_faction("orcs")
	}
	return engine.closest("enemies")
}
`
	w, self, _, orc := hunterWorld(t, component.Targeting{Policy: component.TargetScript, ScriptPath: "scripts/picky.tengo"})
	detection := NewDetectionSystem(1)
	targeting := NewTargetingSystem(detection)
	loads := 0
	targeting.SetScriptLoader(func(path string) ([]byte, error) {
		require.Equal(t, "scripts/picky.tengo", path)
		loads++
		return []byte(src), nil
	})
	s := ecs.NewScheduler(NewPhysicsSystem(), detection, targeting)

	w.Update(s)
	require.Equal(t, orc, targetOf(t, w, self))
	w.Update(s)
	require.Equal(t, 1, loads, "compiled scripts are cached")

	src = `choose := func(engine) {`
	targeting.InvalidateScript("prefabs/scripts/picky.tengo")
	w.Update(s)
	require.Equal(t, 2, loads)
	require.Equal(t, orc, targetOf(t, w, self), "a broken script keeps the current target")

	src = `choose := func(engine) { return 0 }`
	targeting.InvalidateScript("picky.tengo")
	w.Update(s)
	require.Equal(t, ecs.Entity(0), targetOf(t, w, self))
}

func TestTargetingScriptEngine(t *testing.T) {
	src := `
choose := func(engine) {
	if engine.faction_of(engine.current()) != "" {
		return engine.current()
	}
	near := engine.closest()
	if engine.distance(near) <= engine.ranges.detection && engine.count("allies") == 0 {
		return near
	}
	return 0
}
`
	w, self, enemy, _ := hunterWorld(t, component.Targeting{Policy: component.TargetScript, ScriptPath: "engine.tengo"})
	detection := NewDetectionSystem(1)
	targeting := NewTargetingSystem(detection)
	targeting.SetScriptLoader(func(string) ([]byte, error) { return []byte(src), nil })
	s := ecs.NewScheduler(NewPhysicsSystem(), detection, targeting)

	w.Update(s)
	require.Equal(t, enemy, targetOf(t, w, self))
	w.Update(s)
	require.Equal(t, enemy, targetOf(t, w, self))
}
