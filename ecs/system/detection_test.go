package system

import (
	"testing"

	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/faction"
	"github.com/stretchr/testify/require"
)

type scanCounter struct {
	ticks []uint64
	sizes []int
}

func (s *scanCounter) ObserveScan(tick uint64, _ *detector.Classifier, res *detector.Result) {
	s.ticks = append(s.ticks, tick)
	s.sizes = append(s.sizes, res.Len())
}

func TestDetectionSystemClassifiesWorld(t *testing.T) {
	w := testWorld(t)
	self := sentry(t, w, 0.5)
	enemy := spawn(t, w, 3, 0, faction.Enemies)
	ally := spawn(t, w, 0, 4, faction.Players)
	merchant := spawn(t, w, -5, 0, "merchants")
	spawn(t, w, 2, 0, "")
	spawn(t, w, 50, 0, faction.Enemies)

	detection := NewDetectionSystem(1)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection)
	w.Update(s)

	c, ok := detection.Classifier(self)
	require.True(t, ok)
	res := c.Result()
	require.Equal(t, []ecs.Entity{enemy}, detector.Entities(res.Enemies))
	require.Equal(t, []ecs.Entity{ally}, detector.Entities(res.Allies))
	require.Equal(t, []ecs.Entity{merchant}, detector.Entities(res.Neutrals))

	closest, ok := c.ClosestEnemy()
	require.True(t, ok)
	require.Equal(t, enemy, closest.Entity)
}

func TestDetectionSystemCadence(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		ticks int
		want  []uint64
	}{
		{"every_half_second", 0.5, 11, []uint64{0, 5, 10}},
		{"every_tick", 0, 3, []uint64{0, 1, 2}},
		{"slower_than_run", 5, 20, []uint64{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := testWorld(t)
			sentry(t, w, tc.rate)
			spawn(t, w, 3, 0, faction.Enemies)

			detection := NewDetectionSystem(1)
			obs := &scanCounter{}
			detection.SetObserver(obs)
			log := &eventLog{}
			s := ecs.NewScheduler(NewPhysicsSystem(), detection, log)
			for i := 0; i < tc.ticks; i++ {
				w.Update(s)
			}

			require.Equal(t, tc.want, obs.ticks)
			require.Len(t, log.ofType(ecs.EventScanned), len(tc.want))
			for _, n := range obs.sizes {
				require.Equal(t, 1, n)
			}
		})
	}
}

func TestDetectionSystemReconfigure(t *testing.T) {
	w := testWorld(t)
	self := sentry(t, w, 0)
	spawn(t, w, 20, 0, faction.Enemies)

	detection := NewDetectionSystem(1)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection)
	w.Update(s)

	c, ok := detection.Classifier(self)
	require.True(t, ok)
	require.Equal(t, 15.0, c.LargestRange())
	require.Zero(t, c.Result().Len())

	d, ok := ecs.Get(w, self, component.DetectorComponent.Kind())
	require.True(t, ok)
	d.DetectionRange = 25
	d.Revision++
	w.Update(s)

	require.Equal(t, 25.0, c.LargestRange())
	require.Len(t, c.Result().Enemies, 1)

	d.DetectionRange = -3
	d.Revision++
	w.Update(s)
	require.Equal(t, 25.0, c.LargestRange(), "invalid tunables keep the previous config")
}

func TestDetectionSystemDropsDestroyedEntities(t *testing.T) {
	w := testWorld(t)
	self := sentry(t, w, 0)
	other := sentry(t, w, 0)

	detection := NewDetectionSystem(1)
	obs := &scanCounter{}
	detection.SetObserver(obs)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection)
	w.Update(s)
	require.Len(t, obs.ticks, 2)

	require.True(t, ecs.DestroyEntity(w, self))
	w.Update(s)

	_, ok := detection.Classifier(self)
	require.False(t, ok)
	_, ok = detection.Classifier(other)
	require.True(t, ok)
	require.Len(t, obs.ticks, 3)
}

func TestDetectionSystemSkipsInvalidDetector(t *testing.T) {
	w := testWorld(t)
	e := spawn(t, w, 0, 0, faction.Players)
	require.NoError(t, ecs.Add(w, e, component.DetectorComponent.Kind(), &component.Detector{DetectionRange: 5000}))

	detection := NewDetectionSystem(1)
	w.Update(ecs.NewScheduler(NewPhysicsSystem(), detection))

	_, ok := detection.Classifier(e)
	require.False(t, ok)
}

func TestPhysicsSystemUntracksStrippedBodies(t *testing.T) {
	w := testWorld(t)
	self := sentry(t, w, 0)
	enemy := spawn(t, w, 3, 0, faction.Enemies)

	detection := NewDetectionSystem(1)
	s := ecs.NewScheduler(NewPhysicsSystem(), detection)
	w.Update(s)

	c, ok := detection.Classifier(self)
	require.True(t, ok)
	require.Len(t, c.Result().Enemies, 1)

	require.True(t, ecs.Remove(w, enemy, component.BodyComponent.Kind()))
	w.Update(s)

	require.False(t, w.PhysicsWorld().Tracked(enemy))
	require.True(t, w.PhysicsWorld().Tracked(self))
	require.Empty(t, c.Result().Enemies)
}
