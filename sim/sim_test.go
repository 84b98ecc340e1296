package sim

import (
	"context"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/prefabs"
)

func loadSkirmish(t *testing.T) *prefabs.ScenarioSpec {
	t.Helper()
	spec, err := prefabs.LoadScenario("skirmish")
	require.NoError(t, err)
	return spec
}

func TestNewSpawnsSquads(t *testing.T) {
	s, err := New(loadSkirmish(t))
	require.NoError(t, err)

	counts := map[string]int{"rangers": 4, "raiders": 5, "caravan": 3, "crates": 6}
	total := 0
	for squad, n := range counts {
		require.Len(t, s.Squad(squad), n, squad)
		total += n
	}
	require.Len(t, s.World().Entities(), total)

	for _, e := range s.Squad("crates") {
		require.False(t, ecs.Has(s.World(), e, component.FactionComponent.Kind()), "crates are untagged")
	}
	for _, e := range s.Squad("caravan") {
		require.False(t, ecs.Has(s.World(), e, component.DetectorComponent.Kind()))
	}

	raider := s.Squad("raiders")[0]
	tg, ok := ecs.Get(s.World(), raider, component.TargetingComponent.Kind())
	require.True(t, ok)
	require.Equal(t, component.TargetScript, tg.Policy)

	for _, e := range s.Squad("rangers") {
		tr, ok := ecs.Get(s.World(), e, component.TransformComponent.Kind())
		require.True(t, ok)
		require.LessOrEqual(t, tr.Position().Distance(cp.Vector{X: -20}), 6.0+1e-9)
	}
}

func TestNewRejectsInvalidScenario(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	spec := loadSkirmish(t)
	spec.TickRate = 0
	_, err = New(spec)
	require.ErrorIs(t, err, prefabs.ErrInvalidScenario)
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() (*Sim, []float64) {
		s, err := New(loadSkirmish(t))
		require.NoError(t, err)
		reports := 0
		require.NoError(t, s.Run(context.Background(), 120, false, 60, func(*Sim) { reports++ }))
		require.Equal(t, 2, reports)

		var xs []float64
		ecs.ForEach(s.World(), component.TransformComponent.Kind(), func(_ ecs.Entity, tr *component.Transform) {
			xs = append(xs, tr.X, tr.Y)
		})
		return s, xs
	}

	a, xsA := run()
	b, xsB := run()
	require.Equal(t, xsA, xsB)
	require.Equal(t, uint64(120), a.World().Tick())
	require.Equal(t, a.Stats().Scans, b.Stats().Scans)

	// rangers scan every 0.1s for 2s, raiders every 0.25s
	require.Equal(t, 4*20+5*8, a.Stats().Scans)
	squads := a.Stats().Squads()
	require.NotEmpty(t, squads)
	for i := 1; i < len(squads); i++ {
		require.Less(t, squads[i-1].Squad, squads[i].Squad)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, err := New(loadSkirmish(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx, 10, false, 0, nil), context.Canceled)
	require.Equal(t, uint64(0), s.World().Tick())
}

func TestReloadUpdatesDetectors(t *testing.T) {
	s, err := New(loadSkirmish(t))
	require.NoError(t, err)
	s.Step()

	ranger := s.Squad("rangers")[0]
	c, ok := s.Detection().Classifier(ranger)
	require.True(t, ok)
	require.Equal(t, 15.0, c.LargestRange())

	spec := loadSkirmish(t)
	wide := 40.0
	spec.Squads[0].Detector.DetectionRange = &wide
	n, err := s.Reload(spec)
	require.NoError(t, err)
	require.Equal(t, 4+5, n)

	s.Step()
	require.Equal(t, 40.0, c.LargestRange())

	spec.Name = ""
	_, err = s.Reload(spec)
	require.Error(t, err)
}

func TestMixedCaseFactionsMatch(t *testing.T) {
	spec := &prefabs.ScenarioSpec{
		Name:     "casing",
		TickRate: 10,
		Ticks:    3,
		Squads: []prefabs.SquadSpec{
			{
				Name:      "sentry",
				Faction:   "Players",
				Count:     1,
				Body:      prefabs.BodySpec{Radius: 0.5},
				Detector:  &prefabs.DetectorSpec{Allies: []string{"PLAYERS"}, Enemies: []string{" Enemies "}},
				Targeting: &prefabs.TargetingSpec{Policy: "closest_faction", Faction: "Enemies"},
			},
			{
				Name:    "foe",
				Faction: "ENEMIES",
				Count:   1,
				Spawn:   prefabs.SpawnSpec{X: 3},
				Body:    prefabs.BodySpec{Radius: 0.5},
			},
		},
	}
	require.NoError(t, spec.Validate())

	s, err := New(spec)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		s.Step()
	}

	sentry := s.Squad("sentry")[0]
	foe := s.Squad("foe")[0]
	tg, ok := ecs.Get(s.World(), sentry, component.TargetingComponent.Kind())
	require.True(t, ok)
	require.Equal(t, "enemies", string(tg.Faction))
	require.Equal(t, uint64(foe), tg.Target)

	c, ok := s.Detection().Classifier(sentry)
	require.True(t, ok)
	require.Len(t, c.Result().Enemies, 1)
}
