// Package sim builds an ECS world from a scenario and steps it at a fixed
// rate.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
	"github.com/milk9111/sentinel/ecs/system"
	"github.com/milk9111/sentinel/faction"
	"github.com/milk9111/sentinel/prefabs"
)

// Sim is one running scenario.
type Sim struct {
	Scenario *prefabs.ScenarioSpec

	world     *ecs.World
	scheduler *ecs.Scheduler
	detection *system.DetectionSystem
	targeting *system.TargetingSystem
	stats     *Stats

	squads map[string][]ecs.Entity
}

// New spawns every squad of spec into a fresh world.
func New(spec *prefabs.ScenarioSpec) (*Sim, error) {
	if spec == nil {
		return nil, fmt.Errorf("sim: nil scenario")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	w := ecs.NewWorld()
	w.SetTickRate(spec.TickRate)
	w.SetPhysicsWorld(ecs.NewPhysicsWorld())

	detection := system.NewDetectionSystem(spec.Seed)
	targeting := system.NewTargetingSystem(detection)
	s := &Sim{
		Scenario:  spec,
		world:     w,
		detection: detection,
		targeting: targeting,
		stats:     newStats(),
		squads:    make(map[string][]ecs.Entity),
	}
	s.scheduler = ecs.NewScheduler(
		system.NewPhysicsSystem(),
		detection,
		targeting,
		system.NewMovementSystem(detection, spec.Seed),
		ecs.SystemFunc(s.stats.collect),
	)

	rng := rand.New(rand.NewSource(spec.Seed))
	for _, sq := range spec.Squads {
		if err := s.spawnSquad(sq, rng); err != nil {
			return nil, err
		}
	}
	slog.Info("scenario spawned", "scenario", spec.Name, "entities", len(w.Entities()), "squads", len(spec.Squads))
	return s, nil
}

func (s *Sim) spawnSquad(sq prefabs.SquadSpec, rng *rand.Rand) error {
	var id faction.ID
	if sq.Faction != "" {
		parsed, err := faction.Parse(sq.Faction)
		if err != nil {
			return fmt.Errorf("sim: squad %s: %w", sq.Name, err)
		}
		id = parsed
	}

	det, err := detectorComponent(sq.Detector)
	if err != nil {
		return fmt.Errorf("sim: squad %s: %w", sq.Name, err)
	}

	var targetFaction faction.ID
	if sq.Targeting != nil && sq.Targeting.Faction != "" {
		parsed, err := faction.Parse(sq.Targeting.Faction)
		if err != nil {
			return fmt.Errorf("sim: squad %s targeting: %w", sq.Name, err)
		}
		targetFaction = parsed
	}

	for i := 0; i < sq.Count; i++ {
		e := s.world.CreateEntity()
		angle := rng.Float64() * 2 * math.Pi
		dist := math.Sqrt(rng.Float64()) * sq.Spawn.Spread

		adds := []error{
			ecs.Add(s.world, e, component.NameComponent.Kind(), &component.Name{Squad: sq.Name, Value: fmt.Sprintf("%s#%d", sq.Name, i+1)}),
			ecs.Add(s.world, e, component.TransformComponent.Kind(), &component.Transform{
				X: sq.Spawn.X + math.Cos(angle)*dist,
				Y: sq.Spawn.Y + math.Sin(angle)*dist,
			}),
			ecs.Add(s.world, e, component.BodyComponent.Kind(), &component.Body{Radius: sq.Body.Radius, Speed: sq.Body.Speed}),
			ecs.Add(s.world, e, component.WanderComponent.Kind(), &component.Wander{Seed: rng.Float64() * 1000, Phase: rng.Float64()}),
		}
		if id != "" {
			adds = append(adds, ecs.Add(s.world, e, component.FactionComponent.Kind(), &component.Faction{ID: id}))
		}
		if det != nil {
			own := *det
			adds = append(adds, ecs.Add(s.world, e, component.DetectorComponent.Kind(), &own))
		}
		if sq.Targeting != nil {
			t := &component.Targeting{
				Policy:     component.TargetPolicy(sq.Targeting.Policy),
				Faction:    targetFaction,
				ScriptPath: sq.Targeting.Script,
			}
			adds = append(adds, ecs.Add(s.world, e, component.TargetingComponent.Kind(), t))
		}
		for _, err := range adds {
			if err != nil {
				return fmt.Errorf("sim: spawn %s#%d: %w", sq.Name, i+1, err)
			}
		}
		s.squads[sq.Name] = append(s.squads[sq.Name], e)
	}
	return nil
}

func detectorComponent(spec *prefabs.DetectorSpec) (*component.Detector, error) {
	if spec == nil {
		return nil, nil
	}
	allies, err := faction.ParseAll(spec.Allies)
	if err != nil {
		return nil, fmt.Errorf("allies: %w", err)
	}
	enemies, err := faction.ParseAll(spec.Enemies)
	if err != nil {
		return nil, fmt.Errorf("enemies: %w", err)
	}
	detection, attack, avoid, rate := spec.Ranges()
	return &component.Detector{
		DetectionRange: detection,
		AttackRange:    attack,
		AvoidRange:     avoid,
		DetectionRate:  rate,
		Allies:         allies,
		Enemies:        enemies,
	}, nil
}

// World exposes the simulated world.
func (s *Sim) World() *ecs.World {
	return s.world
}

// Detection exposes the detection system, mainly to attach observers.
func (s *Sim) Detection() *system.DetectionSystem {
	return s.detection
}

// Squad returns the entities spawned for a squad, in spawn order.
func (s *Sim) Squad(name string) []ecs.Entity {
	return s.squads[name]
}

// Stats returns the running counters.
func (s *Sim) Stats() *Stats {
	return s.stats
}

// Step advances the world by one tick.
func (s *Sim) Step() {
	s.world.Update(s.scheduler)
}

// Run steps the world ticks times. When realtime is set each tick is paced
// to the scenario tick rate. every, if positive, is called each time that
// many ticks complete.
func (s *Sim) Run(ctx context.Context, ticks int, realtime bool, every int, report func(*Sim)) error {
	var pace *time.Ticker
	if realtime {
		pace = time.NewTicker(time.Duration(float64(time.Second) * s.world.Step()))
		defer pace.Stop()
	}

	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
		if every > 0 && report != nil && s.world.Tick()%uint64(every) == 0 {
			report(s)
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace.C:
			}
		}
	}
	return nil
}

// Reload applies detector tunables from spec to the squads of the running
// scenario. Squads are matched by name; new or removed squads are ignored.
func (s *Sim) Reload(spec *prefabs.ScenarioSpec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	updated := 0
	for _, sq := range spec.Squads {
		det, err := detectorComponent(sq.Detector)
		if err != nil {
			return updated, fmt.Errorf("sim: squad %s: %w", sq.Name, err)
		}
		if det == nil {
			continue
		}
		for _, e := range s.squads[sq.Name] {
			cur, ok := ecs.Get(s.world, e, component.DetectorComponent.Kind())
			if !ok {
				continue
			}
			det.Revision = cur.Revision + 1
			*cur = *det
			updated++
		}
	}
	slog.Info("scenario reloaded", "scenario", spec.Name, "detectors", updated)
	return updated, nil
}

// InvalidateScript forces targeting scripts matching path to recompile.
func (s *Sim) InvalidateScript(path string) {
	s.targeting.InvalidateScript(path)
}
