package prefabs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/faction"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("prefabs: invalid scenario")

// LoadSpec reads and decodes a YAML prefab.
func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type ScenarioSpec struct {
	Name     string      `yaml:"name"`
	Seed     int64       `yaml:"seed"`
	TickRate int         `yaml:"tick_rate"`
	Ticks    int         `yaml:"ticks"`
	Squads   []SquadSpec `yaml:"squads"`
}

type SquadSpec struct {
	Name      string         `yaml:"name"`
	Faction   string         `yaml:"faction"`
	Count     int            `yaml:"count"`
	Spawn     SpawnSpec      `yaml:"spawn"`
	Body      BodySpec       `yaml:"body"`
	Detector  *DetectorSpec  `yaml:"detector"`
	Targeting *TargetingSpec `yaml:"targeting"`
}

type SpawnSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Spread float64 `yaml:"spread"`
}

type BodySpec struct {
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
}

// DetectorSpec is the YAML form of the detector tunables. Nil pointers take
// the stock defaults.
type DetectorSpec struct {
	DetectionRange *float64 `yaml:"detection_range"`
	AttackRange    *float64 `yaml:"attack_range"`
	AvoidRange     *float64 `yaml:"avoid_range"`
	DetectionRate  *float64 `yaml:"detection_rate"`
	Allies         []string `yaml:"allies"`
	Enemies        []string `yaml:"enemies"`
}

type TargetingSpec struct {
	Policy  string `yaml:"policy"`
	Faction string `yaml:"faction"`
	Script  string `yaml:"script"`
}

const (
	DefaultTickRate = 60
	DefaultTicks    = 600

	defaultDetectionRange = 15.0
	defaultAttackRange    = 5.0
	defaultAvoidRange     = 1.0
	defaultDetectionRate  = 0.1
)

// Ranges resolves the detector tunables against the stock defaults.
func (d DetectorSpec) Ranges() (detection, attack, avoid, rate float64) {
	pick := func(v *float64, def float64) float64 {
		if v == nil {
			return def
		}
		return *v
	}
	return pick(d.DetectionRange, defaultDetectionRange),
		pick(d.AttackRange, defaultAttackRange),
		pick(d.AvoidRange, defaultAvoidRange),
		pick(d.DetectionRate, defaultDetectionRate)
}

// LoadScenario loads, defaults and validates a scenario.
func LoadScenario(name string) (*ScenarioSpec, error) {
	spec, err := LoadSpec[ScenarioSpec](name)
	if err != nil {
		return nil, err
	}
	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", name, err)
	}
	return &spec, nil
}

func (s *ScenarioSpec) applyDefaults() {
	if s.TickRate == 0 {
		s.TickRate = DefaultTickRate
	}
	if s.Ticks == 0 {
		s.Ticks = DefaultTicks
	}
	for i := range s.Squads {
		sq := &s.Squads[i]
		if sq.Count == 0 {
			sq.Count = 1
		}
		if sq.Targeting != nil && sq.Targeting.Policy == "" {
			sq.Targeting.Policy = "closest"
		}
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects scenarios the simulation cannot run.
func (s *ScenarioSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name is required")
	}
	if s.TickRate <= 0 {
		return invalid("tick_rate must be positive, got %d", s.TickRate)
	}
	if s.Ticks < 0 {
		return invalid("ticks must not be negative, got %d", s.Ticks)
	}
	if len(s.Squads) == 0 {
		return invalid("at least one squad is required")
	}

	seen := make(map[string]struct{}, len(s.Squads))
	for i, sq := range s.Squads {
		if strings.TrimSpace(sq.Name) == "" {
			return invalid("squad %d name is required", i)
		}
		key := strings.ToLower(sq.Name)
		if _, dup := seen[key]; dup {
			return invalid("duplicate squad name: %s", sq.Name)
		}
		seen[key] = struct{}{}

		if sq.Count < 0 {
			return invalid("squad %s count must not be negative", sq.Name)
		}
		if !finite(sq.Spawn.X) || !finite(sq.Spawn.Y) || !finite(sq.Spawn.Spread) || sq.Spawn.Spread < 0 {
			return invalid("squad %s spawn must be finite with a non-negative spread", sq.Name)
		}
		if !finite(sq.Body.Radius) || sq.Body.Radius < 0 || !finite(sq.Body.Speed) || sq.Body.Speed < 0 {
			return invalid("squad %s body radius and speed must be finite and non-negative", sq.Name)
		}
		if sq.Detector != nil {
			if err := validateDetector(sq.Name, *sq.Detector); err != nil {
				return err
			}
		}
		if sq.Targeting != nil {
			if sq.Detector == nil {
				return invalid("squad %s targeting requires a detector", sq.Name)
			}
			if err := validateTargeting(sq.Name, *sq.Targeting); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateDetector(squad string, d DetectorSpec) error {
	detection, attack, avoid, rate := d.Ranges()
	for _, r := range []struct {
		name  string
		value float64
	}{
		{"detection_range", detection},
		{"attack_range", attack},
		{"avoid_range", avoid},
	} {
		if !finite(r.value) || r.value < 0 || r.value > detector.MaxRange {
			return invalid("squad %s %s must be in [0, %v], got %v", squad, r.name, detector.MaxRange, r.value)
		}
	}
	if !finite(rate) || rate < 0 || rate > detector.MaxRate {
		return invalid("squad %s detection_rate must be in [0, %v], got %v", squad, detector.MaxRate, rate)
	}
	if _, err := faction.ParseAll(append(append([]string{}, d.Allies...), d.Enemies...)); err != nil {
		return invalid("squad %s relations: %v", squad, err)
	}
	return nil
}

func validateTargeting(squad string, t TargetingSpec) error {
	switch t.Policy {
	case "closest", "random":
	case "closest_faction", "random_faction":
		if _, err := faction.Parse(t.Faction); err != nil {
			return invalid("squad %s policy %s requires a faction: %v", squad, t.Policy, err)
		}
	case "script":
		if strings.TrimSpace(t.Script) == "" {
			return invalid("squad %s policy script requires a script path", squad)
		}
	default:
		return invalid("squad %s unknown targeting policy %q", squad, t.Policy)
	}
	return nil
}
