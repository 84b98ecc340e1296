package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/sentinel/faction"
)

const (
	MaxRange = 1000.0
	MaxRate  = 5.0
)

var (
	ErrInvalidRange   = errors.New("detector: range must be a finite value in [0, 1000]")
	ErrInvalidRate    = errors.New("detector: detection rate must be a finite value in [0, 5]")
	ErrInvalidFaction = errors.New("detector: empty faction id")
)

// Ranges are the three radii a detector reasons about. Only Detection limits
// query results; Attack and Avoid widen the scan so consumers see what is
// around them.
type Ranges struct {
	Detection float64
	Attack    float64
	Avoid     float64
}

// Largest is the scan radius.
func (r Ranges) Largest() float64 {
	return max(r.Detection, r.Attack, r.Avoid)
}

func (r Ranges) validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"detection", r.Detection},
		{"attack", r.Attack},
		{"avoid", r.Avoid},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value < 0 || v.value > MaxRange {
			return fmt.Errorf("%s range %v: %w", v.name, v.value, ErrInvalidRange)
		}
	}
	return nil
}

// Relations is how one detector perceives other factions. A faction present
// in both sets is treated as an ally.
type Relations struct {
	Allies  faction.Set
	Enemies faction.Set
}

// NewRelations builds a relation table from faction lists.
func NewRelations(allies, enemies []faction.ID) Relations {
	return Relations{Allies: faction.NewSet(allies...), Enemies: faction.NewSet(enemies...)}
}

// Classify places id into a set.
func (r Relations) Classify(id faction.ID) Set {
	switch {
	case r.Allies.Contains(id):
		return Allies
	case r.Enemies.Contains(id):
		return Enemies
	default:
		return Neutrals
	}
}

func (r Relations) validate() error {
	for _, s := range []faction.Set{r.Allies, r.Enemies} {
		for id := range s {
			if id == "" {
				return ErrInvalidFaction
			}
		}
	}
	return nil
}

// Config is the full set of detector tunables.
type Config struct {
	Ranges    Ranges
	Relations Relations
	// Rate is the scan period in seconds. Zero scans every tick.
	Rate float64
}

// DefaultConfig mirrors the stock detector: 15/5/1 ranges, ten scans a
// second, no relations.
func DefaultConfig() Config {
	return Config{
		Ranges:    Ranges{Detection: 15, Attack: 5, Avoid: 1},
		Relations: NewRelations(nil, nil),
		Rate:      0.1,
	}
}

// Validate reports the first invalid tunable.
func (c Config) Validate() error {
	if err := c.Ranges.validate(); err != nil {
		return err
	}
	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate < 0 || c.Rate > MaxRate {
		return fmt.Errorf("rate %v: %w", c.Rate, ErrInvalidRate)
	}
	return c.Relations.validate()
}
