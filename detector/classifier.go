// Package detector classifies nearby entities into allies, enemies and
// neutrals on a fixed cadence and answers nearest/random selection queries
// over the latest classification.
//
// The spatial index, faction tags and positions all come from the host
// through small interfaces, so the classifier owns no world state of its own.
package detector

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/faction"
)

// Space answers ball queries. Hits must be returned in a stable order.
type Space interface {
	Overlap(center cp.Vector, radius float64) []ecs.Hit
}

// Tags resolves the faction tag of an entity. ok is false for untagged
// entities.
type Tags interface {
	FactionOf(e ecs.Entity) (faction.ID, bool)
}

// Locator resolves current world positions. ok is false once an entity no
// longer exists.
type Locator interface {
	Position(e ecs.Entity) (cp.Vector, bool)
}

// Deps are the host collaborators a classifier needs.
type Deps struct {
	Space   Space
	Tags    Tags
	Locator Locator
	// Rand drives random selection; a nil Rand is seeded from the entity id.
	Rand *rand.Rand
}

var ErrMissingDeps = errors.New("detector: space, tags and locator are required")

// Classifier is a per-entity proximity classifier. It is not safe for
// concurrent Scan calls, but readers on other goroutines always see a
// complete Result.
type Classifier struct {
	self ecs.Entity
	deps Deps

	cfg     Config
	largest float64

	result atomic.Pointer[Result]
	scans  uint64
}

// New builds a classifier for self. The configuration is validated up front.
func New(self ecs.Entity, cfg Config, deps Deps) (*Classifier, error) {
	if deps.Space == nil || deps.Tags == nil || deps.Locator == nil {
		return nil, ErrMissingDeps
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(int64(self)))
	}
	c := &Classifier{self: self, deps: deps}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	c.result.Store(&Result{})
	return c, nil
}

// Self is the entity the classifier scans around.
func (c *Classifier) Self() ecs.Entity {
	return c.self
}

// Config returns the active configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Configure swaps in a new configuration. The scan radius follows the new
// ranges immediately; the current Result is kept until the next Scan.
func (c *Classifier) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configure %v: %w", c.self, err)
	}
	if cfg.Relations.Allies == nil {
		cfg.Relations.Allies = faction.NewSet()
	}
	if cfg.Relations.Enemies == nil {
		cfg.Relations.Enemies = faction.NewSet()
	}
	c.cfg = cfg
	c.largest = cfg.Ranges.Largest()
	return nil
}

// LargestRange is the current scan radius.
func (c *Classifier) LargestRange() float64 {
	return c.largest
}

// Scans is the number of completed scans.
func (c *Classifier) Scans() uint64 {
	return c.scans
}

// Result returns the latest published classification. It is never nil.
func (c *Classifier) Result() *Result {
	return c.result.Load()
}

// Scan rebuilds the classification from the spatial index and publishes it.
func (c *Classifier) Scan() *Result {
	next := &Result{}
	if origin, ok := c.deps.Locator.Position(c.self); ok {
		for _, hit := range c.deps.Space.Overlap(origin, c.largest) {
			if hit.Entity == c.self {
				continue
			}
			id, ok := c.deps.Tags.FactionOf(hit.Entity)
			if !ok {
				continue
			}
			next.add(c.cfg.Relations.Classify(id), Detected{Entity: hit.Entity, Faction: id, Position: hit.Position})
		}
	}
	c.result.Store(next)
	c.scans++
	return next
}

// candidates returns entries of ds that still exist and lie within the
// detection range, with their current distance to the classifier.
func (c *Classifier) candidates(ds []Detected, keep func(Detected) bool) ([]Detected, []float64) {
	origin, ok := c.deps.Locator.Position(c.self)
	if !ok || len(ds) == 0 {
		return nil, nil
	}
	var out []Detected
	var dists []float64
	for _, d := range ds {
		if keep != nil && !keep(d) {
			continue
		}
		pos, ok := c.deps.Locator.Position(d.Entity)
		if !ok {
			continue
		}
		dist := origin.Distance(pos)
		if dist > c.cfg.Ranges.Detection {
			continue
		}
		d.Position = pos
		out = append(out, d)
		dists = append(dists, dist)
	}
	return out, dists
}

func (c *Classifier) closest(ds []Detected, keep func(Detected) bool) (Detected, bool) {
	cands, dists := c.candidates(ds, keep)
	best := -1
	bestDist := math.Inf(1)
	for i, dist := range dists {
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return Detected{}, false
	}
	return cands[best], true
}

func (c *Classifier) random(ds []Detected, keep func(Detected) bool) (Detected, bool) {
	cands, _ := c.candidates(ds, keep)
	if len(cands) == 0 {
		return Detected{}, false
	}
	return cands[c.deps.Rand.Intn(len(cands))], true
}

func ofFaction(id faction.ID) func(Detected) bool {
	return func(d Detected) bool { return d.Faction == id }
}

// ClosestInSet returns the nearest entity of set within detection range.
// The earliest entry wins ties.
func (c *Classifier) ClosestInSet(set Set) (Detected, bool) {
	return c.closest(c.Result().In(set), nil)
}

func (c *Classifier) ClosestEnemy() (Detected, bool) {
	return c.ClosestInSet(Enemies)
}

func (c *Classifier) ClosestAlly() (Detected, bool) {
	return c.ClosestInSet(Allies)
}

// ClosestOfFaction returns the nearest enemy tagged id within detection
// range.
func (c *Classifier) ClosestOfFaction(id faction.ID) (Detected, bool) {
	return c.closest(c.Result().Enemies, ofFaction(id))
}

// RandomInSet picks uniformly among the entities of set within detection
// range.
func (c *Classifier) RandomInSet(set Set) (Detected, bool) {
	return c.random(c.Result().In(set), nil)
}

func (c *Classifier) RandomEnemy() (Detected, bool) {
	return c.RandomInSet(Enemies)
}

// RandomOfFaction picks uniformly among enemies tagged id within detection
// range.
func (c *Classifier) RandomOfFaction(id faction.ID) (Detected, bool) {
	return c.random(c.Result().Enemies, ofFaction(id))
}

// Eligible lists the entities of set currently within detection range, in
// scan order.
func (c *Classifier) Eligible(set Set) []Detected {
	cands, _ := c.candidates(c.Result().In(set), nil)
	return cands
}

// Distance is the current distance between the classifier and e.
func (c *Classifier) Distance(e ecs.Entity) (float64, bool) {
	origin, ok := c.deps.Locator.Position(c.self)
	if !ok {
		return 0, false
	}
	pos, ok := c.deps.Locator.Position(e)
	if !ok {
		return 0, false
	}
	return origin.Distance(pos), true
}
