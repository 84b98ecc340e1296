package system

import (
	"log/slog"
	"math/rand"

	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/ecs/component"
)

// ScanObserver is told about every published scan.
type ScanObserver interface {
	ObserveScan(tick uint64, c *detector.Classifier, res *detector.Result)
}

// DetectionSystem owns one classifier and one scan timer per entity carrying
// a Detector component. Runtimes of destroyed entities are dropped, which is
// how periodic scanning stops.
type DetectionSystem struct {
	seed     int64
	runtimes map[ecs.Entity]*detectorRuntime
	observer ScanObserver
}

type detectorRuntime struct {
	classifier *detector.Classifier
	timer      *detector.Timer
	revision   int
}

func NewDetectionSystem(seed int64) *DetectionSystem {
	return &DetectionSystem{
		seed:     seed,
		runtimes: make(map[ecs.Entity]*detectorRuntime),
	}
}

func (s *DetectionSystem) SetObserver(o ScanObserver) {
	s.observer = o
}

// Classifier returns the live classifier of e.
func (s *DetectionSystem) Classifier(e ecs.Entity) (*detector.Classifier, bool) {
	if s == nil {
		return nil, false
	}
	rt, ok := s.runtimes[e]
	if !ok {
		return nil, false
	}
	return rt.classifier, true
}

// ConfigFromComponent converts component tunables into a detector config.
func ConfigFromComponent(d *component.Detector) detector.Config {
	return detector.Config{
		Ranges: detector.Ranges{
			Detection: d.DetectionRange,
			Attack:    d.AttackRange,
			Avoid:     d.AvoidRange,
		},
		Relations: detector.NewRelations(d.Allies, d.Enemies),
		Rate:      d.DetectionRate,
	}
}

func (s *DetectionSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		return
	}
	view := worldView{w: w}

	live := make(map[ecs.Entity]struct{}, len(s.runtimes))
	ecs.ForEach2(w, component.DetectorComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, d *component.Detector, _ *component.Transform) {
		live[e] = struct{}{}
		rt := s.runtimes[e]
		if rt == nil {
			cfg := ConfigFromComponent(d)
			c, err := detector.New(e, cfg, detector.Deps{
				Space:   pw,
				Tags:    view,
				Locator: view,
				Rand:    rand.New(rand.NewSource(s.seed ^ int64(e))),
			})
			if err != nil {
				slog.Warn("detection: invalid detector", "entity", e, "error", err)
				return
			}
			rt = &detectorRuntime{classifier: c, timer: detector.NewTimer(cfg.Rate), revision: d.Revision}
			s.runtimes[e] = rt
		} else if rt.revision != d.Revision {
			cfg := ConfigFromComponent(d)
			rt.revision = d.Revision
			if err := rt.classifier.Configure(cfg); err != nil {
				slog.Warn("detection: keeping previous detector config", "entity", e, "error", err)
			} else {
				rt.timer.SetPeriod(cfg.Rate)
				slog.Debug("detection: reconfigured", "entity", e, "largest_range", rt.classifier.LargestRange())
			}
		}

		if !rt.timer.Advance(w.Step()) {
			return
		}
		res := rt.classifier.Scan()
		w.Events().Push(ecs.Event{Type: ecs.EventScanned, Data: ecs.ScanEvent{
			Tick:     w.Tick(),
			Entity:   e,
			Allies:   detector.Entities(res.Allies),
			Enemies:  detector.Entities(res.Enemies),
			Neutrals: detector.Entities(res.Neutrals),
		}})
		if s.observer != nil {
			s.observer.ObserveScan(w.Tick(), rt.classifier, res)
		}
	})

	for e := range s.runtimes {
		if _, ok := live[e]; !ok {
			delete(s.runtimes, e)
		}
	}
}
