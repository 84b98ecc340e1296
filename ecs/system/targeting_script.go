package system

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
	"github.com/milk9111/sentinel/faction"
	"github.com/milk9111/sentinel/prefabs"
)

// A targeting script defines `choose := func(engine) { ... }` returning an
// entity id, or 0/undefined for no target.
const targetDispatchScript = `
__target = choose(__engine)
`

type scriptCache struct {
	load     func(path string) ([]byte, error)
	compiled map[string]*tengo.Compiled
}

func newScriptCache(load func(path string) ([]byte, error)) *scriptCache {
	if load == nil {
		load = prefabs.LoadScript
	}
	return &scriptCache{load: load, compiled: map[string]*tengo.Compiled{}}
}

func (sc *scriptCache) invalidate(path string) {
	if sc == nil {
		return
	}
	for key := range sc.compiled {
		if path == "" || filepath.Base(key) == filepath.Base(path) {
			delete(sc.compiled, key)
		}
	}
}

func (sc *scriptCache) get(path string) (*tengo.Compiled, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("targeting: empty script path")
	}
	if c, ok := sc.compiled[path]; ok {
		return c, nil
	}

	src, err := sc.load(path)
	if err != nil {
		return nil, fmt.Errorf("targeting: load %s: %w", path, err)
	}
	script := tengo.NewScript([]byte(string(src) + "\n" + targetDispatchScript))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__target", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("targeting: compile %s: %w", path, err)
	}
	sc.compiled[path] = compiled
	return compiled, nil
}

func (sc *scriptCache) run(path string, c *detector.Classifier, current ecs.Entity) (ecs.Entity, error) {
	compiled, err := sc.get(path)
	if err != nil {
		return current, err
	}
	if err := compiled.Set("__engine", buildTargetEngine(c, current)); err != nil {
		return current, err
	}
	if err := compiled.Set("__target", 0); err != nil {
		return current, err
	}
	if err := compiled.Run(); err != nil {
		return current, err
	}

	v := compiled.Get("__target")
	if v == nil || v.IsUndefined() {
		return 0, nil
	}
	id := v.Int64()
	if id <= 0 {
		return 0, nil
	}
	return ecs.Entity(id), nil
}

func entityObject(d detector.Detected, ok bool) tengo.Object {
	if !ok {
		return &tengo.Int{Value: 0}
	}
	return &tengo.Int{Value: int64(d.Entity)}
}

func setArg(args []tengo.Object) (detector.Set, bool) {
	if len(args) < 1 {
		return detector.Enemies, true
	}
	return detector.ParseSet(strings.TrimSpace(objectAsString(args[0])))
}

func factionArg(args []tengo.Object) (faction.ID, bool) {
	if len(args) < 1 {
		return "", false
	}
	id, err := faction.Parse(objectAsString(args[0]))
	return id, err == nil
}

func buildTargetEngine(c *detector.Classifier, current ecs.Entity) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["closest"] = &tengo.UserFunction{Name: "closest", Value: func(args ...tengo.Object) (tengo.Object, error) {
		set, ok := setArg(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return entityObject(c.ClosestInSet(set)), nil
	}}

	values["closest_faction"] = &tengo.UserFunction{Name: "closest_faction", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, ok := factionArg(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return entityObject(c.ClosestOfFaction(id)), nil
	}}

	values["random"] = &tengo.UserFunction{Name: "random", Value: func(args ...tengo.Object) (tengo.Object, error) {
		set, ok := setArg(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return entityObject(c.RandomInSet(set)), nil
	}}

	values["random_faction"] = &tengo.UserFunction{Name: "random_faction", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, ok := factionArg(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return entityObject(c.RandomOfFaction(id)), nil
	}}

	values["count"] = &tengo.UserFunction{Name: "count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		set, ok := setArg(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(len(c.Eligible(set)))}, nil
	}}

	values["distance"] = &tengo.UserFunction{Name: "distance", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return &tengo.Float{Value: -1}, nil
		}
		id, ok := tengo.ToInt64(args[0])
		if !ok {
			return &tengo.Float{Value: -1}, nil
		}
		d, ok := c.Distance(ecs.Entity(id))
		if !ok {
			return &tengo.Float{Value: -1}, nil
		}
		return &tengo.Float{Value: d}, nil
	}}

	values["faction_of"] = &tengo.UserFunction{Name: "faction_of", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return &tengo.String{Value: ""}, nil
		}
		id, ok := tengo.ToInt64(args[0])
		if !ok {
			return &tengo.String{Value: ""}, nil
		}
		res := c.Result()
		for _, set := range []detector.Set{detector.Allies, detector.Enemies, detector.Neutrals} {
			for _, d := range res.In(set) {
				if d.Entity == ecs.Entity(id) {
					return &tengo.String{Value: string(d.Faction)}, nil
				}
			}
		}
		return &tengo.String{Value: ""}, nil
	}}

	values["current"] = &tengo.UserFunction{Name: "current", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(current)}, nil
	}}

	ranges := c.Config().Ranges
	values["ranges"] = &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"detection": &tengo.Float{Value: ranges.Detection},
		"attack":    &tengo.Float{Value: ranges.Attack},
		"avoid":     &tengo.Float{Value: ranges.Avoid},
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
