package component

import "github.com/milk9111/sentinel/faction"

type TargetPolicy string

const (
	TargetClosest        TargetPolicy = "closest"
	TargetClosestFaction TargetPolicy = "closest_faction"
	TargetRandom         TargetPolicy = "random"
	TargetRandomFaction  TargetPolicy = "random_faction"
	TargetScript         TargetPolicy = "script"
)

// Targeting selects which detected enemy an entity pursues.
type Targeting struct {
	Policy     TargetPolicy
	Faction    faction.ID
	ScriptPath string

	// Target is an ecs.Entity value; zero means no target.
	Target uint64
}

var TargetingComponent = NewComponent[Targeting]()
