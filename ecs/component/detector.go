package component

import "github.com/milk9111/sentinel/faction"

// Detector configures the periodic faction scan for an entity. The live
// classifier is owned by the detection system; edits to this component are
// picked up on the next tick.
type Detector struct {
	DetectionRange float64
	AttackRange    float64
	AvoidRange     float64
	// DetectionRate is the number of seconds between scans.
	DetectionRate float64
	Allies        []faction.ID
	Enemies       []faction.ID

	// Revision is bumped whenever the fields above change.
	Revision int
}

var DetectorComponent = NewComponent[Detector]()
