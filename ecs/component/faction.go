package component

import "github.com/milk9111/sentinel/faction"

// Faction tags an entity as detectable and names the group it belongs to.
// It is set at spawn time and never changed.
type Faction struct {
	ID faction.ID
}

var FactionComponent = NewComponent[Faction]()
