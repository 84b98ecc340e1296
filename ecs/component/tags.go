package component

// Name is a human readable label, usually "<squad>#<n>".
type Name struct {
	Squad string
	Value string
}

var NameComponent = NewComponent[Name]()

// Wander holds per-entity idle steering state.
type Wander struct {
	Seed  float64
	Phase float64
}

var WanderComponent = NewComponent[Wander]()
