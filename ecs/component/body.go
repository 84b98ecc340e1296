package component

// Body is the entity's footprint in the spatial index plus its steering
// limits.
type Body struct {
	Radius float64
	// Speed is in world units per second.
	Speed float64
}

var BodyComponent = NewComponent[Body]()
