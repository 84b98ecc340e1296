package component

import "github.com/jakecoffman/cp"

// Transform is an entity's world-space placement.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

// Position returns the transform origin as a vector.
func (t Transform) Position() cp.Vector {
	return cp.Vector{X: t.X, Y: t.Y}
}

// SetPosition moves the transform origin to p.
func (t *Transform) SetPosition(p cp.Vector) {
	t.X = p.X
	t.Y = p.Y
}

var TransformComponent = NewComponent[Transform]()
