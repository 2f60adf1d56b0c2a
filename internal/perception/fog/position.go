package fog

import "math"

// Position is a point in world space. Positions are supplied by the caller
// per computation; the fog service never queries world state itself.
type Position struct {
	X float64
	Y float64
	Z float64
}

// DistanceTo returns the Euclidean distance to another position.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
