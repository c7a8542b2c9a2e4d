// Package frame converts ephemeris vectors from the data server's native
// coordinate convention into the one the 3D viewer expects.  The data
// server is Y-up with kilometre-scale units while the viewer is Z-forward
// with unit-scale coordinates, so every position needs one axis swap and
// one division.  Everything here is pure; validation of upstream payloads
// happens in pkg/ephemeris before these functions ever see a value.
package frame

// viewerScale divides raw upstream units down to viewer units.
const viewerScale = 1000

// Vec3 is a rectangular position.  Field tags follow the upstream JSON so
// the same type can decode provider envelopes and encode API responses.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation describes a body's orientation as an axis plus an angle,
// mirroring the data server's target-rotation payload.
type Rotation struct {
	Axis  [3]float64 `json:"rotation_axis"`
	Angle float64    `json:"angle"`
}

// ToViewer maps a raw upstream vector into the viewer frame: the upstream
// Z axis becomes viewer Y, upstream Y becomes negative viewer Z, and every
// component is scaled down.  Apply exactly once per upstream value; a
// second application corrupts both axis order and scale.
func (v Vec3) ToViewer() Vec3 {
	return Vec3{
		X: v.X / viewerScale,
		Y: v.Z / viewerScale,
		Z: -v.Y / viewerScale,
	}
}

// FromViewer undoes ToViewer, mapping a viewer-frame vector back into the
// upstream convention.  The client needs this when translating picked
// scene points back into provider coordinates.
func (v Vec3) FromViewer() Vec3 {
	return Vec3{
		X: v.X * viewerScale,
		Y: -v.Z * viewerScale,
		Z: v.Y * viewerScale,
	}
}

// ToViewer swaps the last two axis components with a sign flip so the
// rotation axis matches the viewer's handedness.  The first component and
// the angle are already compatible and pass through untouched.
func (r Rotation) ToViewer() Rotation {
	return Rotation{
		Axis:  [3]float64{r.Axis[0], r.Axis[2], -r.Axis[1]},
		Angle: r.Angle,
	}
}

// FromViewer undoes ToViewer.
func (r Rotation) FromViewer() Rotation {
	return Rotation{
		Axis:  [3]float64{r.Axis[0], -r.Axis[2], r.Axis[1]},
		Angle: r.Angle,
	}
}
