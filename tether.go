package tether

import "math"

// Vec3 is a 3D vector used for world positions, gaze origins, and ray
// directions throughout the API. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// Status colors shared by all status sinks. White for neutral information,
// yellow while an operation is in flight, green on success, red on failure.
var (
	ColorInfo     = Color{1, 1, 1, 1}
	ColorProgress = Color{1, 0.85, 0.2, 1}
	ColorSuccess  = Color{0.3, 0.9, 0.4, 1}
	ColorFailure  = Color{0.95, 0.25, 0.25, 1}
)

// VisualState describes the lifecycle stage a placed visual should reflect.
type VisualState uint8

const (
	VisualPlacing VisualState = iota // just placed, upload not yet finished
	VisualSaved                      // upload succeeded
	VisualFailed                     // upload failed
	VisualLocated                    // resolved from the service in a later session
)

// String returns the lowercase name of the state.
func (s VisualState) String() string {
	switch s {
	case VisualPlacing:
		return "placing"
	case VisualSaved:
		return "saved"
	case VisualFailed:
		return "failed"
	case VisualLocated:
		return "located"
	default:
		return "unknown"
	}
}
