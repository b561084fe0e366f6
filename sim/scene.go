package sim

import "github.com/phanxgames/tether"

// pin is the simulator's device-local anchor: a fixed world position.
type pin struct {
	pos tether.Vec3
}

func (p pin) AnchorPose() tether.Vec3 { return p.pos }

// Scene is a headless tether.SceneGraph. The only geometry is an infinite
// ground plane at Y = 0; visuals are plain position-and-state records.
// Like any scene graph, its methods must only be called from the consumer
// thread.
type Scene struct {
	visuals []*Visual
}

// NewScene creates an empty headless scene.
func NewScene() *Scene {
	return &Scene{}
}

// Raycast intersects the ray with the ground plane at Y = 0.
func (s *Scene) Raycast(origin, dir tether.Vec3) (tether.Vec3, bool) {
	if dir.Y == 0 {
		return tether.Vec3{}, false
	}
	t := -origin.Y / dir.Y
	if t <= 0 {
		return tether.Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}

// CreateVisual adds a marker at pos.
func (s *Scene) CreateVisual(pos tether.Vec3) tether.Visual {
	v := &Visual{pos: pos}
	s.visuals = append(s.visuals, v)
	return v
}

// DestroyVisual removes the marker from the scene.
func (s *Scene) DestroyVisual(v tether.Visual) {
	for i, sv := range s.visuals {
		if sv == v {
			s.visuals = append(s.visuals[:i], s.visuals[i+1:]...)
			return
		}
	}
}

// BindLocalAnchor pins the visual at its current position.
func (s *Scene) BindLocalAnchor(v tether.Visual) tether.LocalAnchor {
	return pin{pos: v.Pose()}
}

// SetLocalAnchor re-pins the visual to the anchor's pose.
func (s *Scene) SetLocalAnchor(v tether.Visual, a tether.LocalAnchor) {
	v.(*Visual).pos = a.AnchorPose()
	v.(*Visual).anchor = a
}

// Visuals returns the markers currently alive, in creation order.
func (s *Scene) Visuals() []*Visual {
	return s.visuals
}

// Visual is a headless marker.
type Visual struct {
	pos    tether.Vec3
	state  tether.VisualState
	anchor tether.LocalAnchor
}

// SetState records the lifecycle stage.
func (v *Visual) SetState(state tether.VisualState) { v.state = state }

// Pose returns the marker's world position.
func (v *Visual) Pose() tether.Vec3 { return v.pos }

// State returns the last state set on the marker.
func (v *Visual) State() tether.VisualState { return v.state }
