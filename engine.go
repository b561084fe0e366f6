package tether

// LocalAnchor is an opaque device-local spatial reference produced by the
// scene graph. It keeps a visual fixed relative to the physical environment
// and carries enough spatial data for a service-side anchor record to be
// built from it.
type LocalAnchor interface {
	// AnchorPose returns the world pose the anchor is pinned to.
	AnchorPose() Vec3
}

// Visual is a marker shown in the scene at a placed or located anchor.
// Visuals are exclusively owned by the controller that created them and are
// only mutated from the consumer thread.
type Visual interface {
	// SetState switches the visual's appearance to reflect a lifecycle stage.
	SetState(state VisualState)
	// Pose returns the visual's current world position.
	Pose() Vec3
}

// SceneGraph is the engine collaborator: everything the controller needs from
// the rendering/scene side. All methods must be called from the consumer
// thread only.
type SceneGraph interface {
	// Raycast casts a ray from origin along dir against the scene and returns
	// the nearest hit point, if any.
	Raycast(origin, dir Vec3) (Vec3, bool)
	// CreateVisual creates a marker at pos and returns its handle.
	CreateVisual(pos Vec3) Visual
	// DestroyVisual removes a previously created marker. Destroying a visual
	// twice is undefined; the controller never does.
	DestroyVisual(v Visual)
	// BindLocalAnchor attaches a device-local anchor to the visual and
	// returns it.
	BindLocalAnchor(v Visual) LocalAnchor
	// SetLocalAnchor attaches anchor data resolved from the service to the
	// visual, replacing any previous binding.
	SetLocalAnchor(v Visual, a LocalAnchor)
}

// StatusSink receives human-readable progress and error text. Fire and
// forget; implementations must tolerate calls from any goroutine.
type StatusSink interface {
	SetStatusText(text string, color Color)
}

// TapHandler receives discrete tap events carrying the gaze ray at the time
// of the tap. Input adapters call it on the consumer thread.
type TapHandler interface {
	OnTap(gazeOrigin, gazeDirection Vec3)
}
