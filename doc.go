// Package tether is a demonstration client core for cloud-backed spatial
// anchors: look at a point, tap to place a marker, upload it to an anchor
// service, and re-locate the same physical point in a later session.
//
// The rendering engine, the gesture input source, and the anchor service are
// external collaborators reached through the interfaces in this package. What
// tether itself provides is the part worth reusing: a thread-safe
// single-consumer [DispatchQueue] and the tap-driven [Controller] state
// machine built on top of it, which together guarantee that every mutation of
// scene state runs on the one thread permitted to touch it.
//
// # Quick start
//
//	queue := tether.NewDispatchQueue()
//	ctrl, err := tether.NewController(tether.Config{
//		Queue:   queue,
//		Scene:   scene,   // your SceneGraph adapter
//		Service: service, // your AnchorService client
//		Status:  status,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Drain one action per frame from the thread that owns the scene, and forward
// taps to the controller from the same thread:
//
//	func (g *Game) Update() error {
//		queue.DrainOne()
//		if tapped {
//			ctrl.OnTap(gazeOrigin, gazeDirection)
//		}
//		return nil
//	}
//
// # Lifecycle
//
// A tap with no anchor outstanding places a visual at the gaze hit point,
// binds a local anchor, and uploads it once the service reports enough
// collected spatial data; a tap with an anchor id recorded resets the session
// and starts a watcher for that id. Callbacks from the service arrive on
// arbitrary goroutines and hand their scene-mutating effects to the queue.
//
// Ready-made collaborators live in the subpackages: tether/sim (deterministic
// in-memory service and scene), tether/ebitenscene (Ebitengine top-down
// adapter), tether/cloud (HTTP + WebSocket service client), and tether/anchord
// (embeddable development anchor server).
package tether
