package cloud

import "github.com/phanxgames/tether"

// Wire types mirror the anchord protocol; the packages deliberately do not
// share them so that the client compiles against the wire contract, not the
// server's internals.

type poseJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func poseFromVec(v tether.Vec3) poseJSON {
	return poseJSON{X: v.X, Y: v.Y, Z: v.Z}
}

func (p poseJSON) vec() tether.Vec3 {
	return tether.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

type createAnchorRequest struct {
	Pose poseJSON `json:"pose"`
}

type anchorResponse struct {
	ID   string   `json:"id"`
	Pose poseJSON `json:"pose"`
}

type streamCommand struct {
	Op        string   `json:"op"`
	WatcherID string   `json:"watcher_id"`
	IDs       []string `json:"ids,omitempty"`
}

type streamEvent struct {
	Event     string    `json:"event"`
	WatcherID string    `json:"watcher_id"`
	ID        string    `json:"id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Pose      *poseJSON `json:"pose,omitempty"`
}

func parseLocateStatus(s string) tether.LocateStatus {
	switch s {
	case "Located":
		return tether.LocateStatusLocated
	case "AlreadyTracked":
		return tether.LocateStatusAlreadyTracked
	case "NotLocatedAnchorDoesNotExist":
		return tether.LocateStatusNotLocatedAnchorDoesNotExist
	default:
		return tether.LocateStatusNotLocated
	}
}
