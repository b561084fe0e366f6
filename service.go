package tether

import "context"

// AnchorRecord wraps a local anchor's spatial data for upload, or carries the
// data resolved from the service during a locate.
type AnchorRecord struct {
	// Identifier is empty on upload and filled in on records resolved by a
	// watcher.
	Identifier string
	// LocalAnchor is the device-local anchor the record was built from or
	// resolved to.
	LocalAnchor LocalAnchor
	// Pose is the world pose of the anchor.
	Pose Vec3
}

// WatchCriteria scopes a locate request to a set of anchor identifiers.
type WatchCriteria struct {
	Identifiers []string
}

// LocateStatus classifies the outcome reported for a single anchor by a
// watcher.
type LocateStatus uint8

const (
	LocateStatusLocated                      LocateStatus = iota // anchor resolved, record carries its pose
	LocateStatusAlreadyTracked                                   // anchor was already being tracked locally
	LocateStatusNotLocated                                       // not found yet; the watcher may still report it later
	LocateStatusNotLocatedAnchorDoesNotExist                     // the service has no anchor with this identifier
)

// String returns the CamelCase name the anchor service uses for the status.
func (s LocateStatus) String() string {
	switch s {
	case LocateStatusLocated:
		return "Located"
	case LocateStatusAlreadyTracked:
		return "AlreadyTracked"
	case LocateStatusNotLocated:
		return "NotLocated"
	case LocateStatusNotLocatedAnchorDoesNotExist:
		return "NotLocatedAnchorDoesNotExist"
	default:
		return "Unknown"
	}
}

// LocateEvent is delivered once per anchor a watcher resolves (or fails to).
type LocateEvent struct {
	Status     LocateStatus
	Identifier string
	// Record is non-nil only when Status is LocateStatusLocated.
	Record *AnchorRecord
}

// SessionCallbacks is the named-callback registration for session events.
// Every field is optional. Callbacks fire on arbitrary goroutines owned by
// the service implementation; handlers must not touch scene state directly.
type SessionCallbacks struct {
	// OnProgressUpdated reports upload readiness in [0, 1]. The service is
	// the only writer of this value.
	OnProgressUpdated func(readiness float64)
	// OnAnchorLocated fires once per anchor outcome for active watchers.
	OnAnchorLocated func(ev LocateEvent)
	// OnLocateCompleted fires when a watcher has reported every anchor in
	// its criteria.
	OnLocateCompleted func(watcherID string)
	// OnError reports asynchronous session-level failures.
	OnError func(message string)
}

// Watcher is a service-side subscription that asynchronously reports located
// anchors matching its criteria.
type Watcher interface {
	ID() string
	Stop()
}

// Session is one connection-scoped lifetime of the anchor service. Sessions
// are exclusively owned by a single controller, which disposes and replaces
// the handle on every reset.
type Session interface {
	// Start begins data collection and event delivery.
	Start()
	// Stop halts event delivery. The session may be started again.
	Stop()
	// Reset clears cached spatial data so a subsequent locate searches fresh.
	Reset()
	// Dispose releases the session. No method may be called afterwards.
	Dispose()

	// CreateAnchor uploads the record and returns the identifier assigned by
	// the service. Blocking; never call it from the consumer thread.
	CreateAnchor(ctx context.Context, rec *AnchorRecord) (string, error)
	// DeleteAnchor removes the server-side anchor with the given identifier.
	DeleteAnchor(ctx context.Context, id string) error

	// CreateWatcher registers a locate subscription.
	CreateWatcher(c WatchCriteria) (Watcher, error)
	// ActiveWatcherCount returns the number of watchers that have not yet
	// completed.
	ActiveWatcherCount() int

	// SetCallbacks registers the event handlers. Call before Start.
	SetCallbacks(cb SessionCallbacks)
}

// AnchorService creates sessions. CreateSession fails when the service is
// misconfigured, for example when account credentials are missing.
type AnchorService interface {
	CreateSession() (Session, error)
}
