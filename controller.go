package tether

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// State identifies where a Controller is in the anchor lifecycle.
type State uint8

const (
	StateIdle                State = iota // no anchor id known, ready for a placement tap
	StateAwaitingData                     // visual placed, waiting for readiness to reach 1.0
	StateUploading                        // upload call in flight
	StatePlaced                           // upload succeeded, ready for a locate tap
	StateResettingForLocate               // tearing down and recreating the session
	StateLocating                         // a locate watcher is active
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingData:
		return "awaiting-data"
	case StateUploading:
		return "uploading"
	case StatePlaced:
		return "placed"
	case StateResettingForLocate:
		return "resetting-for-locate"
	case StateLocating:
		return "locating"
	default:
		return "unknown"
	}
}

// ErrEmptyIdentifier is reported when the service claims a successful upload
// but returns no anchor identifier. Treated as an upload failure.
var ErrEmptyIdentifier = errors.New("anchor service returned success with no identifier")

const (
	// DefaultPollInterval is how often the upload sequence samples readiness.
	DefaultPollInterval = 20 * time.Millisecond
	// DefaultMaxRayRange is the distance along the gaze ray at which a visual
	// is placed when the raycast hits nothing.
	DefaultMaxRayRange = 10.0
)

// Config carries the collaborators and tuning knobs for a Controller.
// Queue, Scene, and Service are required.
type Config struct {
	Queue   *DispatchQueue
	Scene   SceneGraph
	Service AnchorService
	// Status receives progress and error text. Optional; discarded when nil.
	Status StatusSink
	// Clock drives the upload readiness poll. Defaults to the real clock.
	Clock clockwork.Clock
	// PollInterval between readiness samples. Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// MaxRayRange for the raycast-miss fallback. Defaults to DefaultMaxRayRange.
	MaxRayRange float64
}

// Controller sequences place → upload → locate → reset against the anchor
// service. It exclusively owns the current visual and the active session
// handle; both are only touched from the consumer thread, with every
// callback-originated mutation routed through the dispatch queue.
//
// OnTap and DeleteCurrent must be called from the consumer thread. Session
// callbacks arrive on arbitrary goroutines and are safe as wired by
// NewController.
type Controller struct {
	queue        *DispatchQueue
	scene        SceneGraph
	svc          AnchorService
	status       StatusSink
	clock        clockwork.Clock
	pollInterval time.Duration
	maxRayRange  float64

	mu         sync.Mutex
	state      State
	anchorID   string
	tapLatched bool

	// Consumer-thread-only. Exclusively owned; replaced on every reset.
	session Session
	visual  Visual

	// Written solely by the service's progress callback, read by the upload
	// poll loop. Stored as float bits.
	readiness atomic.Uint64
}

// NewController creates a controller, opens its first session, and starts it.
// A session-creation failure (typically missing credentials) is fatal: it is
// surfaced on the status sink and returned.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Queue == nil || cfg.Scene == nil || cfg.Service == nil {
		return nil, errors.New("tether: Config.Queue, Config.Scene, and Config.Service are required")
	}
	if cfg.Status == nil {
		cfg.Status = nopStatus{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxRayRange <= 0 {
		cfg.MaxRayRange = DefaultMaxRayRange
	}

	c := &Controller{
		queue:        cfg.Queue,
		scene:        cfg.Scene,
		svc:          cfg.Service,
		status:       cfg.Status,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		maxRayRange:  cfg.MaxRayRange,
	}

	sess, err := c.svc.CreateSession()
	if err != nil {
		c.status.SetStatusText(fmt.Sprintf("Session init failed: %v", err), ColorFailure)
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.SetCallbacks(c.callbacks())
	sess.Start()
	c.session = sess
	return c, nil
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AnchorID returns the identifier of the current cloud anchor, or "" when no
// anchor is outstanding.
func (c *Controller) AnchorID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchorID
}

// TapLatched reports whether taps are currently ignored.
func (c *Controller) TapLatched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tapLatched
}

// Readiness returns the last upload readiness reported by the service.
func (c *Controller) Readiness() float64 {
	return math.Float64frombits(c.readiness.Load())
}

// OnTap handles a tap carrying the gaze ray at the moment of the tap.
// Taps are ignored while a previous tap's operation is still in flight.
// With no anchor outstanding a tap places a new one; with an anchor id
// recorded it starts a locate for that id.
func (c *Controller) OnTap(gazeOrigin, gazeDirection Vec3) {
	c.mu.Lock()
	if c.tapLatched {
		c.mu.Unlock()
		return
	}
	c.tapLatched = true
	id := c.anchorID
	c.mu.Unlock()

	if id == "" {
		c.beginPlacement(gazeOrigin, gazeDirection)
	} else {
		c.beginLocate(id)
	}
}

// beginPlacement runs on the consumer thread: it owns the visual directly and
// hands the rest of the flow to a background upload goroutine.
func (c *Controller) beginPlacement(origin, dir Vec3) {
	if c.visual != nil {
		c.scene.DestroyVisual(c.visual)
		c.visual = nil
	}

	point, ok := c.scene.Raycast(origin, dir)
	if !ok {
		// Nothing along the gaze: place at maximum range instead.
		point = origin.Add(dir.Normalize().Scale(c.maxRayRange))
	}

	v := c.scene.CreateVisual(point)
	v.SetState(VisualPlacing)
	c.visual = v
	local := c.scene.BindLocalAnchor(v)

	c.setState(StateAwaitingData)
	c.status.SetStatusText("Collecting environment data...", ColorProgress)

	// The session and visual are captured here: a reset that replaces
	// c.session does not cancel this upload (see DESIGN.md on cancellation),
	// and the queued visual effects must not leak onto a replacement visual.
	go c.uploadLoop(c.session, v, &AnchorRecord{LocalAnchor: local, Pose: point})
}

// uploadLoop polls readiness until the service reports enough collected data,
// then uploads the record. Runs on a background goroutine; every visual
// mutation is enqueued, never executed in place. The queued effects apply to
// the visual this upload was started for: taps unlatch before the queue
// drains, so by the time an action runs the controller may already own a
// newer visual, which a stale action must leave alone.
func (c *Controller) uploadLoop(sess Session, v Visual, rec *AnchorRecord) {
	for c.Readiness() < 1.0 {
		c.clock.Sleep(c.pollInterval)
	}

	c.setState(StateUploading)
	c.status.SetStatusText("Uploading anchor...", ColorProgress)

	id, err := sess.CreateAnchor(context.Background(), rec)
	if err == nil && id == "" {
		err = ErrEmptyIdentifier
	}
	if err != nil {
		errorf("anchor upload failed: %v", err)
		c.mu.Lock()
		c.anchorID = ""
		c.tapLatched = false
		c.state = StateIdle
		c.mu.Unlock()
		c.status.SetStatusText(fmt.Sprintf("Save failed: %v", err), ColorFailure)
		c.queue.Enqueue(func() {
			if c.visual == v {
				v.SetState(VisualFailed)
			}
		})
		return
	}

	c.mu.Lock()
	c.anchorID = id
	c.tapLatched = false
	c.state = StatePlaced
	c.mu.Unlock()
	c.status.SetStatusText(fmt.Sprintf("Saved anchor %s. Tap again to locate it.", id), ColorSuccess)
	c.queue.Enqueue(func() {
		if c.visual == v {
			v.SetState(VisualSaved)
		}
	})
}

// beginLocate tears the session down and, strictly after the queued disposal
// has run, creates a watcher for the recorded anchor id.
func (c *Controller) beginLocate(id string) {
	c.setState(StateResettingForLocate)
	c.status.SetStatusText("Resetting session before locate...", ColorProgress)
	c.resetSession(func() {
		c.startWatcher(id)
	})
}

// resetSession discards the current visual and enqueues the stop, reset, and
// disposal of the active session followed by its replacement. onDone runs on
// the consumer thread and observes a fully disposed old session and a fresh,
// started one. Must be called from the consumer thread.
func (c *Controller) resetSession(onDone func()) {
	if n := c.session.ActiveWatcherCount(); n > 0 {
		warnf("session reset with %d watcher(s) still active; they are not cancelled", n)
	}
	if c.visual != nil {
		c.scene.DestroyVisual(c.visual)
		c.visual = nil
	}

	old := c.session
	c.queue.Enqueue(func() {
		old.Stop()
		old.Reset()
		old.Dispose()

		sess, err := c.svc.CreateSession()
		if err != nil {
			errorf("session re-init failed: %v", err)
			c.status.SetStatusText(fmt.Sprintf("Session init failed: %v", err), ColorFailure)
			c.rollback()
			return
		}
		c.readiness.Store(0)
		sess.SetCallbacks(c.callbacks())
		sess.Start()
		c.session = sess

		if onDone != nil {
			onDone()
		}
	})
}

// startWatcher runs on the consumer thread, after a completed session reset.
func (c *Controller) startWatcher(id string) {
	w, err := c.session.CreateWatcher(WatchCriteria{Identifiers: []string{id}})
	if err != nil {
		errorf("watcher creation failed: %v", err)
		c.status.SetStatusText(fmt.Sprintf("Locate failed: %v", err), ColorFailure)
		c.rollback()
		return
	}
	logf("watcher %s locating anchor %s", w.ID(), id)
	c.setState(StateLocating)
	c.status.SetStatusText(fmt.Sprintf("Locating anchor %s...", id), ColorProgress)
}

// DeleteCurrent removes the current cloud anchor from the service and returns
// the controller to idle. No-op unless an anchor has been placed and no other
// operation is in flight. Must be called from the consumer thread.
func (c *Controller) DeleteCurrent() {
	c.mu.Lock()
	if c.state != StatePlaced || c.anchorID == "" || c.tapLatched {
		c.mu.Unlock()
		return
	}
	c.tapLatched = true
	id := c.anchorID
	c.mu.Unlock()

	sess := c.session
	v := c.visual
	c.status.SetStatusText(fmt.Sprintf("Deleting anchor %s...", id), ColorProgress)
	go func() {
		if err := sess.DeleteAnchor(context.Background(), id); err != nil {
			errorf("anchor delete failed: %v", err)
			c.status.SetStatusText(fmt.Sprintf("Delete failed: %v", err), ColorFailure)
			c.mu.Lock()
			c.tapLatched = false
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.anchorID = ""
		c.tapLatched = false
		c.state = StateIdle
		c.mu.Unlock()
		c.status.SetStatusText(fmt.Sprintf("Deleted anchor %s", id), ColorSuccess)
		c.queue.Enqueue(func() {
			if v != nil && c.visual == v {
				c.scene.DestroyVisual(v)
				c.visual = nil
			}
		})
	}()
}

// callbacks wires the session's named events to the controller's handlers.
func (c *Controller) callbacks() SessionCallbacks {
	return SessionCallbacks{
		OnProgressUpdated: c.handleProgress,
		OnAnchorLocated:   c.handleLocated,
		OnLocateCompleted: c.handleLocateCompleted,
		OnError:           c.handleSessionError,
	}
}

func (c *Controller) handleProgress(v float64) {
	c.readiness.Store(math.Float64bits(v))
	c.mu.Lock()
	collecting := c.state == StateAwaitingData
	c.mu.Unlock()
	if collecting && v < 1 {
		c.status.SetStatusText(fmt.Sprintf("Collecting environment data %3.0f%%...", v*100), ColorProgress)
	}
}

func (c *Controller) handleLocated(ev LocateEvent) {
	switch ev.Status {
	case LocateStatusLocated:
		rec := ev.Record
		if rec == nil {
			// Contract violation by the service: a located event must carry
			// the resolved record. Keep the current visual and stay latched
			// rather than act on a pose that does not exist.
			errorf("located event for anchor %s carried no record; ignoring", ev.Identifier)
			return
		}
		c.queue.Enqueue(func() {
			if c.visual != nil {
				c.scene.DestroyVisual(c.visual)
				c.visual = nil
			}
			v := c.scene.CreateVisual(rec.Pose)
			if rec.LocalAnchor != nil {
				c.scene.SetLocalAnchor(v, rec.LocalAnchor)
			}
			v.SetState(VisualLocated)
			c.visual = v

			c.mu.Lock()
			c.anchorID = ""
			c.tapLatched = false
			c.state = StateIdle
			c.mu.Unlock()
			c.status.SetStatusText(fmt.Sprintf("Located anchor %s. Tap to place a new one.", ev.Identifier), ColorSuccess)
		})
	case LocateStatusAlreadyTracked:
		logf("anchor %s already tracked", ev.Identifier)
	case LocateStatusNotLocated:
		logf("anchor %s not located yet", ev.Identifier)
	case LocateStatusNotLocatedAnchorDoesNotExist:
		// The controller stays in Locating with taps latched. There is no
		// timeout or retry for a locate that will never succeed.
		errorf("anchor %s does not exist on the service", ev.Identifier)
		c.status.SetStatusText(fmt.Sprintf("Anchor %s does not exist", ev.Identifier), ColorFailure)
	}
}

func (c *Controller) handleLocateCompleted(watcherID string) {
	logf("watcher %s completed its locate batch", watcherID)
}

func (c *Controller) handleSessionError(msg string) {
	errorf("session error: %s", msg)
	c.status.SetStatusText(msg, ColorFailure)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// rollback returns to the state implied by whether an anchor id is recorded
// and unlatches taps so the user can retry.
func (c *Controller) rollback() {
	c.mu.Lock()
	if c.anchorID == "" {
		c.state = StateIdle
	} else {
		c.state = StatePlaced
	}
	c.tapLatched = false
	c.mu.Unlock()
}

type nopStatus struct{}

func (nopStatus) SetStatusText(string, Color) {}
