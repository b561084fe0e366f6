// Package sim provides deterministic in-memory implementations of the anchor
// service and scene collaborators. The service ramps upload readiness on a
// clock, stores anchors in process memory, and resolves watchers after a
// configurable delay, which makes it suitable for offline demos and for tests
// driven by a fake clock.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/phanxgames/tether"
)

const (
	defaultReadinessStep = 0.25
	defaultRampInterval  = 50 * time.Millisecond
	defaultLocateDelay   = 100 * time.Millisecond
)

// Config tunes the simulated service. The zero value is usable.
type Config struct {
	// Clock drives readiness ramping and locate delays. Defaults to the real
	// clock; pass a clockwork fake in tests.
	Clock clockwork.Clock
	// ReadinessStep is added to readiness on every ramp tick.
	ReadinessStep float64
	// RampInterval between readiness ticks.
	RampInterval time.Duration
	// LocateDelay before a watcher reports each anchor.
	LocateDelay time.Duration
}

// Service is an in-memory tether.AnchorService. Anchors survive session
// resets, so a place → reset → locate cycle behaves like the real thing.
type Service struct {
	clock clockwork.Clock
	cfg   Config

	mu      sync.Mutex
	anchors map[string]storedAnchor
}

type storedAnchor struct {
	id   string
	pose tether.Vec3
}

// NewService creates a simulated anchor service.
func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.ReadinessStep <= 0 {
		cfg.ReadinessStep = defaultReadinessStep
	}
	if cfg.RampInterval <= 0 {
		cfg.RampInterval = defaultRampInterval
	}
	if cfg.LocateDelay <= 0 {
		cfg.LocateDelay = defaultLocateDelay
	}
	return &Service{
		clock:   cfg.Clock,
		cfg:     cfg,
		anchors: make(map[string]storedAnchor),
	}
}

// CreateSession returns a fresh session. It never fails; the simulator has no
// credentials to be missing.
func (s *Service) CreateSession() (tether.Session, error) {
	return &session{svc: s}, nil
}

// AnchorCount returns the number of anchors currently stored.
func (s *Service) AnchorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.anchors)
}

func (s *Service) put(a storedAnchor) {
	s.mu.Lock()
	s.anchors[a.id] = a
	s.mu.Unlock()
}

func (s *Service) lookup(id string) (storedAnchor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.anchors[id]
	return a, ok
}

func (s *Service) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[id]; !ok {
		return false
	}
	delete(s.anchors, id)
	return true
}

type session struct {
	svc *Service

	mu       sync.Mutex
	cb       tether.SessionCallbacks
	ready    float64
	stop     chan struct{}
	active   int
	disposed bool
}

func (s *session) SetCallbacks(cb tether.SessionCallbacks) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

func (s *session) callbacks() tether.SessionCallbacks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cb
}

// Start begins ramping readiness toward 1.0 on the configured clock.
func (s *session) Start() {
	s.mu.Lock()
	if s.stop != nil || s.disposed {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()
	go s.ramp(stop)
}

func (s *session) ramp(stop chan struct{}) {
	ticker := s.svc.clock.NewTicker(s.svc.cfg.RampInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.mu.Lock()
			s.ready += s.svc.cfg.ReadinessStep
			if s.ready > 1 {
				s.ready = 1
			}
			r := s.ready
			s.mu.Unlock()

			if cb := s.callbacks(); cb.OnProgressUpdated != nil {
				cb.OnProgressUpdated(r)
			}
			if r >= 1 {
				return
			}
		}
	}
}

func (s *session) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
}

// Reset discards collected spatial data; readiness starts over from zero.
func (s *session) Reset() {
	s.mu.Lock()
	s.ready = 0
	s.mu.Unlock()
}

func (s *session) Dispose() {
	s.Stop()
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

func (s *session) readiness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// CreateAnchor stores the record and returns a fresh identifier. Fails when
// not enough spatial data has been collected, like the real service.
func (s *session) CreateAnchor(ctx context.Context, rec *tether.AnchorRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.readiness() < 1 {
		return "", fmt.Errorf("insufficient spatial data (readiness %.2f)", s.readiness())
	}
	pose := rec.Pose
	if rec.LocalAnchor != nil {
		pose = rec.LocalAnchor.AnchorPose()
	}
	id := uuid.NewString()
	s.svc.put(storedAnchor{id: id, pose: pose})
	return id, nil
}

func (s *session) DeleteAnchor(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.svc.remove(id) {
		return fmt.Errorf("anchor %s not found", id)
	}
	return nil
}

// CreateWatcher resolves each requested identifier after the configured
// locate delay, then reports batch completion.
func (s *session) CreateWatcher(c tether.WatchCriteria) (tether.Watcher, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, fmt.Errorf("session is disposed")
	}
	s.active++
	s.mu.Unlock()

	w := watcher{id: uuid.NewString()[:8]}
	go s.locate(w, c)
	return w, nil
}

func (s *session) locate(w watcher, c tether.WatchCriteria) {
	for _, id := range c.Identifiers {
		s.svc.clock.Sleep(s.svc.cfg.LocateDelay)

		cb := s.callbacks()
		if cb.OnAnchorLocated == nil {
			continue
		}
		if a, ok := s.svc.lookup(id); ok {
			cb.OnAnchorLocated(tether.LocateEvent{
				Status:     tether.LocateStatusLocated,
				Identifier: a.id,
				Record: &tether.AnchorRecord{
					Identifier:  a.id,
					LocalAnchor: pin{pos: a.pose},
					Pose:        a.pose,
				},
			})
		} else {
			cb.OnAnchorLocated(tether.LocateEvent{
				Status:     tether.LocateStatusNotLocatedAnchorDoesNotExist,
				Identifier: id,
			})
		}
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	if cb := s.callbacks(); cb.OnLocateCompleted != nil {
		cb.OnLocateCompleted(w.id)
	}
}

func (s *session) ActiveWatcherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

type watcher struct{ id string }

func (w watcher) ID() string { return w.id }
func (w watcher) Stop()      {}
