package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/phanxgames/tether"
)

// remotePin is the local-anchor handle for a pose resolved from the service.
type remotePin struct {
	pos tether.Vec3
}

func (p remotePin) AnchorPose() tether.Vec3 { return p.pos }

type session struct {
	cfg  Config
	conn *websocket.Conn

	mu       sync.Mutex
	cb       tether.SessionCallbacks
	ready    float64
	stop     chan struct{}
	active   int
	watchSeq int

	closeOnce sync.Once
	closed    chan struct{}

	writeMu sync.Mutex
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

// Start begins the readiness ramp. Event delivery from the stream is already
// live from session creation; readiness is what Start gates.
func (s *session) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()
	go s.ramp(stop)
}

func (s *session) ramp(stop chan struct{}) {
	ticker := s.cfg.Clock.NewTicker(s.cfg.RampInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-s.closed:
			return
		case <-ticker.Chan():
			s.mu.Lock()
			s.ready += s.cfg.ReadinessStep
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

// Reset discards collected data; readiness starts over on the next Start.
func (s *session) Reset() {
	s.mu.Lock()
	s.ready = 0
	s.mu.Unlock()
}

// Dispose stops the ramp and closes the stream connection.
func (s *session) Dispose() {
	s.Stop()
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// CreateAnchor uploads the record's pose and returns the server-assigned id.
func (s *session) CreateAnchor(ctx context.Context, rec *tether.AnchorRecord) (string, error) {
	pose := rec.Pose
	if rec.LocalAnchor != nil {
		pose = rec.LocalAnchor.AnchorPose()
	}
	var created anchorResponse
	err := s.doJSON(ctx, http.MethodPost, "/v1/anchors",
		createAnchorRequest{Pose: poseFromVec(pose)}, &created, http.StatusCreated)
	if err != nil {
		return "", fmt.Errorf("create anchor: %w", err)
	}
	return created.ID, nil
}

// DeleteAnchor removes the server-side anchor.
func (s *session) DeleteAnchor(ctx context.Context, id string) error {
	err := s.doJSON(ctx, http.MethodDelete, "/v1/anchors/"+id, nil, nil, http.StatusNoContent)
	if err != nil {
		return fmt.Errorf("delete anchor %s: %w", id, err)
	}
	return nil
}

// CreateWatcher sends a watch command on the stream. Results arrive through
// the session callbacks.
func (s *session) CreateWatcher(c tether.WatchCriteria) (tether.Watcher, error) {
	s.mu.Lock()
	s.watchSeq++
	id := fmt.Sprintf("w%d", s.watchSeq)
	s.active++
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(streamCommand{Op: "watch", WatcherID: id, IDs: c.Identifiers})
	s.writeMu.Unlock()
	if err != nil {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		return nil, fmt.Errorf("send watch command: %w", err)
	}
	return watcher{id: id}, nil
}

func (s *session) ActiveWatcherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// readLoop dispatches stream pushes to the registered callbacks until the
// connection closes.
func (s *session) readLoop() {
	for {
		var ev streamEvent
		if err := s.conn.ReadJSON(&ev); err != nil {
			select {
			case <-s.closed:
				// Disposed; a read error is expected.
			default:
				if cb := s.callbacks(); cb.OnError != nil {
					cb.OnError(fmt.Sprintf("anchor stream lost: %v", err))
				}
			}
			return
		}

		switch ev.Event {
		case "located":
			s.dispatchLocated(ev)
		case "completed":
			s.mu.Lock()
			if s.active > 0 {
				s.active--
			}
			s.mu.Unlock()
			if cb := s.callbacks(); cb.OnLocateCompleted != nil {
				cb.OnLocateCompleted(ev.WatcherID)
			}
		}
	}
}

func (s *session) dispatchLocated(ev streamEvent) {
	cb := s.callbacks()
	if cb.OnAnchorLocated == nil {
		return
	}
	out := tether.LocateEvent{
		Status:     parseLocateStatus(ev.Status),
		Identifier: ev.ID,
	}
	if out.Status == tether.LocateStatusLocated && ev.Pose != nil {
		pos := ev.Pose.vec()
		out.Record = &tether.AnchorRecord{
			Identifier:  ev.ID,
			LocalAnchor: remotePin{pos: pos},
			Pose:        pos,
		}
	}
	cb.OnAnchorLocated(out)
}

// doJSON performs one HTTP round trip with the account key attached.
func (s *session) doJSON(ctx context.Context, method, path string, in, out any, wantStatus int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccountKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type watcher struct{ id string }

func (w watcher) ID() string { return w.id }

// Stop is a no-op: the stream protocol has no watcher cancellation.
func (w watcher) Stop() {}
