// Package cloud is the network implementation of the tether anchor-service
// collaborator: anchors are uploaded and deleted over HTTP and watcher
// results arrive over a WebSocket stream, speaking the protocol served by
// tether/anchord.
//
// The capture hardware that feeds upload readiness on a real device is out of
// scope here, so each session ramps its own readiness on a clock once
// started.
package cloud

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/phanxgames/tether"
)

// ErrMissingAccountKey is returned by CreateSession when no credential is
// configured. Fatal; there is no retry.
var ErrMissingAccountKey = errors.New("cloud: account key is not configured")

const (
	defaultTimeout       = 10 * time.Second
	defaultReadinessStep = 0.25
	defaultRampInterval  = 50 * time.Millisecond
)

// Config for the client. BaseURL is required; AccountKey is checked at
// session creation.
type Config struct {
	// BaseURL of the anchor server, e.g. "http://localhost:7880".
	BaseURL string
	// AccountKey sent as a bearer token on every request.
	AccountKey string
	// HTTPClient used for anchor CRUD. Defaults to a 10s-timeout client.
	HTTPClient *http.Client
	// Clock drives the simulated readiness ramp. Defaults to the real clock.
	Clock clockwork.Clock
	// ReadinessStep added per ramp tick.
	ReadinessStep float64
	// RampInterval between readiness ticks.
	RampInterval time.Duration
}

// Client implements tether.AnchorService against an anchor server.
type Client struct {
	cfg Config
}

// New creates a client for the server at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("cloud: base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.ReadinessStep <= 0 {
		cfg.ReadinessStep = defaultReadinessStep
	}
	if cfg.RampInterval <= 0 {
		cfg.RampInterval = defaultRampInterval
	}
	return &Client{cfg: cfg}, nil
}

// CreateSession dials the server's event stream and returns a session.
// Fails when the account key is missing or the stream cannot be reached.
func (c *Client) CreateSession() (tether.Session, error) {
	if c.cfg.AccountKey == "" {
		return nil, ErrMissingAccountKey
	}

	wsURL := "ws" + strings.TrimPrefix(c.cfg.BaseURL, "http") + "/v1/stream"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.AccountKey)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial anchor stream: %w", err)
	}

	s := &session{
		cfg:    c.cfg,
		conn:   conn,
		closed: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}
