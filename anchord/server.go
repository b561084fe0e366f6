// Package anchord is an embeddable development anchor server: the service
// side of the tether/cloud client. It stores uploaded anchors (in memory or
// in Redis) and resolves watcher requests over a WebSocket stream, simulating
// the locate delay of a real spatial-anchor backend.
package anchord

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultLocateDelay = 75 * time.Millisecond

// Config tunes the server. The zero value serves anchors from memory with no
// authentication.
type Config struct {
	// AccountKey, when non-empty, is required from clients as a bearer token.
	AccountKey string
	// Store for anchors. Defaults to an in-memory store.
	Store Store
	// Clock paces the simulated locate delay. Defaults to the real clock.
	Clock clockwork.Clock
	// LocateDelay before each watcher result is pushed.
	LocateDelay time.Duration
	// LogRequests enables echo's request logging middleware.
	LogRequests bool
}

// Server is the development anchor service.
type Server struct {
	cfg   Config
	e     *echo.Echo
	store Store
	clock clockwork.Clock
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dev server accepts any origin; it has no browser surface to protect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// New creates a server. Call Start or mount Handler on a listener of your own.
func New(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.LocateDelay <= 0 {
		cfg.LocateDelay = defaultLocateDelay
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	if cfg.LogRequests {
		e.Use(middleware.Logger())
	}

	s := &Server{cfg: cfg, e: e, store: cfg.Store, clock: cfg.Clock}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	v1 := s.e.Group("/v1", s.requireKey)
	v1.POST("/anchors", s.handleCreateAnchor)
	v1.GET("/anchors/:id", s.handleGetAnchor)
	v1.DELETE("/anchors/:id", s.handleDeleteAnchor)
	v1.GET("/stream", s.handleStream)
}

// Handler returns the server as an http.Handler, for tests and for embedding
// in another mux.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// requireKey enforces the bearer token when an account key is configured.
func (s *Server) requireKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.AccountKey == "" {
			return next(c)
		}
		if c.Request().Header.Get("Authorization") != "Bearer "+s.cfg.AccountKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid account key")
		}
		return next(c)
	}
}

func (s *Server) handleCreateAnchor(c echo.Context) error {
	var req createAnchorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a := Anchor{
		ID:        uuid.NewString(),
		Pose:      req.Pose,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(c.Request().Context(), a); err != nil {
		log.Printf("anchord: store put: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
	}
	return c.JSON(http.StatusCreated, anchorResponse{ID: a.ID, Pose: a.Pose})
}

func (s *Server) handleGetAnchor(c echo.Context) error {
	a, ok, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		log.Printf("anchord: store get: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "anchor not found")
	}
	return c.JSON(http.StatusOK, anchorResponse{ID: a.ID, Pose: a.Pose})
}

func (s *Server) handleDeleteAnchor(c echo.Context) error {
	ok, err := s.store.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		log.Printf("anchord: store delete: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "anchor not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// handleStream upgrades to a WebSocket and serves watch commands until the
// client disconnects. Results are pushed from watcher goroutines through a
// single writer goroutine per connection.
func (s *Server) handleStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("anchord: websocket upgrade: %v", err)
		return nil
	}

	client := newStreamClient(conn)
	defer client.stop()

	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return nil // client went away
		}
		switch cmd.Op {
		case "watch":
			go s.runWatch(client, cmd)
		default:
			log.Printf("anchord: unknown stream op %q", cmd.Op)
		}
	}
}

// runWatch resolves each requested anchor after the configured delay, then
// reports completion.
func (s *Server) runWatch(client *streamClient, cmd streamCommand) {
	for _, id := range cmd.IDs {
		s.clock.Sleep(s.cfg.LocateDelay)

		a, ok, err := s.store.Get(context.Background(), id)
		ev := streamEvent{Event: "located", WatcherID: cmd.WatcherID, ID: id}
		switch {
		case err != nil:
			log.Printf("anchord: store get during watch: %v", err)
			ev.Status = "NotLocated"
		case ok:
			ev.Status = "Located"
			pose := a.Pose
			ev.Pose = &pose
		default:
			ev.Status = "NotLocatedAnchorDoesNotExist"
		}
		client.send(ev)
	}
	client.send(streamEvent{Event: "completed", WatcherID: cmd.WatcherID})
}
