package stream

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/telemetry"
)

// Simulation is the part of a model the server drives.
type Simulation interface {
	Step()
	Running() bool
	Stop()
	Config() *config.Config
	Recorder() *telemetry.Recorder
}

// Server steps a simulation on a fixed interval and serves it over HTTP.
// Only the Run goroutine touches the simulation; handlers read the recorder,
// which is safe for concurrent use.
type Server struct {
	sim      Simulation
	hub      *Hub
	interval time.Duration
	engine   *gin.Engine

	paused  atomic.Bool
	stopped atomic.Bool
}

// NewServer creates a server and attaches its websocket hub to the
// simulation's recorder.
func NewServer(sim Simulation, interval time.Duration) *Server {
	s := &Server{sim: sim, interval: interval}
	s.hub = NewHub(s.hello, s.command)
	sim.Recorder().AddSink(s.hub)

	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	s.attachRoutes(g)
	s.engine = g
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) attachRoutes(g *gin.Engine) {
	g.GET("/series", s.series)
	g.GET("/series/last", s.last)
	g.GET("/agents", s.agents)
	g.GET("/bookmarks", s.bookmarks)
	g.GET("/config", s.showConfig)
	g.GET("/status", s.status)
	g.POST("/pause", func(c *gin.Context) { s.command(TypePause); s.status(c) })
	g.POST("/resume", func(c *gin.Context) { s.command(TypeResume); s.status(c) })
	g.POST("/stop", func(c *gin.Context) { s.command(TypeStop); s.status(c) })
	g.GET("/ws", func(c *gin.Context) { s.hub.ServeWS(c.Writer, c.Request) })
}

func (s *Server) series(c *gin.Context) {
	rec := s.sim.Recorder()
	since := c.Query("since")
	if since == "" {
		c.JSON(http.StatusOK, rec.Series())
		return
	}
	n, err := strconv.Atoi(since)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "since must be a non-negative integer"})
		return
	}
	steps := rec.Since(n)
	if steps == nil {
		steps = []telemetry.StepStats{}
	}
	c.JSON(http.StatusOK, steps)
}

func (s *Server) last(c *gin.Context) {
	stats, ok := s.sim.Recorder().Last()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "no steps recorded"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) agents(c *gin.Context) {
	rows := s.sim.Recorder().LastAgents()
	if rows == nil {
		rows = []telemetry.AgentRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) bookmarks(c *gin.Context) {
	marks := s.sim.Recorder().Bookmarks()
	if marks == nil {
		marks = []telemetry.Bookmark{}
	}
	c.JSON(http.StatusOK, marks)
}

func (s *Server) showConfig(c *gin.Context) {
	data, err := s.sim.Config().Marshal()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/yaml", data)
}

func (s *Server) status(c *gin.Context) {
	step := int32(-1)
	if last, ok := s.sim.Recorder().Last(); ok {
		step = last.Step
	}
	c.JSON(http.StatusOK, gin.H{
		"step":          step,
		"paused":        s.paused.Load(),
		"stopped":       s.stopped.Load(),
		"clients":       s.hub.Clients(),
		"steps_per_sec": s.sim.Recorder().Perf().StepsPerSecond,
	})
}

func (s *Server) hello() Message {
	cfg := s.sim.Config()
	return Message{
		Type:   TypeHello,
		Grid:   &GridInfo{Width: cfg.Grid.Width, Height: cfg.Grid.Height},
		Series: s.sim.Recorder().Series(),
	}
}

func (s *Server) command(cmd string) {
	switch cmd {
	case TypePause:
		s.paused.Store(true)
	case TypeResume:
		s.paused.Store(false)
	case TypeStop:
		s.stopped.Store(true)
	}
	slog.Info("stream command", "command", cmd)
}

// Run steps the simulation every interval until ctx is done, a client asks
// to stop, or steps steps have run (0 means no limit). The simulation is
// stopped on return.
func (s *Server) Run(ctx context.Context, steps int) error {
	defer s.sim.Stop()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for done := 0; steps == 0 || done < steps; {
		if s.stopped.Load() || !s.sim.Running() {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if s.paused.Load() {
			if tick == nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
			}
			continue
		}
		s.sim.Step()
		done++
	}
	return nil
}

// ListenAndServe serves HTTP on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
