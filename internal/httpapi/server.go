// Package httpapi wires the Request Orchestrator onto HTTP using Fiber, in
// the teacher's own style (fiber.Config timeouts/body limit, fiber.NewError
// for status-coded failures, no middleware beyond what is needed).
package httpapi

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TKach1/image-reconstruction-go/internal/orchestrator"
	"github.com/TKach1/image-reconstruction-go/internal/statusprobe"
)

// Config controls the Fiber app's transport-level limits.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int
}

// Server adapts the Orchestrator and Status Probe onto Fiber routes.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	probe        *statusprobe.Probe

	started  time.Time
	inflight int64
}

// New constructs a Server. Call Server.App to obtain the *fiber.App to
// Listen on.
func New(o *orchestrator.Orchestrator, probe *statusprobe.Probe) *Server {
	return &Server{orchestrator: o, probe: probe, started: time.Now()}
}

// App builds the Fiber application with all routes registered.
func (s *Server) App(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.MaxBodyBytes,
	})

	app.Post("/reconstruct", s.handleReconstruct)
	app.Get("/status", s.handleStatus)
	app.Get("/health", s.handleHealth)

	return app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"uptime_s": time.Since(s.started).Seconds(),
		"inflight": atomic.LoadInt64(&s.inflight),
	})
}
