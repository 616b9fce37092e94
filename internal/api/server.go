// Package api exposes the pipeline over HTTP: the trigger endpoint the cron
// caller hits, a health probe and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
	"github.com/jonesrussell/gonews/internal/workflow"
)

// Executor runs a workflow; satisfied by *workflow.Runner.
type Executor interface {
	Execute(ctx context.Context, steps []workflow.Step) (workflow.Report, error)
}

// StepBuilder turns canonical stage names into runnable steps.
type StepBuilder func(names []string) ([]workflow.Step, error)

// Options configures the HTTP server.
type Options struct {
	Addr            string
	Debug           bool
	Token           string
	DefaultWorkflow string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// Server hosts the pipeline trigger endpoint.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logger.Logger

	exec            Executor
	build           StepBuilder
	token           string
	defaultWorkflow string
}

// NewServer wires the routes. Trigger requests run synchronously; the write
// timeout must cover a whole pipeline run, so zero disables it.
func NewServer(opts Options, exec Executor, build StepBuilder, log logger.Logger) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:          router,
		log:             log,
		exec:            exec,
		build:           build,
		token:           opts.Token,
		defaultWorkflow: opts.DefaultWorkflow,
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	for _, path := range []string{"/", "/run"} {
		router.GET(path, s.handleRun)
		router.POST(path, s.handleRun)
	}

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Router returns the underlying engine, used by handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// runRequest is the optional POST body of a trigger call.
type runRequest struct {
	Workflow string `json:"workflow"`
}

// handleRun authorizes the caller, resolves the workflow spec and executes
// it synchronously, returning the step report.
func (s *Server) handleRun(c *gin.Context) {
	if !s.authorized(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	spec := s.workflowSpec(c)
	names, err := stage.ParseWorkflow(spec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	steps, err := s.build(names)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("workflow triggered",
		logger.Strings("stages", names),
		logger.String("remote", c.ClientIP()))

	report, err := s.exec.Execute(c.Request.Context(), steps)
	var busy *workflow.BusyError
	switch {
	case errors.As(err, &busy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": busy.Reason})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case !report.OK:
		c.JSON(http.StatusInternalServerError, report)
	default:
		c.JSON(http.StatusOK, report)
	}
}

// authorized accepts the shared secret in the X-Cron-Token header or the key
// query parameter. An empty configured token disables the check.
func (s *Server) authorized(c *gin.Context) bool {
	if s.token == "" {
		return true
	}
	if c.GetHeader("X-Cron-Token") == s.token {
		return true
	}
	return c.Query("key") == s.token
}

// workflowSpec resolves the requested workflow: JSON body, then query
// parameter, then the configured default.
func (s *Server) workflowSpec(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.Workflow != "" {
			return req.Workflow
		}
	}
	if q := c.Query("workflow"); q != "" {
		return q
	}
	return s.defaultWorkflow
}

// Start runs the server until a shutdown signal or context cancellation,
// then drains gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", logger.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		s.log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
