// Package server exposes single requests over HTTP.
//
// GET /aq2rdb takes the request fields as one-letter query parameters,
// named after the command-line flags, and returns the report as
// text/plain. The run status is reported in the X-Aq2rdb-Status header.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/aq2rdb/internal/app"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
	"github.com/bft-labs/aq2rdb/internal/resolve"
)

// StatusHeader carries the run status of a report.
const StatusHeader = "X-Aq2rdb-Status"

// Config configures a Server.
type Config struct {
	Addr string

	// Deps are shared by every request. Summaries is ignored.
	Deps app.Deps

	// TimeZone and Flags are the defaults applied to every request.
	TimeZone string
	Flags    domain.Flags

	RequestsPerSecond float64
	Burst             int

	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   ports.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg       Config
	lifecycle *app.Lifecycle
	logger    ports.Logger
	router    chi.Router
}

// New creates a server. cfg.Logger must not be nil.
func New(cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	cfg.Deps.Summaries = nil
	if cfg.Deps.Logger == nil {
		cfg.Deps.Logger = cfg.Logger
	}

	s := &Server{
		cfg:       cfg,
		lifecycle: app.NewLifecycle(cfg.Logger, nil),
		logger:    cfg.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Lifecycle returns the server's lifecycle.
func (s *Server) Lifecycle() *app.Lifecycle { return s.lifecycle }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(newRateLimiter(s.cfg.RequestsPerSecond, s.cfg.Burst, s.logger).Handler)
		r.Get("/aq2rdb", s.handleReport)
	})
	return r
}

// ListenAndServe listens on cfg.Addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %v", domain.ErrResource, s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully
// within app.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.lifecycle.TransitionTo(app.StateStarting, "serve"); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%w: serve: %v", domain.ErrResource, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := s.lifecycle.TransitionTo(app.StateStopping, "shutdown"); err != nil {
			return err
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return domain.ErrShutdownTimeout
		}
		return nil
	})

	s.lifecycle.TransitionTo(app.StateServing, "listening on "+ln.Addr().String())

	if err := g.Wait(); err != nil {
		s.lifecycle.TransitionTo(app.StateFailed, err.Error())
		return err
	}
	return s.lifecycle.TransitionTo(app.StateStopped, "shutdown complete")
}

type healthResponse struct {
	State string `json:"state"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.lifecycle.Serving() {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, healthResponse{State: s.lifecycle.State().String()})
}

type errorResponse struct {
	Error     string   `json:"error"`
	Status    int      `json:"status"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, opts := parseQuery(r, resolve.Options{Flags: s.cfg.Flags, TimeZone: s.cfg.TimeZone})

	var body bytes.Buffer
	runner := app.NewRunner(app.RunConfig{
		Request: req,
		Options: opts,
		Stdout:  &body,
	}, s.cfg.Deps)

	summary, err := runner.Run(r.Context())
	w.Header().Set(StatusHeader, strconv.Itoa(int(summary.Status)))
	if err != nil {
		resp := errorResponse{
			Error:     err.Error(),
			Status:    int(summary.Status),
			RequestID: middleware.GetReqID(r.Context()),
		}
		var fe *domain.FieldsError
		if errors.As(err, &fe) {
			resp.Fields = fe.Fields
		}
		render.Status(r, httpStatus(err))
		render.JSON(w, r, resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body.Bytes())
}

// httpStatus maps a run-aborting error to an HTTP status.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrFieldValidation),
		errors.Is(err, domain.ErrSubtype),
		errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseQuery reads the request fields, time zone and flags from the query
// string. Valueless flags such as "?w" are set. Output always goes to the
// response, so requests run in standard-output mode.
func parseQuery(r *http.Request, defaults resolve.Options) (domain.RawRequest, resolve.Options) {
	q := r.URL.Query()
	req := domain.RawRequest{
		Datatype:  q.Get("t"),
		Agency:    q.Get("a"),
		Station:   q.Get("n"),
		DDID:      q.Get("d"),
		Parameter: q.Get("p"),
		Location:  q.Get("x"),
		Stat:      q.Get("s"),
		Begin:     q.Get("b"),
		End:       q.Get("e"),
		Transport: q.Get("y"),
		Title:     q.Get("i"),
	}

	opts := resolve.Options{Flags: defaults.Flags, TimeZone: defaults.TimeZone}
	if tz := q.Get("l"); tz != "" {
		opts.TimeZone = tz
	}
	opts.Flags.MultiFile = false
	opts.Flags.Hydra = false
	set := func(key string, dst *bool) {
		if !q.Has(key) {
			return
		}
		v, err := strconv.ParseBool(q.Get(key))
		*dst = err != nil || v
	}
	set("w", &opts.Flags.WaterYear)
	set("r", &opts.Flags.RoundingSuppressed)
	set("v", &opts.Flags.Verbose)
	set("c", &opts.Flags.CombineDateTime)
	return req, opts
}
