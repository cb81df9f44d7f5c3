// Package server exposes the upload, graph, session and export endpoints over HTTP.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/MalithGihan/flowviz-service/internal/metrics"
	"github.com/MalithGihan/flowviz-service/internal/render"
	"github.com/MalithGihan/flowviz-service/internal/session"
	"github.com/MalithGihan/flowviz-service/internal/store"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

// GraphSource is the external graph-construction service.
type GraphSource interface {
	Upload(ctx context.Context, filename string, r io.Reader) error
	Graph(ctx context.Context) (types.Graph, error)
	Clear(ctx context.Context) error
}

type Deps struct {
	Graphs      GraphSource
	Sessions    *session.Manager
	Store       *store.FS
	Renderer    render.Renderer
	Metrics     *metrics.Collector
	Logger      *zap.Logger
	UploadLimit int64 // bytes
	CORSOrigins []string
}

type Server struct {
	graphs      GraphSource
	sessions    *session.Manager
	store       *store.FS
	renderer    render.Renderer
	metrics     *metrics.Collector
	logger      *zap.Logger
	uploadLimit int64
	corsOrigins []string
}

func New(d Deps) *Server {
	s := &Server{
		graphs:      d.Graphs,
		sessions:    d.Sessions,
		store:       d.Store,
		renderer:    d.Renderer,
		metrics:     d.Metrics,
		logger:      d.Logger,
		uploadLimit: d.UploadLimit,
		corsOrigins: d.CORSOrigins,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCollector("flowviz")
	}
	if s.uploadLimit <= 0 {
		s.uploadLimit = 3 << 30
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Revision", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Post("/upload", s.upload)
	r.Get("/graph", s.graph)
	r.Post("/clear", s.clear)
	r.Post("/encode", s.encode)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.deleteSession)
		r.Put("/params", s.putParams)
		r.Post("/refresh", s.refresh)
		r.Get("/dot", s.dot)
		r.Get("/export", s.export)
	})

	return r
}
