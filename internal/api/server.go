// Package api implements the HTTP API server.
//
// Endpoints:
//
//	GET    /healthz                           liveness probe
//	POST   /v1/layout                         document or stored id ⇒ positioned graph
//	POST   /v1/documents                      save a named document
//	GET    /v1/documents                      list saved documents
//	GET    /v1/documents/{id}                 fetch one document
//	GET    /v1/documents/{id}/layout          layout a stored document
//	DELETE /v1/documents/{id}                 delete a document
//	GET    /v1/documents/{id}/node/{nodeID}   resolve a node's subdocument
//
// Repeated POST /v1/layout calls with refined measured sizes form the
// measurement callback loop: the client renders, measures real node
// sizes, and asks for a relayout until sizes converge.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/store"
)

// Server wires the pipeline runner and document store into HTTP handlers.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	logger   *log.Logger
	limiters *clientLimiters
}

// Config configures the server.
type Config struct {
	// RateLimit is the per-client request rate (requests/second).
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the per-client burst size.
	RateBurst int
}

// NewServer creates a server. The store may be nil, in which case the
// document endpoints return 404 envelopes and POST /v1/layout only
// accepts inline documents.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		if cfg.RateBurst <= 0 {
			cfg.RateBurst = int(cfg.RateLimit)
			if cfg.RateBurst < 1 {
				cfg.RateBurst = 1
			}
		}
		s.limiters = newClientLimiters(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	if s.limiters != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleSaveDocument)
			r.Get("/", s.handleListDocuments)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
			r.Get("/{id}/layout", s.handleDocumentLayout)
			r.Get("/{id}/node/{nodeID}", s.handleResolveNode)
		})
	})

	return r
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
