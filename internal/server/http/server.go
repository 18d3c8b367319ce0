// Package http exposes the classifier over HTTP.
package http

import (
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/ekisa-team/herbarium/internal/metrics"
	"github.com/ekisa-team/herbarium/internal/model"
)

// Options configures the HTTP server.
type Options struct {
	Static         fs.FS
	Metrics        *metrics.Metrics
	Instance       *model.Instance
	Version        string
	Index          []byte
	MaxUploadBytes int64
}

// Server wires the routes and middleware of the HTTP API.
type Server struct {
	api     huma.API
	handler http.Handler
}

// New registers every route on a new mux.
func New(classifier Classifier, opts Options) *Server {
	mux := http.NewServeMux()

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	config := huma.DefaultConfig("Herbarium API", version)
	// Responses carry exactly the documented fields, no $schema link.
	config.Transformers = nil
	config.CreateHooks = nil
	api := humago.New(mux, config)

	NewAnalyzeHandler(api, classifier, opts.Metrics, opts.MaxUploadBytes)
	NewStatusHandler(api, opts.Instance)

	index := opts.Index
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(index)
	})

	if opts.Static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(opts.Static)))
	}

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return &Server{
		api:     api,
		handler: cors(requestID(observe(opts.Metrics, limitBody(opts.MaxUploadBytes, mux)))),
	}
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// API returns the huma API, e.g. to export the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}
