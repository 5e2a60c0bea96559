// Package server implements the graphsplit HTTP API.
//
// # Endpoints
//
//	GET  /v1/healthz                      Liveness check
//	POST /v1/split                        Run the split pipeline on an uploaded graph
//	GET  /v1/runs/{id}                    Fetch a stored run by ID
//	GET  /v1/runs/{id}/artifacts/{format} Fetch one rendered artifact of a stored run
//
// POST /v1/split accepts a JSON body in the shape of pipeline.Options:
//
//	{
//	  "graph_json": {...},
//	  "policy": "table",
//	  "assignment": {"add": "front", "mul": "back"},
//	  "formats": ["dot", "svg"]
//	}
//
// Responses are JSON. Errors carry a machine-readable code and a message:
//
//	{"error": {"code": "SPLIT_CYCLE", "message": "..."}}
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/matzehuels/graphsplit/pkg/errors"
	"github.com/matzehuels/graphsplit/pkg/graphio"
	"github.com/matzehuels/graphsplit/pkg/observability"
	"github.com/matzehuels/graphsplit/pkg/pipeline"
	"github.com/matzehuels/graphsplit/pkg/split"
	"github.com/matzehuels/graphsplit/pkg/store"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// New creates a server. A nil store disables the /v1/runs endpoints' storage
// (runs are still executed, just not persisted).
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.hooksMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealthz)
		r.Post("/split", s.handleSplit)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/artifacts/{format}", s.handleGetArtifact)
	})
	return r
}

// splitRequest is the POST /v1/split body. GraphJSON holds the graph inline;
// the other fields mirror pipeline.Options.
type splitRequest struct {
	GraphJSON  json.RawMessage   `json:"graph_json"`
	Policy     string            `json:"policy,omitempty"`
	Groups     int               `json:"groups,omitempty"`
	Assignment map[string]string `json:"assignment,omitempty"`
	Formats    []string          `json:"formats,omitempty"`
	Detailed   bool              `json:"detailed,omitempty"`
	Refresh    bool              `json:"refresh,omitempty"`
}

// splitResponse is the POST /v1/split result. Artifacts are base64-encoded
// by encoding/json.
type splitResponse struct {
	RunID      string             `json:"run_id"`
	GraphHash  string             `json:"graph_hash"`
	NodeCount  int                `json:"node_count"`
	Partitions []partitionSummary `json:"partitions"`
	Artifacts  map[string][]byte  `json:"artifacts,omitempty"`
	Cache      pipeline.CacheInfo `json:"cache"`
}

type partitionSummary struct {
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if len(req.GraphJSON) == 0 {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "graph_json is required"))
		return
	}

	opts := pipeline.Options{
		GraphJSON:  []byte(req.GraphJSON),
		Policy:     req.Policy,
		Groups:     req.Groups,
		Assignment: req.Assignment,
		Formats:    req.Formats,
		Detailed:   req.Detailed,
		Refresh:    req.Refresh,
		Logger:     s.logger,
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, classify(err))
		return
	}

	if s.store != nil {
		rec := store.NewRecord(result, opts.Policy)
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.logger.Error("persist run", "run", result.RunID, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, splitResponse{
		RunID:      result.RunID,
		GraphHash:  result.GraphHash,
		NodeCount:  result.Stats.NodeCount,
		Partitions: summarize(result.Partitions),
		Artifacts:  result.Artifacts,
		Cache:      result.CacheInfo,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "run storage is not configured"))
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, apperrors.New(apperrors.ErrCodeResultNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStorage, err, "fetch run %s", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "run storage is not configured"))
		return
	}

	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidFormat, "%v", err))
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, apperrors.New(apperrors.ErrCodeResultNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStorage, err, "fetch run %s", id))
		return
	}

	// Artifacts are regenerated from the stored module rather than stored
	// alongside it.
	mod, err := graphio.ToModule(rec.Module, nil)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "decode stored module"))
		return
	}

	parts := recordPartitions(rec)
	artifacts, err := s.runner.Render(r.Context(), mod, parts, pipeline.Options{
		Formats: []string{format},
		Logger:  s.logger,
	})
	if err != nil {
		writeError(w, classify(err))
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func summarize(parts []split.Partition) []partitionSummary {
	out := make([]partitionSummary, len(parts))
	for i, p := range parts {
		out[i] = partitionSummary{
			Name:      p.Name,
			Members:   p.Members,
			Inputs:    p.Inputs,
			Outputs:   p.Outputs,
			DependsOn: p.DependsOn,
		}
	}
	return out
}

func recordPartitions(rec *store.Record) []split.Partition {
	out := make([]split.Partition, len(rec.Partitions))
	for i, p := range rec.Partitions {
		out[i] = split.Partition{
			Name:       p.Name,
			Members:    p.Members,
			Inputs:     p.Inputs,
			Outputs:    p.Outputs,
			DependsOn:  p.DependsOn,
			Dependents: p.Dependents,
		}
	}
	return out
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// classify maps pipeline errors onto coded errors for the response body.
func classify(err error) *apperrors.Error {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return coded
	}
	switch {
	case errors.Is(err, split.ErrPartitionCycle):
		return apperrors.Wrap(apperrors.ErrCodeSplitCycle, err, "partition dependencies form a cycle")
	case errors.Is(err, graphio.ErrInvalidGraph):
		return apperrors.Wrap(apperrors.ErrCodeInvalidGraph, err, "graph did not validate")
	}
	if code := apperrors.GetCode(err); code != "" {
		return apperrors.Wrap(code, err, "%s", apperrors.UserMessage(err))
	}
	return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "%v", err)
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeFileNotFound, apperrors.ErrCodeResultNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeStorage, apperrors.ErrCodeInternal:
		return http.StatusInternalServerError
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusBadRequest
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err *apperrors.Error) {
	var body errorBody
	body.Error.Code = string(err.Code)
	body.Error.Message = err.Message
	writeJSON(w, statusFor(err.Code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// hooksMiddleware reports requests to the registered server hooks.
func (s *Server) hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
