// Package fileserver implements the core file-serving engine: path routing
// and traversal defense, HTTP cache/range negotiation, chunked body
// streaming with backpressure, and directory index rendering. It is
// deliberately independent of process startup, listener binding, and MIME
// database wiring — see cmd/staticd for how those are assembled around it.
package fileserver

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/staticfs/staticd/internal/metrics"
	"github.com/staticfs/staticd/internal/workerpool"
)

// Handler is an http.Handler implementing the full
// Router → MetadataGate → (FileResponder | IndexResponder) pipeline
// described in SPEC_FULL.md §2.
type Handler struct {
	config  Config
	typer   ContentTyper
	pool    workerpool.Pool
	metrics *metrics.Metrics
	logger  *zap.Logger

	file  *FileResponder
	index *IndexResponder
}

// New builds a Handler from cfg. cfg is copied and defaulted via
// Config.WithDefaults; the caller's cfg is never mutated. typer, pool,
// m, and logger may be nil. For a nil typer, pool, or logger New installs
// DefaultContentTyper, a workerpool.Semaphore sized from
// cfg.WorkerConcurrency, and zap.NewNop(); a nil m is kept as nil and
// disables metrics recording.
func New(cfg Config, typer ContentTyper, pool workerpool.Pool, m *metrics.Metrics, logger *zap.Logger) *Handler {
	cfg = cfg.WithDefaults()

	if typer == nil {
		typer = DefaultContentTyper{}
	}
	if pool == nil {
		pool = workerpool.New(cfg.WorkerConcurrency)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{config: cfg, typer: typer, pool: pool, metrics: m, logger: logger}
	h.file = &FileResponder{Config: &h.config, Typer: typer, Pool: pool, Metrics: m, Logger: logger}
	h.index = &IndexResponder{Config: &h.config, Metrics: m, Logger: logger}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer h.recoverPanic(w, r)

	decoded, err := url.PathUnescape(r.URL.Path)
	if err != nil {
		decoded = r.URL.Path
	}

	resolved, err := route(decoded, h.config.MountPrefix, h.config.Root)
	if err != nil {
		mapError(h.logger, h.metrics, w, r, err)
		return
	}

	info, kind, err := statResolved(resolved.FSPath, h.config.FollowLinks)
	if err != nil {
		mapError(h.logger, h.metrics, w, r, err)
		return
	}

	switch kind {
	case EntryFile:
		h.file.Serve(w, r, resolved.URLPath, resolved.FSPath, info)
	case EntryDir:
		h.index.Serve(w, r, resolved.URLPath, resolved.FSPath, info)
	default:
		mapError(h.logger, h.metrics, w, r, typoErr(resolved.FSPath))
	}
}

// recoverPanic turns a programmer-error panic into a 500 instead of
// crashing the process, and logs it with a stack trace. This is the one
// departure from "the core never panics" that a production net/http handler
// needs — see SPEC_FULL.md §7.
func (h *Handler) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		h.logger.Error("panic serving request",
			zap.Any("recover", rec),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Stack("stack"),
		)
		w.WriteHeader(http.StatusInternalServerError)
		if h.metrics != nil {
			h.metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(http.StatusInternalServerError)).Inc()
		}
	}
}
