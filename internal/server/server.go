// Package server exposes the snapshot pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness probe
//	POST /v1/snapshots   trace body → JSON snapshots with edges and request ids
//	POST /v1/timeline    trace body → timeline HTML
//
// Both POST routes accept ?repair=1 to apply the unterminated-trace fix and
// ?lenient=1 to leave requests without a GET unstyled. Trace, tree, and
// classification errors answer 400; anything else answers 500.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/qlogtree/pkg/buildinfo"
	"github.com/matzehuels/qlogtree/pkg/cache"
	"github.com/matzehuels/qlogtree/pkg/classify"
	"github.com/matzehuels/qlogtree/pkg/deptree"
	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/observability"
	"github.com/matzehuels/qlogtree/pkg/pipeline"
	"github.com/matzehuels/qlogtree/pkg/qlog"
)

// DefaultMaxBody limits trace uploads.
const DefaultMaxBody = 32 << 20

// TTLTimeline is how long assembled timelines stay cached.
const TTLTimeline = 24 * time.Hour

// Server handles API requests with a shared pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
}

// New creates a server. A maxBody of zero uses DefaultMaxBody.
func New(runner *pipeline.Runner, logger *log.Logger, maxBody int64) *Server {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger, maxBody: maxBody}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/snapshots", s.handleSnapshots)
		r.Post("/timeline", s.handleTimeline)
	})
	return r
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", dur.Round(time.Millisecond), "id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// snapshotJSON is one snapshot in the /v1/snapshots response.
type snapshotJSON struct {
	Index      int            `json:"index"`
	Time       int64          `json:"time"`
	Trigger    string         `json:"trigger"`
	Tree       *deptree.Node  `json:"tree"`
	Edges      []deptree.Edge `json:"edges"`
	RequestIDs []string       `json:"request_ids"`
}

type snapshotsResponse struct {
	Snapshots []snapshotJSON                `json:"snapshots"`
	Colors    map[string]classify.ColorPair `json:"colors"`
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := decodeEvents(body, flag(r, "repair"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snaps, err := deptree.Extract(events)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := snapshotsResponse{
		Snapshots: make([]snapshotJSON, 0, len(snaps)),
		Colors:    classify.Build(events).Pairs(),
	}
	for _, snap := range snaps {
		f := deptree.Flatten(snap)
		resp.Snapshots = append(resp.Snapshots, snapshotJSON{
			Index:      snap.Index,
			Time:       snap.Time,
			Trigger:    snap.Trigger,
			Tree:       snap.Root,
			Edges:      f.Edges,
			RequestIDs: f.RequestIDs,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	repair := flag(r, "repair")
	opts := pipeline.Options{
		Title:            r.URL.Query().Get("title"),
		Formats:          []string{pipeline.FormatSVG},
		SkipUnclassified: flag(r, "lenient"),
		Logger:           s.logger,
	}

	key := s.runner.Keyer.TimelineKey(cache.Hash(body), opts.TimelineKeyOpts(repair))
	if html, ok := s.cachedTimeline(ctx, key); ok {
		w.Header().Set("X-Cache", "hit")
		writeHTML(w, html)
		return
	}

	events, err := decodeEvents(body, repair)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(ctx, events, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.runner.Cache.Set(ctx, key, res.Timeline, TTLTimeline); err != nil {
		s.logger.Debug("timeline cache write failed", "error", err)
	}

	w.Header().Set("X-Cache", "miss")
	w.Header().Set("X-Run-ID", res.RunID)
	writeHTML(w, res.Timeline)
}

func (s *Server) cachedTimeline(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.runner.Cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("timeline cache read failed", "error", err)
		return nil, false
	}
	return data, ok
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return data, nil
}

// decodeEvents decodes a trace body, repairing it first when asked and needed.
func decodeEvents(body []byte, repair bool) ([]qlog.Event, error) {
	plain, _, err := qlog.Decompress(body)
	if err != nil {
		return nil, err
	}
	if repair && qlog.NeedsRepair(plain) {
		plain = qlog.Repair(plain)
	}
	tr, err := qlog.DecodeBytes(plain)
	if err != nil {
		return nil, err
	}
	return tr.Events()
}

// flag reads a boolean query parameter such as ?repair=1.
func flag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	switch {
	case errors.IsDataError(err):
		s.logger.Debug("trace rejected", "path", r.URL.Path, "error", err)
	case status >= 500:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return errors.HTTPStatus(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}
