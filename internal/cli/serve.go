package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/cache"
	"github.com/topoviz/topoviz/pkg/drag"
	"github.com/topoviz/topoviz/pkg/errors"
	"github.com/topoviz/topoviz/pkg/observability"
	"github.com/topoviz/topoviz/pkg/pipeline"
	"github.com/topoviz/topoviz/pkg/scene"
	"github.com/topoviz/topoviz/pkg/store"
	"github.com/topoviz/topoviz/pkg/topo"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
	// sessionTTL bounds how long an untouched drag session is kept.
	sessionTTL = 30 * time.Minute
)

// serveCommand creates the serve command for running the HTTP layout server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redis    string
		mongoURI string
		mongoDB  string
		noCache  bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout server",
		Long: `Run the HTTP layout server.

The server exposes the layout pipeline over a JSON API: computing layouts
for posted scenes, persisting named snapshots, and driving interactive drag
sessions. Prometheus metrics are exported on /metrics.

With --redis, pipeline results are cached in Redis instead of the local
filesystem. With --mongo-uri, snapshots are persisted in MongoDB instead of
process memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), serveOpts{
				addr:     addr,
				redis:    redis,
				mongoURI: mongoURI,
				mongoDB:  mongoDB,
				noCache:  noCache,
				pipeline: opts,
			})
		},
	}

	cfg := c.Config.Serve
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = appName
	}

	cmd.Flags().StringVar(&addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&redis, "redis", cfg.Redis, "redis address for result caching (host:port)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", cfg.MongoURI, "mongodb connection URI for snapshot storage")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", cfg.MongoDB, "mongodb database name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}

type serveOpts struct {
	addr     string
	redis    string
	mongoURI string
	mongoDB  string
	noCache  bool
	pipeline pipeline.Options
}

// runServe wires the cache, store, and metrics, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	startup := newProgress(c.Logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	newServerMetrics(registry).register()
	defer observability.Reset()

	resultCache, err := c.newServeCache(ctx, opts)
	if err != nil {
		return err
	}

	snapshots, err := c.newSnapshotStore(ctx, opts)
	if err != nil {
		return err
	}
	defer snapshots.Close(context.Background())

	opts.pipeline.Logger = c.Logger

	srv := &server{
		runner:    pipeline.NewRunner(resultCache, nil, c.Logger),
		snapshots: snapshots,
		opts:      opts.pipeline,
		logger:    c.Logger,
		sessions:  map[string]*serverSession{},
	}
	defer srv.runner.Close()

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	startup.done("server initialized")

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", opts.addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (c *CLI) newServeCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		c.Logger.Info("using redis cache", "addr", opts.redis)
		return cache.NewRedisCache(ctx, opts.redis, "", 0)
	}
	return newCache(false)
}

func (c *CLI) newSnapshotStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongoURI != "" {
		c.Logger.Info("using mongodb snapshot store", "db", opts.mongoDB)
		return store.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
	}
	return store.NewMemoryStore(), nil
}

// =============================================================================
// HTTP Server
// =============================================================================

// server holds the HTTP handler state.
type server struct {
	runner    *pipeline.Runner
	snapshots store.Store
	opts      pipeline.Options
	logger    *log.Logger

	mu       sync.Mutex
	sessions map[string]*serverSession
}

// serverSession is one live drag session and the tree it mutates.
// mu serializes Start/Move/End: drag.Session mutates the tree and is not
// safe for concurrent use, and the server map lock only guards lookups.
type serverSession struct {
	mu        sync.Mutex
	session   *drag.Session
	tree      *topo.Tree
	dragStart time.Time
	lastUsed  time.Time
}

// routes builds the chi router.
func (s *server) routes(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)

		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/", s.handleSnapshotCreate)
			r.Get("/", s.handleSnapshotList)
			r.Get("/{id}", s.handleSnapshotGet)
			r.Delete("/{id}", s.handleSnapshotDelete)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleSessionCreate)
			r.Delete("/{id}", s.handleSessionDelete)
			r.Post("/{id}/start", s.handleSessionStart)
			r.Post("/{id}/move", s.handleSessionMove)
			r.Post("/{id}/end", s.handleSessionEnd)
		})
	})

	return r
}

// requestLogger attaches the server logger to the request context and logs
// each request on completion.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), s.logger)))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// -----------------------------------------------------------------------------
// Layout
// -----------------------------------------------------------------------------

// layoutRequest is the body of POST /api/layout.
type layoutRequest struct {
	Scene     scene.Scene `json:"scene"`
	Algorithm string      `json:"algorithm,omitempty"`
	Format    string      `json:"format,omitempty"`
}

// handleLayout runs the pipeline for a posted scene. With format "svg" or
// "dot" the raw artifact is returned; otherwise the layout document.
func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err))
		return
	}

	opts := s.opts
	if req.Algorithm != "" {
		opts.Algorithm = req.Algorithm
	}
	opts.Formats = nil
	opts.LayoutOnly = true
	if req.Format != "" && req.Format != pipeline.FormatJSON {
		if err := pipeline.ValidateFormat(req.Format); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		opts.Formats = []string{req.Format}
		opts.LayoutOnly = false
	}

	result, err := s.runner.Execute(r.Context(), &req.Scene, opts)
	if err != nil {
		loggerFromContext(r.Context()).Error("layout failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}

	if len(opts.Formats) == 1 {
		format := opts.Formats[0]
		w.Header().Set("Content-Type", contentTypeFor(format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Artifacts[format])
		return
	}
	writeJSON(w, http.StatusOK, result.Layout)
}

// -----------------------------------------------------------------------------
// Snapshots
// -----------------------------------------------------------------------------

type snapshotRequest struct {
	Name  string      `json:"name"`
	Scene scene.Scene `json:"scene"`
}

func (s *server) handleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "snapshot name is required"))
		return
	}

	opts := s.opts
	opts.Formats = nil
	opts.LayoutOnly = true
	result, err := s.runner.Execute(r.Context(), &req.Scene, opts)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	snap := store.NewSnapshot(req.Name, &req.Scene, result.Layout)
	if err := s.snapshots.Save(r.Context(), snap); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	list, err := s.snapshots.List(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleSnapshotDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Drag Sessions
// -----------------------------------------------------------------------------

type sessionRequest struct {
	SnapshotID string       `json:"snapshot_id,omitempty"`
	Scene      *scene.Scene `json:"scene,omitempty"`
}

// handleSessionCreate computes a layout for the given snapshot or inline
// scene and opens a drag session against the resulting tree.
func (s *server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err))
		return
	}

	sc := req.Scene
	if req.SnapshotID != "" {
		snap, err := s.snapshots.Get(r.Context(), req.SnapshotID)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		sc = snap.Scene
	}
	if sc == nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "either snapshot_id or scene is required"))
		return
	}

	opts := s.opts
	opts.Formats = nil
	opts.LayoutOnly = true
	result, err := s.runner.Execute(r.Context(), sc, opts)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	_, edges, err := sc.Topology()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	session := drag.NewSession(result.Tree, edges)
	s.mu.Lock()
	s.pruneSessionsLocked()
	s.sessions[session.ID] = &serverSession{
		session:  session,
		tree:     result.Tree,
		lastUsed: time.Now(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"layout":     result.Layout,
	})
}

func (s *server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dragRequest struct {
	Element string  `json:"element"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
}

func (s *server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	ss, req, ok := s.dragSession(w, r)
	if !ok {
		return
	}
	ss.mu.Lock()
	err := ss.session.Start(req.Element)
	if err == nil {
		ss.dragStart = time.Now()
	}
	ss.mu.Unlock()
	if err != nil {
		// Only failure mode is an element missing from the tree.
		wrapped := errors.Wrap(errors.ErrCodeNotFound, err, "start drag")
		writeError(w, statusForError(wrapped), wrapped)
		return
	}
	observability.Drag().OnDragStart(r.Context(), req.Element, len(ss.tree.Descendants(req.Element))+1)
	writeJSON(w, http.StatusOK, map[string]string{"element": req.Element})
}

func (s *server) handleSessionMove(w http.ResponseWriter, r *http.Request) {
	ss, req, ok := s.dragSession(w, r)
	if !ok {
		return
	}
	ss.mu.Lock()
	update, err := ss.session.Move(req.Element, r2.Vec{X: req.X, Y: req.Y})
	ss.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, errors.Wrap(errors.ErrCodeInvalidInput, err, "move"))
		return
	}
	observability.Drag().OnDragMove(r.Context(), req.Element, len(update.Edges))
	writeJSON(w, http.StatusOK, dragUpdateResponse(update))
}

func (s *server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	ss, req, ok := s.dragSession(w, r)
	if !ok {
		return
	}
	ss.mu.Lock()
	update, err := ss.session.End(req.Element)
	started := ss.dragStart
	if err == nil {
		ss.dragStart = time.Time{}
	}
	ss.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, errors.Wrap(errors.ErrCodeInvalidInput, err, "end drag"))
		return
	}
	if !started.IsZero() {
		observability.Drag().OnDragEnd(r.Context(), req.Element, time.Since(started))
	}
	writeJSON(w, http.StatusOK, dragUpdateResponse(update))
}

// dragSession resolves the session from the URL and decodes the drag body.
func (s *server) dragSession(w http.ResponseWriter, r *http.Request) (*serverSession, *dragRequest, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	ss, ok := s.sessions[id]
	if ok {
		ss.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id))
		return nil, nil, false
	}

	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "decode request: %v", err))
		return nil, nil, false
	}
	if req.Element == "" {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "element is required"))
		return nil, nil, false
	}
	return ss, &req, true
}

// pruneSessionsLocked drops sessions idle past the TTL. Caller holds mu.
func (s *server) pruneSessionsLocked() {
	cutoff := time.Now().Add(-sessionTTL)
	for id, ss := range s.sessions {
		if ss.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// =============================================================================
// Response Helpers
// =============================================================================

// dragPoint is the wire form of a node position.
type dragPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// dragUpdateResponse converts a drag update into its JSON shape.
func dragUpdateResponse(u *drag.Update) map[string]any {
	positions := make(map[string]dragPoint, len(u.Positions))
	for id, p := range u.Positions {
		positions[id] = dragPoint{X: p.X, Y: p.Y}
	}
	edges := make([]scene.RoutedEdge, 0, len(u.Edges))
	for _, e := range u.Edges {
		edges = append(edges, scene.RoutedEdge{
			From:     e.Edge.From,
			To:       e.Edge.To,
			Type:     e.Edge.Type,
			Segments: e.Segments,
		})
	}
	return map[string]any{"positions": positions, "edges": edges}
}

// contentTypeFor maps an artifact format to its MIME type.
func contentTypeFor(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}

// statusForError maps error codes to HTTP status codes.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidAlgorithm, errors.ErrCodeInvalidFormat, errors.ErrCodeStructural:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSnapshotNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
