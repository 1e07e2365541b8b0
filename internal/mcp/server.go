// Package mcp exposes feature extraction and graph evaluation as MCP tools
// so editors and agents can drive pulsegraph over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"pulsegraph/internal/catalog"
	"pulsegraph/internal/metrics"
	"pulsegraph/internal/store"
	"pulsegraph/internal/wavio"
	"pulsegraph/pkg/engine"
	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// Server wraps the MCP SDK server and the session table.
type Server struct {
	MCPServer *sdkmcp.Server

	engine   *engine.Engine
	catalog  *catalog.Registry
	sessions *Sessions
	store    store.Store
	metrics  *metrics.Collector
	logger   *slog.Logger
	version  string
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	store      store.Store
	featureCfg features.Config
	evalCfg    nodegraph.Config
	metrics    *metrics.Collector
	logger     *slog.Logger
	version    string
}

// WithStore persists sessions and snapshots in st. The default is a
// MemStore that lives as long as the server.
func WithStore(st store.Store) Option { return func(o *serverOptions) { o.store = st } }

// WithFeatureConfig sets the extractor constants.
func WithFeatureConfig(cfg features.Config) Option {
	return func(o *serverOptions) { o.featureCfg = cfg }
}

// WithEvalConfig sets the evaluator constants.
func WithEvalConfig(cfg nodegraph.Config) Option { return func(o *serverOptions) { o.evalCfg = cfg } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(o *serverOptions) { o.logger = l } }

// WithMetrics counts tool calls, extractions and evaluations in c.
func WithMetrics(c *metrics.Collector) Option { return func(o *serverOptions) { o.metrics = c } }

// WithVersion sets the implementation version reported to clients.
func WithVersion(v string) Option { return func(o *serverOptions) { o.version = v } }

// NewServer creates an MCP server with the pulsegraph tools registered.
func NewServer(opts ...Option) *Server {
	o := serverOptions{
		featureCfg: features.DefaultConfig(),
		evalCfg:    nodegraph.DefaultConfig(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = store.NewMemStore()
	}
	if o.logger == nil {
		o.logger = slog.Default().With(slog.String("component", "mcp"))
	}

	engineOpts := []engine.Option{
		engine.WithFeatureConfig(o.featureCfg),
		engine.WithEvalConfig(o.evalCfg),
		engine.WithLogger(o.logger),
	}
	if o.metrics != nil {
		engineOpts = append(engineOpts, engine.WithObserver(o.metrics))
	}

	s := &Server{
		engine:   engine.New(engineOpts...),
		catalog:  catalog.Default(o.evalCfg),
		sessions: newSessions(o.store, o.logger),
		store:    o.store,
		metrics:  o.metrics,
		logger:   o.logger,
		version:  o.version,
	}
	s.MCPServer = sdkmcp.NewServer(&sdkmcp.Implementation{Name: "pulsegraph", Version: o.version}, nil)
	s.registerTools()
	return s
}

// Sessions returns the server's session table.
func (s *Server) Sessions() *Sessions { return s.sessions }

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "extract_features",
		Description: "Analyse audio and return a feature snapshot (beats, transients, loudness, spectrum, tempo). Pass wav_path, or samples with sample_rate.",
	}, instrument(s, "extract_features", s.handleExtractFeatures))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_graph",
		Description: "Evaluate a node graph against a snapshot at one playback time and return the emitted actions. With session_id, counter state carries over between calls.",
	}, instrument(s, "evaluate_graph", s.handleEvaluateGraph))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "open_session",
		Description: "Open an evaluation session for stateful counters. Returns a session ID.",
	}, instrument(s, "open_session", s.handleOpenSession))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reset_session",
		Description: "Clear the counter state of a session.",
	}, instrument(s, "reset_session", s.handleResetSession))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List open evaluation sessions.",
	}, instrument(s, "list_sessions", s.handleListSessions))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_signals",
		Description: "Read the session activity log. Pass since to read only newer entries.",
	}, instrument(s, "get_signals", s.handleGetSignals))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "describe_nodes",
		Description: "Describe the built-in node types: handles, parameters and defaults. Optional terms filter by type, label, phase, handle or tag.",
	}, instrument(s, "describe_nodes", s.handleDescribeNodes))

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "render_graph",
		Description: "Render a node graph as a Mermaid flowchart and report its evaluation order.",
	}, instrument(s, "render_graph", s.handleRenderGraph))
}

// instrument counts calls to h by tool name and outcome when metrics are on.
func instrument[In, Out any](s *Server, tool string, h sdkmcp.ToolHandlerFor[In, Out]) sdkmcp.ToolHandlerFor[In, Out] {
	if s.metrics == nil {
		return h
	}
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, in)
		s.metrics.ObserveTool(tool, err)
		return res, out, err
	}
}

// --- Tool input/output types ---

type extractFeaturesInput struct {
	WavPath    string    `json:"wav_path,omitempty" jsonschema:"path to a PCM WAV file readable by the server"`
	Samples    []float64 `json:"samples,omitempty" jsonschema:"mono samples in [-1, 1], used when wav_path is empty"`
	SampleRate int       `json:"sample_rate,omitempty" jsonschema:"sample rate of samples in Hz"`
	SaveAs     string    `json:"save_as,omitempty" jsonschema:"store the snapshot under this id for later evaluate_graph calls"`
}

type extractFeaturesOutput struct {
	Snapshot   features.Snapshot `json:"snapshot"`
	SnapshotID string            `json:"snapshot_id,omitempty"`
	Duration   float64           `json:"duration_seconds"`
}

type evaluateGraphInput struct {
	GraphJSON    string  `json:"graph_json" jsonschema:"node graph as JSON (nodes and edges)"`
	SnapshotJSON string  `json:"snapshot_json,omitempty" jsonschema:"feature snapshot as JSON"`
	SnapshotID   string  `json:"snapshot_id,omitempty" jsonschema:"id of a snapshot stored with extract_features save_as"`
	Time         float64 `json:"time" jsonschema:"playback time in seconds"`
	SessionID    string  `json:"session_id,omitempty" jsonschema:"session from open_session for stateful counters"`
}

type evaluateGraphOutput struct {
	Actions []nodegraph.Action `json:"actions"`
	Count   int                `json:"count"`
}

type openSessionInput struct{}

type openSessionOutput struct {
	SessionID string `json:"session_id"`
}

type resetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from open_session"`
}

type resetSessionOutput struct {
	OK        string `json:"ok"`
	SessionID string `json:"session_id"`
}

type listSessionsInput struct{}

type sessionSummary struct {
	SessionID string `json:"session_id"`
	Counters  int    `json:"counters"`
	UpdatedAt string `json:"updated_at"`
}

type listSessionsOutput struct {
	Sessions []sessionSummary `json:"sessions"`
}

type getSignalsInput struct {
	Since int `json:"since,omitempty" jsonschema:"return signals from this index on"`
}

type getSignalsOutput struct {
	Signals []Signal `json:"signals"`
	Total   int      `json:"total"`
}

type describeNodesInput struct {
	Terms []string `json:"terms,omitempty" jsonschema:"search terms; empty lists every node type"`
}

type describeNodesOutput struct {
	Nodes []catalog.Entry `json:"nodes"`
}

type renderGraphInput struct {
	GraphJSON string `json:"graph_json" jsonschema:"node graph as JSON (nodes and edges)"`
}

type renderGraphOutput struct {
	Mermaid string   `json:"mermaid"`
	Order   []string `json:"order"`
	Error   string   `json:"error,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleExtractFeatures(_ context.Context, _ *sdkmcp.CallToolRequest, input extractFeaturesInput) (*sdkmcp.CallToolResult, extractFeaturesOutput, error) {
	samples, rate := input.Samples, input.SampleRate
	if input.WavPath != "" {
		a, err := wavio.ReadFile(input.WavPath)
		if err != nil {
			return nil, extractFeaturesOutput{}, fmt.Errorf("extract_features: %w", err)
		}
		samples, rate = a.Samples, a.SampleRate
	} else if rate <= 0 {
		return nil, extractFeaturesOutput{}, errors.New("extract_features: wav_path or a positive sample_rate is required")
	}

	start := time.Now()
	raw := s.engine.ExtractFeatures(samples, rate)
	if s.metrics != nil {
		s.metrics.ObserveExtract(len(samples), time.Since(start))
	}
	var snap features.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, extractFeaturesOutput{}, fmt.Errorf("extract_features: %w", err)
	}
	out := extractFeaturesOutput{Snapshot: snap, Duration: float64(len(samples)) / float64(rate)}
	if input.SaveAs != "" {
		if err := s.store.SaveSnapshot(input.SaveAs, &snap); err != nil {
			return nil, extractFeaturesOutput{}, fmt.Errorf("extract_features: %w", err)
		}
		out.SnapshotID = input.SaveAs
	}
	s.logger.Info("features extracted", "samples", len(samples), "sample_rate", rate,
		"beats", len(snap.BeatTimestamps), "saved_as", input.SaveAs)
	return nil, out, nil
}

func (s *Server) handleEvaluateGraph(_ context.Context, _ *sdkmcp.CallToolRequest, input evaluateGraphInput) (*sdkmcp.CallToolResult, evaluateGraphOutput, error) {
	snapJSON := []byte(input.SnapshotJSON)
	switch {
	case input.SnapshotID != "":
		snap, err := s.store.GetSnapshot(input.SnapshotID)
		if err != nil {
			return nil, evaluateGraphOutput{}, fmt.Errorf("evaluate_graph: %w", err)
		}
		if snapJSON, err = json.Marshal(snap); err != nil {
			return nil, evaluateGraphOutput{}, fmt.Errorf("evaluate_graph: %w", err)
		}
	case input.SnapshotJSON == "":
		return nil, evaluateGraphOutput{}, errors.New("evaluate_graph: snapshot_json or snapshot_id is required")
	}

	var (
		actions []nodegraph.Action
		err     error
	)
	if input.SessionID == "" {
		actions, err = s.engine.Evaluate([]byte(input.GraphJSON), snapJSON, input.Time, nil)
	} else {
		err = s.sessions.With(input.SessionID, func(state nodegraph.State) error {
			var evalErr error
			actions, evalErr = s.engine.Evaluate([]byte(input.GraphJSON), snapJSON, input.Time, state)
			return evalErr
		})
	}
	if err != nil {
		return nil, evaluateGraphOutput{}, fmt.Errorf("evaluate_graph: %w", err)
	}
	return nil, evaluateGraphOutput{Actions: actions, Count: len(actions)}, nil
}

func (s *Server) handleOpenSession(_ context.Context, _ *sdkmcp.CallToolRequest, _ openSessionInput) (*sdkmcp.CallToolResult, openSessionOutput, error) {
	id, err := s.sessions.Open()
	if err != nil {
		return nil, openSessionOutput{}, fmt.Errorf("open_session: %w", err)
	}
	s.logger.Info("session opened", "session_id", id)
	return nil, openSessionOutput{SessionID: id}, nil
}

func (s *Server) handleResetSession(_ context.Context, _ *sdkmcp.CallToolRequest, input resetSessionInput) (*sdkmcp.CallToolResult, resetSessionOutput, error) {
	if input.SessionID == "" {
		return nil, resetSessionOutput{}, errors.New("session_id is required")
	}
	if err := s.sessions.Reset(input.SessionID); err != nil {
		return nil, resetSessionOutput{}, fmt.Errorf("reset_session: %w", err)
	}
	return nil, resetSessionOutput{OK: "session reset", SessionID: input.SessionID}, nil
}

func (s *Server) handleListSessions(_ context.Context, _ *sdkmcp.CallToolRequest, _ listSessionsInput) (*sdkmcp.CallToolResult, listSessionsOutput, error) {
	list, err := s.store.ListSessions()
	if err != nil {
		return nil, listSessionsOutput{}, fmt.Errorf("list_sessions: %w", err)
	}
	out := listSessionsOutput{Sessions: make([]sessionSummary, 0, len(list))}
	for _, sess := range list {
		out.Sessions = append(out.Sessions, sessionSummary{
			SessionID: sess.ID,
			Counters:  sess.Counters,
			UpdatedAt: sess.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetSignals(_ context.Context, _ *sdkmcp.CallToolRequest, input getSignalsInput) (*sdkmcp.CallToolResult, getSignalsOutput, error) {
	bus := s.sessions.Bus()
	signals := bus.Since(input.Since)
	if signals == nil {
		signals = []Signal{}
	}
	return nil, getSignalsOutput{Signals: signals, Total: bus.Len()}, nil
}

func (s *Server) handleDescribeNodes(_ context.Context, _ *sdkmcp.CallToolRequest, input describeNodesInput) (*sdkmcp.CallToolResult, describeNodesOutput, error) {
	return nil, describeNodesOutput{Nodes: s.catalog.Lookup(input.Terms...)}, nil
}

func (s *Server) handleRenderGraph(_ context.Context, _ *sdkmcp.CallToolRequest, input renderGraphInput) (*sdkmcp.CallToolResult, renderGraphOutput, error) {
	g, err := nodegraph.ParseGraph([]byte(input.GraphJSON))
	if err != nil {
		return nil, renderGraphOutput{}, fmt.Errorf("render_graph: %w", err)
	}
	out := renderGraphOutput{Mermaid: nodegraph.Render(g), Order: make([]string, 0, len(g.Nodes))}
	if order, err := nodegraph.Plan(g, nodegraph.OrderDependency); err != nil {
		// A cyclic graph still renders; the order is left empty.
		out.Error = err.Error()
	} else {
		out.Order = order
	}
	return nil, out, nil
}
