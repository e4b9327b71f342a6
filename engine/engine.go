package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/config"
	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/internal/metrics"
	"github.com/BaSui01/bioflow/llm"
	"github.com/BaSui01/bioflow/types"
)

// terminalPublishTimeout bounds how long a finished run waits for a
// stalled consumer before abandoning the terminal event.
const terminalPublishTimeout = 5 * time.Second

// Engine executes the research pipeline. It owns no retry policy:
// retries live in the adapter and inference wrappers it is handed.
type Engine struct {
	llm     llm.Client
	trials  []evidence.Adapter
	papers  []evidence.Adapter
	cfg     config.PipelineConfig
	temp    float32
	maxToks int
	clock   clockwork.Clock
	metrics *metrics.Collector
	log     *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil is replaced with a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock injects the clock used for event timestamps and node
// durations.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCompletion sets the sampling parameters forwarded on every
// inference request.
func WithCompletion(temperature float32, maxTokens int) Option {
	return func(e *Engine) {
		e.temp = temperature
		e.maxToks = maxTokens
	}
}

// New builds an Engine. Adapters are partitioned by source: the
// ClinicalTrials.gov source feeds the trials scout, every other
// source feeds the literature miner.
func New(client llm.Client, adapters []evidence.Adapter, cfg config.PipelineConfig, opts ...Option) *Engine {
	e := &Engine{
		llm:     client,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		metrics: metrics.NewCollector(nil),
		log:     zap.NewNop(),
	}
	for _, a := range adapters {
		if a.Source() == evidence.SourceClinicalTrials {
			e.trials = append(e.trials, a)
		} else {
			e.papers = append(e.papers, a)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(zap.String("component", "engine"))
	return e
}

// Request describes one research run. A nil DebateRounds means "use
// the configured default"; an explicit zero skips the debate.
type Request struct {
	Topic         string
	Clarification string
	DebateRounds  *int
}

// Run executes the full pipeline, publishing progress to sink. The
// returned Result is always non-nil and reflects whatever the run
// accumulated before finishing or failing.
func (e *Engine) Run(ctx context.Context, req Request, sink EventSink) (*Result, error) {
	if sink == nil {
		sink = discardSink{}
	}
	st := newResearchState(uuid.NewString(), req.Topic, req.Clarification)

	if req.Topic == "" {
		err := types.NewError(types.ErrValidationFailure, "topic must not be empty")
		return e.finishRun(ctx, st, sink, e.clock.Now(), err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	e.log.Info("run started",
		zap.String("run_id", st.runID),
		zap.String("topic", req.Topic))

	err := e.executePipeline(runCtx, st, sink, clampRounds(req.DebateRounds, e.cfg.DefaultDebateRounds, e.cfg.MaxDebateRounds))
	return e.finishRun(ctx, st, sink, start, err)
}

// RunSync is Run without a consumer. Final state is identical to a
// streamed run with the same inputs.
func (e *Engine) RunSync(ctx context.Context, req Request) (*Result, error) {
	return e.Run(ctx, req, discardSink{})
}

// Execution is a handle on a streaming run started with Stream.
type Execution struct {
	bus  *Bus
	done chan struct{}
	res  *Result
	err  error
}

// Events returns the run's ordered event channel. It is closed after
// the terminal event.
func (x *Execution) Events() <-chan Event { return x.bus.Events() }

// Wait blocks until the run finishes and returns its outcome.
func (x *Execution) Wait() (*Result, error) {
	<-x.done
	return x.res, x.err
}

// Stream starts a run in the background and returns a handle whose
// event channel must be drained by exactly one consumer.
func (e *Engine) Stream(ctx context.Context, req Request) *Execution {
	x := &Execution{bus: NewBus(16), done: make(chan struct{})}
	go func() {
		defer close(x.done)
		defer x.bus.Close()
		x.res, x.err = e.Run(ctx, req, x.bus)
	}()
	return x
}

// executePipeline walks the stage graph: analyzer, concurrent scouts,
// hypothesis generation, the debate schedule, synthesis.
func (e *Engine) executePipeline(ctx context.Context, st *researchState, sink EventSink, rounds int) error {
	if err := e.stage(ctx, sink, NodeAnalyzer, "", 0, func(ctx context.Context) (string, error) {
		return e.runAnalyzer(ctx, st)
	}); err != nil {
		return err
	}

	if err := e.runScouts(ctx, st, sink); err != nil {
		return err
	}

	if err := e.stage(ctx, sink, NodeHypothesis, "", 0, func(ctx context.Context) (string, error) {
		return e.runHypothesis(ctx, st, true)
	}); err != nil {
		return err
	}

	for _, t := range debateTurns(rounds) {
		if err := e.stage(ctx, sink, nodeForRole[t.role], t.role, t.round, func(ctx context.Context) (string, error) {
			return e.runDebateTurn(ctx, st, t, rounds)
		}); err != nil {
			return err
		}
	}

	return e.stage(ctx, sink, NodeSynthesizer, "", 0, func(ctx context.Context) (string, error) {
		return e.runSynthesizer(ctx, st)
	})
}

// stage wraps one node execution with the event protocol: Status,
// then the node's AgentMessage if it produced one, then NodeComplete.
// A stage-level timeout applies on top of the run deadline.
func (e *Engine) stage(ctx context.Context, sink EventSink, node NodeID, role DebateRole, round int, fn func(ctx context.Context) (string, error)) error {
	if err := e.publish(ctx, sink, Event{
		Type:    EventStatus,
		Node:    node,
		Message: statusMessages[node],
		Round:   round,
	}); err != nil {
		return err
	}

	stageCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.StageTimeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, e.cfg.StageTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	content, err := fn(stageCtx)
	dur := e.clock.Since(start)
	if err != nil {
		// Both deadlines surface as DeadlineExceeded downstream; tag
		// the stage bound here while the contexts are still distinct.
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = types.NewError(types.ErrTimeout, "stage exceeded its deadline").WithCause(err)
		}
		e.metrics.ObserveNode(string(node), "failure", dur)
		e.log.Warn("node failed",
			zap.String("node", string(node)),
			zap.Duration("duration", dur),
			zap.Error(err))
		return &nodeError{node: node, err: err}
	}

	if content != "" {
		if err := e.publish(ctx, sink, Event{
			Type:      EventAgentMessage,
			Node:      node,
			Agent:     displayNames[node],
			Role:      role,
			Round:     round,
			Content:   content,
			Timestamp: e.clock.Now(),
		}); err != nil {
			return err
		}
	}

	e.metrics.ObserveNode(string(node), "success", dur)
	e.log.Debug("node complete",
		zap.String("node", string(node)),
		zap.Duration("duration", dur))
	return e.publish(ctx, sink, Event{
		Type:       EventNodeComplete,
		Node:       node,
		Round:      round,
		DurationMs: dur.Milliseconds(),
	})
}

func (e *Engine) publish(ctx context.Context, sink EventSink, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.clock.Now()
	}
	if err := sink.Publish(ctx, ev); err != nil {
		return err
	}
	e.metrics.RecordEvent(string(ev.Type))
	return nil
}

// complete issues one inference call with the engine's sampling
// parameters and records the outcome.
func (e *Engine) complete(ctx context.Context, system, user string) (string, error) {
	out, err := e.llm.Complete(ctx, &llm.Request{
		System:      system,
		User:        user,
		Temperature: e.temp,
		MaxTokens:   e.maxToks,
	})
	if err != nil {
		e.metrics.RecordInferenceCall("failure")
		return "", err
	}
	e.metrics.RecordInferenceCall("success")
	return out, nil
}

// finishRun classifies the outcome, records it on the state, emits
// the terminal event, and snapshots the result. The terminal event is
// published on a detached context so that a cancelled run still
// reports Cancelled to its consumer.
func (e *Engine) finishRun(ctx context.Context, st *researchState, sink EventSink, start time.Time, err error) (*Result, error) {
	dur := e.clock.Since(start)

	var terminal Event
	if err == nil {
		st.finish(StatusDone, nil)
		terminal = Event{Type: EventDone}
	} else {
		info := classifyError(err)
		st.finish(StatusFailed, info)
		terminal = Event{Type: EventError, Detail: info.Message}
		if info.Code == types.ErrCancelled {
			terminal = Event{Type: EventCancelled, Detail: info.Message}
		}
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalPublishTimeout)
	defer cancel()
	if perr := e.publish(pubCtx, sink, terminal); perr != nil {
		e.log.Warn("terminal event dropped", zap.String("run_id", st.runID), zap.Error(perr))
	}

	e.metrics.ObserveRun(string(st.status), dur)
	e.log.Info("run finished",
		zap.String("run_id", st.runID),
		zap.String("status", string(st.status)),
		zap.Duration("duration", dur))
	return st.snapshot(), err
}

// nodeError tags a stage failure with the node it happened in.
type nodeError struct {
	node NodeID
	err  error
}

func (e *nodeError) Error() string { return string(e.node) + ": " + e.err.Error() }
func (e *nodeError) Unwrap() error { return e.err }

// classifyError maps a node failure onto the run-level taxonomy.
func classifyError(err error) *ErrorInfo {
	var node NodeID
	var ne *nodeError
	if errors.As(err, &ne) {
		node = ne.node
	}
	switch {
	case errors.Is(err, context.Canceled):
		return &ErrorInfo{Code: types.ErrCancelled, Node: node, Message: "run cancelled by caller"}
	case types.GetErrorCode(err) == types.ErrTimeout:
		// Stage-bound expiry, tagged before the contexts collapsed.
		return &ErrorInfo{Code: types.ErrTimeout, Node: node, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &ErrorInfo{Code: types.ErrTimeout, Node: node, Message: "run exceeded its deadline"}
	}
	code := types.GetErrorCode(err)
	switch code {
	case types.ErrQuotaExceeded, types.ErrInvalidRequest, types.ErrInferenceTransient:
		return &ErrorInfo{Code: types.ErrInferenceFailure, Node: node, Message: err.Error()}
	case types.ErrValidationFailure, types.ErrAdapterFailure, types.ErrInferenceFailure,
		types.ErrCancelled:
		return &ErrorInfo{Code: code, Node: node, Message: err.Error()}
	default:
		return &ErrorInfo{Code: types.ErrInferenceFailure, Node: node, Message: err.Error()}
	}
}
