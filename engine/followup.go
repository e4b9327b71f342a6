package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/types"
)

// FollowUpRequest asks a further question against an earlier brief.
// No evidence is re-fetched: the prior brief is the read-only context
// the reduced graph reasons over.
type FollowUpRequest struct {
	Topic        string
	Question     string
	PriorBrief   string
	DebateRounds *int
}

// FollowUp runs the reduced graph: hypothesis generation from the
// prior brief, the debate schedule, then synthesis. Event and brief
// shape match a full run.
func (e *Engine) FollowUp(ctx context.Context, req FollowUpRequest, sink EventSink) (*Result, error) {
	if sink == nil {
		sink = discardSink{}
	}
	st := newResearchState(uuid.NewString(), req.Topic, req.Question)
	st.priorBrief = req.PriorBrief

	if req.Topic == "" || req.Question == "" || req.PriorBrief == "" {
		err := types.NewError(types.ErrValidationFailure, "follow-up needs topic, question, and prior brief")
		return e.finishRun(ctx, st, sink, e.clock.Now(), err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	start := e.clock.Now()
	e.log.Info("follow-up started",
		zap.String("run_id", st.runID),
		zap.String("topic", req.Topic))

	err := e.executeFollowUp(runCtx, st, sink, clampRounds(req.DebateRounds, e.cfg.DefaultDebateRounds, e.cfg.MaxDebateRounds))
	return e.finishRun(ctx, st, sink, start, err)
}

// FollowUpSync is FollowUp without a consumer.
func (e *Engine) FollowUpSync(ctx context.Context, req FollowUpRequest) (*Result, error) {
	return e.FollowUp(ctx, req, discardSink{})
}

func (e *Engine) executeFollowUp(ctx context.Context, st *researchState, sink EventSink, rounds int) error {
	if err := e.stage(ctx, sink, NodeHypothesis, "", 0, func(ctx context.Context) (string, error) {
		return e.runHypothesis(ctx, st, false)
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
