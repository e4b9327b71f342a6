package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/types"
)

// targetPattern splits a raw topic into gene and variant: first token
// is the gene symbol, the remainder (if any) the mutation or variant.
var targetPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9-]*)(?:\s+(.+))?$`)

func splitTarget(topic string) (gene, variant string) {
	m := targetPattern.FindStringSubmatch(strings.TrimSpace(topic))
	if m == nil {
		return strings.TrimSpace(topic), ""
	}
	return m[1], m[2]
}

func (e *Engine) runAnalyzer(ctx context.Context, st *researchState) (string, error) {
	gene, variant := splitTarget(st.topic)
	if variant == "" {
		variant = "none specified"
	}
	user := fmt.Sprintf("%s\nGene/Target: %s\nMutation/Variant: %s",
		topicLine(st.topic, st.clarification), gene, variant)

	analysis, err := e.complete(ctx, promptAnalyzer, user)
	if err != nil {
		return "", err
	}
	st.setAnalysis(analysis)
	return analysis, nil
}

// scoutDelta is the state change produced by one scout node. It is
// built inside the scout goroutine and applied by the engine after
// the join barrier, so state mutation stays single-threaded.
type scoutDelta struct {
	sets    []*evidence.Set
	failed  []evidence.SourceID
	summary string
}

func (s *researchState) applyScout(node NodeID, d scoutDelta) {
	for _, set := range d.sets {
		s.addEvidence(set)
	}
	for _, src := range d.failed {
		s.noteSourceFailure(src)
	}
	if d.summary != "" {
		s.setSummary(node, d.summary)
	}
}

// runScouts executes the two evidence branches concurrently and joins
// on both reaching a terminal outcome. A failed source degrades the
// evidence set; only inference errors or cancellation abort the run.
func (e *Engine) runScouts(ctx context.Context, st *researchState, sink EventSink) error {
	var trialsDelta, papersDelta scoutDelta

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.stage(gctx, sink, NodeTrialsScout, "", 0, func(ctx context.Context) (string, error) {
			var err error
			trialsDelta, err = e.runScout(ctx, st, e.trials, promptTrialsScout, "Clinical trial data")
			return trialsDelta.summary, err
		})
	})
	g.Go(func() error {
		return e.stage(gctx, sink, NodeLiteratureMiner, "", 0, func(ctx context.Context) (string, error) {
			var err error
			papersDelta, err = e.runScout(ctx, st, e.papers, promptLiteratureMiner, "Academic literature data")
			return papersDelta.summary, err
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st.applyScout(NodeTrialsScout, trialsDelta)
	st.applyScout(NodeLiteratureMiner, papersDelta)
	return nil
}

// runScout fetches from every adapter of one branch, absorbing source
// failures, then summarizes whatever arrived with one inference call.
// A branch whose sources all failed completes silently with no
// summary.
func (e *Engine) runScout(ctx context.Context, st *researchState, adapters []evidence.Adapter, prompt, dataLabel string) (scoutDelta, error) {
	var d scoutDelta
	for _, a := range adapters {
		set, err := a.Fetch(ctx, st.topic)
		if err != nil {
			if ctx.Err() != nil {
				return d, ctx.Err()
			}
			if !evidence.IsAdapterError(err) {
				return d, err
			}
			e.metrics.RecordAdapterFailure(string(a.Source()), string(types.GetErrorCode(err)))
			e.log.Warn("evidence source failed",
				zap.String("source", string(a.Source())),
				zap.Error(err))
			d.failed = append(d.failed, a.Source())
			continue
		}
		d.sets = append(d.sets, set)
	}
	if len(d.sets) == 0 {
		return d, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s:\n", topicLine(st.topic, st.clarification), dataLabel)
	for _, set := range d.sets {
		fmt.Fprintf(&b, "\n## %s\n%s", sourceHeadings[set.Source], renderEvidence(set))
	}
	summary, err := e.complete(ctx, prompt, b.String())
	if err != nil {
		return d, err
	}
	d.summary = summary
	return d, nil
}

// runHypothesis generates and validates the candidate hypotheses.
// When validateRefs is set, every supporting evidence reference must
// resolve to a fetched item; a dangling reference means an upstream
// stage leaked an identifier that was never stored, which is fatal.
func (e *Engine) runHypothesis(ctx context.Context, st *researchState, validateRefs bool) (string, error) {
	raw, err := e.complete(ctx, promptHypothesis, hypothesisContext(st, e.cfg.ContextTokenBudget))
	if err != nil {
		return "", err
	}

	hs, parsed := parseHypotheses(raw, e.cfg.HypothesisTarget)
	if !parsed {
		e.log.Warn("hypothesis output not parseable as JSON, keeping raw text",
			zap.String("run_id", st.runID))
	}
	if len(hs) == 0 {
		return "", types.NewError(types.ErrValidationFailure, "inference produced no hypotheses")
	}
	if parsed && len(hs) < e.cfg.HypothesisTarget {
		e.log.Warn("fewer hypotheses than requested",
			zap.Int("got", len(hs)),
			zap.Int("want", e.cfg.HypothesisTarget))
	}
	if validateRefs {
		for _, h := range hs {
			for _, ref := range h.SupportingEvidenceRefs {
				if !st.hasEvidenceRef(ref) {
					return "", types.NewError(types.ErrValidationFailure,
						fmt.Sprintf("hypothesis references unknown evidence item %q", ref))
				}
			}
		}
	}
	st.setHypotheses(hs)
	return raw, nil
}

func (e *Engine) runDebateTurn(ctx context.Context, st *researchState, t turn, maxRounds int) (string, error) {
	text, err := e.complete(ctx, rolePrompts[t.role], debateContext(st, t.role, t.round, maxRounds))
	if err != nil {
		return "", err
	}
	st.appendDebate(DebateEntry{Role: t.role, Round: t.round, Text: text})
	if t.role == RoleMediator {
		st.completeRound()
	}
	return text, nil
}

func (e *Engine) runSynthesizer(ctx context.Context, st *researchState) (string, error) {
	brief, err := e.complete(ctx, promptSynthesizer, briefContext(st, e.cfg.ContextTokenBudget))
	if err != nil {
		return "", err
	}
	st.setBrief(brief)
	return brief, nil
}
