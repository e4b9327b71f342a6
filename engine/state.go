package engine

import (
	"fmt"

	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/types"
)

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// ErrorInfo records why a run failed.
type ErrorInfo struct {
	Code    types.ErrorCode `json:"code"`
	Node    NodeID          `json:"node,omitempty"`
	Message string          `json:"message"`
}

// DebateRole identifies a speaker in the debate subgraph.
type DebateRole string

const (
	RoleAdvocate DebateRole = "advocate"
	RoleSkeptic  DebateRole = "skeptic"
	RoleMediator DebateRole = "mediator"
)

// Hypothesis is one candidate research hypothesis. Every evidence ref
// must resolve to an item present in the run's evidence sets.
type Hypothesis struct {
	ID                     string   `json:"id"`
	Statement              string   `json:"statement"`
	SupportingEvidenceRefs []string `json:"supporting_evidence_refs,omitempty"`
}

// DebateEntry is one turn of the debate transcript. Entries are
// append-only with non-decreasing round numbers.
type DebateEntry struct {
	Role  DebateRole `json:"role"`
	Round int        `json:"round"`
	Text  string     `json:"text"`
}

// researchState is the single mutable aggregate for one run. Only the
// engine mutates it; stage nodes see capability-scoped views. Fields
// marked write-once are guarded: overwriting one is a programming
// error and panics rather than silently corrupting a run.
//
// No lock: concurrent scouts return deltas that the engine applies
// after the join barrier, so all mutation is single-threaded.
type researchState struct {
	runID         string
	topic         string
	clarification string
	// priorBrief is set only on follow-up runs; it replaces fetched
	// evidence as the hypothesis context.
	priorBrief string

	analysis      string
	analysisSet   bool
	evidence      map[evidence.SourceID]*evidence.Set
	summaries     map[NodeID]string
	failedSources []evidence.SourceID

	hypotheses    []Hypothesis
	hypothesesSet bool

	debate       []DebateEntry
	roundCounter int

	brief    string
	briefSet bool

	status  RunStatus
	errInfo *ErrorInfo
}

func newResearchState(runID, topic, clarification string) *researchState {
	return &researchState{
		runID:         runID,
		topic:         topic,
		clarification: clarification,
		evidence:      make(map[evidence.SourceID]*evidence.Set),
		summaries:     make(map[NodeID]string),
		status:        StatusRunning,
	}
}

func (s *researchState) setAnalysis(text string) {
	if s.analysisSet {
		panic("engine: analysis written twice")
	}
	s.analysis = text
	s.analysisSet = true
}

func (s *researchState) addEvidence(set *evidence.Set) {
	if _, exists := s.evidence[set.Source]; exists {
		panic(fmt.Sprintf("engine: evidence slot %q written twice", set.Source))
	}
	s.evidence[set.Source] = set
}

func (s *researchState) setSummary(node NodeID, text string) {
	if _, exists := s.summaries[node]; exists {
		panic(fmt.Sprintf("engine: summary for %q written twice", node))
	}
	s.summaries[node] = text
}

func (s *researchState) noteSourceFailure(src evidence.SourceID) {
	s.failedSources = append(s.failedSources, src)
}

func (s *researchState) partialEvidence() bool {
	return len(s.failedSources) > 0
}

func (s *researchState) setHypotheses(hs []Hypothesis) {
	if s.hypothesesSet {
		panic("engine: hypotheses written twice")
	}
	s.hypotheses = hs
	s.hypothesesSet = true
}

func (s *researchState) appendDebate(e DebateEntry) {
	if n := len(s.debate); n > 0 && e.Round < s.debate[n-1].Round {
		panic("engine: debate round numbers must be non-decreasing")
	}
	s.debate = append(s.debate, e)
}

func (s *researchState) completeRound() {
	s.roundCounter++
}

func (s *researchState) setBrief(text string) {
	if s.briefSet {
		panic("engine: brief written twice")
	}
	s.brief = text
	s.briefSet = true
}

func (s *researchState) finish(status RunStatus, errInfo *ErrorInfo) {
	s.status = status
	s.errInfo = errInfo
}

// hasEvidenceRef reports whether id resolves to a fetched item.
func (s *researchState) hasEvidenceRef(id string) bool {
	for _, set := range s.evidence {
		for _, item := range set.Items {
			if item.ID == id {
				return true
			}
		}
	}
	return false
}

// Result is an immutable snapshot of a finished (or failed) run.
type Result struct {
	RunID           string                           `json:"run_id"`
	Topic           string                           `json:"topic"`
	Clarification   string                           `json:"clarification,omitempty"`
	Analysis        string                           `json:"analysis,omitempty"`
	Evidence        map[evidence.SourceID]*evidence.Set `json:"evidence,omitempty"`
	Hypotheses      []Hypothesis                     `json:"hypotheses,omitempty"`
	DebateLog       []DebateEntry                    `json:"debate_log,omitempty"`
	Rounds          int                              `json:"rounds"`
	Brief           string                           `json:"brief,omitempty"`
	PartialEvidence bool                             `json:"partial_evidence,omitempty"`
	FailedSources   []evidence.SourceID              `json:"failed_sources,omitempty"`
	Status          RunStatus                        `json:"status"`
	Err             *ErrorInfo                       `json:"error,omitempty"`
}

func (s *researchState) snapshot() *Result {
	res := &Result{
		RunID:           s.runID,
		Topic:           s.topic,
		Clarification:   s.clarification,
		Analysis:        s.analysis,
		Evidence:        make(map[evidence.SourceID]*evidence.Set, len(s.evidence)),
		Hypotheses:      append([]Hypothesis(nil), s.hypotheses...),
		DebateLog:       append([]DebateEntry(nil), s.debate...),
		Rounds:          s.roundCounter,
		Brief:           s.brief,
		PartialEvidence: s.partialEvidence(),
		FailedSources:   append([]evidence.SourceID(nil), s.failedSources...),
		Status:          s.status,
		Err:             s.errInfo,
	}
	for src, set := range s.evidence {
		res.Evidence[src] = set
	}
	return res
}
