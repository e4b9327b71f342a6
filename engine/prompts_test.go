package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/bioflow/evidence"
)

func TestRenderEvidenceKeepsIdentifiersVerbatim(t *testing.T) {
	set := &evidence.Set{
		Source: evidence.SourceClinicalTrials,
		Items: []evidence.Item{
			{ID: "NCT04965818", Title: "Sotorasib in NSCLC", Metadata: map[string]string{"phase": "PHASE3", "status": "RECRUITING"}},
		},
	}
	out := renderEvidence(set)
	assert.Contains(t, out, "[NCT04965818] Sotorasib in NSCLC")
	assert.Contains(t, out, "phase=PHASE3")
	assert.Contains(t, out, "status=RECRUITING")
	assert.Equal(t, "(no items)", renderEvidence(nil))
}

func TestHypothesisContextNotesMissingSources(t *testing.T) {
	st := newResearchState("run-1", "KRAS G12C", "resistance focus")
	st.setAnalysis("- **Gene/Target**: KRAS")
	st.addEvidence(testSet(evidence.SourceClinicalTrials, "NCT00000001"))
	st.setSummary(NodeTrialsScout, "one pivotal trial")
	st.noteSourceFailure(evidence.SourcePubMed)

	out := hypothesisContext(st, 1200)
	assert.Contains(t, out, "Research target: KRAS G12C")
	assert.Contains(t, out, "Clarified focus: resistance focus")
	assert.Contains(t, out, "NCT00000001")
	assert.Contains(t, out, "Trials Scout Summary")
	assert.Contains(t, out, "evidence from pubmed could not be retrieved")
}

func TestDebateContextRoundLabel(t *testing.T) {
	st := newResearchState("run-1", "KRAS G12C", "")
	st.setHypotheses([]Hypothesis{{ID: "h1", Statement: "combine X and Y", SupportingEvidenceRefs: []string{"PMID:1"}}})
	st.appendDebate(DebateEntry{Role: RoleAdvocate, Round: 1, Text: "supported"})

	adv := debateContext(st, RoleSkeptic, 1, 2)
	assert.Contains(t, adv, "This is round 1 of 2.")
	assert.Contains(t, adv, "Round 1, Advocate")
	assert.Contains(t, adv, "combine X and Y")

	med := debateContext(st, RoleMediator, 1, 2)
	assert.NotContains(t, med, "This is round")
	assert.Contains(t, med, "supported")
}

func TestBriefContextCoversWholeRun(t *testing.T) {
	st := newResearchState("run-1", "KRAS G12C", "")
	st.setAnalysis("analysis text")
	st.addEvidence(testSet(evidence.SourcePubMed, "PMID:1"))
	st.setSummary(NodeLiteratureMiner, "literature summary")
	st.setHypotheses([]Hypothesis{{ID: "h1", Statement: "s1"}})
	st.appendDebate(DebateEntry{Role: RoleMediator, Round: 1, Text: "moderate evidence"})
	st.noteSourceFailure(evidence.SourceEuropePMC)

	out := briefContext(st, 1200)
	assert.Contains(t, out, "analysis text")
	assert.Contains(t, out, "PMID:1")
	assert.Contains(t, out, "literature summary")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "moderate evidence")
	assert.Contains(t, out, "Key Risks & Gaps")
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		in, gene, variant string
	}{
		{"KRAS G12C", "KRAS", "G12C"},
		{"TP53", "TP53", ""},
		{"  BRAF V600E melanoma ", "BRAF", "V600E melanoma"},
	}
	for _, tt := range tests {
		gene, variant := splitTarget(tt.in)
		assert.Equal(t, tt.gene, gene)
		assert.Equal(t, tt.variant, variant)
	}
}
