package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHypothesesStructured(t *testing.T) {
	raw := `Here are the hypotheses:
[
  {"statement": "Combining X with Y overcomes resistance.", "supporting_evidence_refs": ["NCT00000001", "PMID:1"]},
  {"statement": "Z is a predictive biomarker.", "supporting_evidence_refs": ["PMID:2"]},
  {"statement": "Dose scheduling reduces toxicity.", "supporting_evidence_refs": []}
]`
	hs, ok := parseHypotheses(raw, 3)
	require.True(t, ok)
	require.Len(t, hs, 3)
	assert.Equal(t, "Combining X with Y overcomes resistance.", hs[0].Statement)
	assert.Equal(t, []string{"NCT00000001", "PMID:1"}, hs[0].SupportingEvidenceRefs)
	for _, h := range hs {
		assert.NotEmpty(t, h.ID)
	}
}

func TestParseHypothesesTruncatesToTarget(t *testing.T) {
	raw := `[{"statement":"a"},{"statement":"b"},{"statement":"c"},{"statement":"d"}]`
	hs, ok := parseHypotheses(raw, 3)
	require.True(t, ok)
	assert.Len(t, hs, 3)
}

func TestParseHypothesesSkipsEmptyStatements(t *testing.T) {
	raw := `[{"statement":"  "},{"statement":"real one"}]`
	hs, ok := parseHypotheses(raw, 3)
	require.True(t, ok)
	require.Len(t, hs, 1)
	assert.Equal(t, "real one", hs[0].Statement)
}

func TestParseHypothesesFallsBackToRawText(t *testing.T) {
	hs, ok := parseHypotheses("Hypothesis 1: something plausible without JSON.", 3)
	assert.False(t, ok)
	require.Len(t, hs, 1)
	assert.Equal(t, "Hypothesis 1: something plausible without JSON.", hs[0].Statement)
}

func TestParseHypothesesEmptyInput(t *testing.T) {
	hs, ok := parseHypotheses("   ", 3)
	assert.False(t, ok)
	assert.Empty(t, hs)
}

func TestParseHypothesesMalformedArray(t *testing.T) {
	hs, ok := parseHypotheses(`[{"statement": unquoted}]`, 3)
	assert.False(t, ok)
	require.Len(t, hs, 1) // whole text kept as a single hypothesis
}
