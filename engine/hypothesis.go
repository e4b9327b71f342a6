package engine

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

type hypothesisPayload struct {
	Statement              string   `json:"statement"`
	SupportingEvidenceRefs []string `json:"supporting_evidence_refs"`
}

// parseHypotheses decodes the generator's JSON output into at most
// target hypotheses. The model occasionally wraps its answer in prose
// or a code fence, so we locate the outermost array before decoding.
// When no parseable array exists at all, the raw text becomes a single
// unparsed hypothesis; ok reports whether structured decoding worked.
func parseHypotheses(raw string, target int) (hs []Hypothesis, ok bool) {
	payloads := decodeHypothesisArray(raw)
	if len(payloads) == 0 {
		text := strings.TrimSpace(raw)
		if text == "" {
			return nil, false
		}
		return []Hypothesis{{ID: uuid.NewString(), Statement: text}}, false
	}
	for _, p := range payloads {
		statement := strings.TrimSpace(p.Statement)
		if statement == "" {
			continue
		}
		hs = append(hs, Hypothesis{
			ID:                     uuid.NewString(),
			Statement:              statement,
			SupportingEvidenceRefs: p.SupportingEvidenceRefs,
		})
	}
	if len(hs) == 0 {
		return nil, false
	}
	if target > 0 && len(hs) > target {
		hs = hs[:target]
	}
	return hs, true
}

func decodeHypothesisArray(raw string) []hypothesisPayload {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	var payloads []hypothesisPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payloads); err != nil {
		return nil
	}
	return payloads
}
