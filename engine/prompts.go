package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/internal/tokens"
)

// Role instructions for each stage node. These are system prompts: the
// assembled research context travels in the user message.
const (
	promptAnalyzer = `You are a biotech target analysis expert. Given a research target (drug, gene, mutation, disease, or pathway), extract and summarize the key biological context.

Your output must be concise bullet points:
- **Gene/Target**: The specific gene, protein, or molecular target
- **Mutation/Variant**: Any specific mutations mentioned (e.g. G12C, V600E)
- **Disease association**: Primary disease(s) this target relates to
- **Therapeutic relevance**: Why this target matters for drug discovery (1 sentence)

Keep it to 4 bullets maximum. Bold the key terms. Do not speculate beyond what the input provides.`

	promptTrialsScout = `You are a clinical trials analyst specializing in drug development. You have been given raw clinical trial data retrieved from ClinicalTrials.gov for a specific target.

Analyze the data and provide a structured summary:
- **Active landscape**: How many trials, which phases dominate (early vs late)
- **Key signals**: Notable outcomes, promising results, or concerning failures
- **Gaps**: What trial types or combinations are missing

Bold the most important signals. Keep to 200 words maximum. Be specific and cite trial IDs (NCT numbers) when available.`

	promptLiteratureMiner = `You are a biotech literature analyst. You have been given abstracts and paper records from PubMed and Europe PMC for a specific research target.

Extract and organize insights into:
- **Mechanisms of action**: How the target functions biologically
- **Resistance pathways**: Known mechanisms of drug resistance
- **Safety signals**: Reported toxicities or off-target effects
- **Novel findings**: Recent discoveries or unexpected results

Bold the **most novel insights** that could inform hypothesis generation. Keep to 200 words. Cite paper titles or identifiers when possible.`

	promptHypothesis = `You are a creative biotech researcher generating testable hypotheses. You have been given a target analysis, clinical trial landscape data, and academic literature insights, including the identifiers of the underlying evidence items.

Generate exactly 3 specific, novel hypotheses that connect the evidence. Each hypothesis must:
- Be **specific and testable** (not a generic statement)
- Connect at least 2 data sources (e.g. trials + literature)
- Suggest a mechanism or actionable direction (combination therapy, resistance workaround, biomarker)

Return ONLY a JSON array of exactly 3 objects, no prose before or after. Each object has:
- "statement": the hypothesis in 1-2 sentences with rationale from the data
- "supporting_evidence_refs": a list of evidence item identifiers (NCT numbers, PMID:... or other IDs) that appear verbatim in the provided data

Only reference identifiers that exist in the data. Focus on novelty and avoid restating obvious conclusions.`

	promptAdvocate = `You are a biotech research advocate. Your role is to argue that the hypotheses ARE **supported** by the available evidence.

Given the debate history and hypotheses:
- Identify the **strongest supporting evidence** from trials and literature
- Address any concerns raised by the skeptic in previous rounds
- Be persuasive but grounded, citing only evidence that exists in the data

Write exactly 1 paragraph (100 words max). **Bold your strongest evidence point.**`

	promptSkeptic = `You are a rigorous biotech research skeptic. Your role is to identify **weaknesses and gaps** in the hypotheses.

Given the debate history and hypotheses:
- Point out **missing evidence**, conflicting data, or logical leaps
- Highlight what additional experiments or data would be needed
- Be constructive and identify gaps rather than dismissing entirely

Write exactly 1 paragraph (100 words max). **Bold your biggest concern.**`

	promptMediator = `You are a neutral scientific mediator. Synthesize the advocate and skeptic positions.

- Identify where they **agree and disagree**
- State the **current evidence strength** for each hypothesis: Strong / Moderate / Weak
- Flag any issues that are semantic (just misunderstanding) vs substantive (real gaps)

Maximum 3 sentences. Be concise and neutral.`

	promptSynthesizer = `You are a senior biotech analyst writing an executive research brief. Given the full pipeline output (target analysis, trials data, literature, hypotheses, and debate), produce a structured markdown report with these sections:

## Target Overview
## Clinical Trials Summary
## Literature Insights
## Hypotheses & Evidence Assessment
## Key Takeaways
## Key Risks & Gaps
## Recommended Next Steps
## References

Use markdown tables for the trials summary and the hypothesis assessment (hypothesis, evidence strength Strong/Moderate/Weak, one-sentence debate consensus). Bold critical terms and findings. Use actual data from the pipeline and do NOT fabricate numbers; if exact counts are unavailable, use approximate counts from the data provided. This brief should be useful to a biotech decision-maker.`
)

var rolePrompts = map[DebateRole]string{
	RoleAdvocate: promptAdvocate,
	RoleSkeptic:  promptSkeptic,
	RoleMediator: promptMediator,
}

var roleLabels = map[DebateRole]string{
	RoleAdvocate: "Advocate",
	RoleSkeptic:  "Skeptic",
	RoleMediator: "Mediator",
}

// topicLine renders the research subject, folding a clarification in
// when the caller provided one.
func topicLine(topic, clarification string) string {
	if clarification == "" {
		return fmt.Sprintf("Research target: %s", topic)
	}
	return fmt.Sprintf("Research target: %s\nClarified focus: %s", topic, clarification)
}

// renderEvidence formats one evidence set as a plain item list. The
// identifiers must survive verbatim so later stages can reference them.
func renderEvidence(set *evidence.Set) string {
	if set == nil || len(set.Items) == 0 {
		return "(no items)"
	}
	var b strings.Builder
	for _, item := range set.Items {
		fmt.Fprintf(&b, "- [%s] %s", item.ID, item.Title)
		if len(item.Metadata) > 0 {
			keys := make([]string, 0, len(item.Metadata))
			for k := range item.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, fmt.Sprintf("%s=%s", k, item.Metadata[k]))
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// sourceHeadings give evidence blocks stable section titles in prompts.
var sourceHeadings = map[evidence.SourceID]string{
	evidence.SourceClinicalTrials: "Clinical Trial Data (ClinicalTrials.gov)",
	evidence.SourcePubMed:         "PubMed Literature",
	evidence.SourceEuropePMC:      "Europe PMC Literature",
}

// hypothesisContext assembles the user prompt for the generator:
// analysis, scout summaries, then each raw evidence block truncated to
// the configured token budget.
func hypothesisContext(s *researchState, budget int) string {
	if s.priorBrief != "" {
		return followUpContext(s, budget)
	}
	var b strings.Builder
	b.WriteString(topicLine(s.topic, s.clarification))
	b.WriteString("\n\n## Target Analysis\n")
	b.WriteString(s.analysis)

	for _, node := range []NodeID{NodeTrialsScout, NodeLiteratureMiner} {
		if summary := s.summaries[node]; summary != "" {
			fmt.Fprintf(&b, "\n\n## %s Summary\n%s", displayNames[node], summary)
		}
	}
	for _, src := range []evidence.SourceID{evidence.SourceClinicalTrials, evidence.SourcePubMed, evidence.SourceEuropePMC} {
		set, ok := s.evidence[src]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\n## %s\n%s", sourceHeadings[src], tokens.Truncate(renderEvidence(set), budget))
	}
	if s.partialEvidence() {
		names := make([]string, 0, len(s.failedSources))
		for _, src := range s.failedSources {
			names = append(names, string(src))
		}
		fmt.Fprintf(&b, "\n\nNote: evidence from %s could not be retrieved; work with what is present.", strings.Join(names, ", "))
	}
	return b.String()
}

// followUpContext is the hypothesis context for a follow-up run: the
// prior brief stands in for fetched evidence, and the user's question
// directs where the new hypotheses should aim.
func followUpContext(s *researchState, budget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research target: %s\n", s.topic)
	fmt.Fprintf(&b, "Follow-up question: %s\n\n", s.clarification)
	fmt.Fprintf(&b, "## Prior Research Brief\n%s", tokens.Truncate(s.priorBrief, budget))
	b.WriteString("\n\nGenerate hypotheses that answer the follow-up question, grounded in the prior brief.")
	return b.String()
}

// renderHypotheses formats the hypothesis list for debate prompts.
func renderHypotheses(hs []Hypothesis) string {
	var b strings.Builder
	for i, h := range hs {
		fmt.Fprintf(&b, "**Hypothesis %d**: %s", i+1, h.Statement)
		if len(h.SupportingEvidenceRefs) > 0 {
			fmt.Fprintf(&b, " [refs: %s]", strings.Join(h.SupportingEvidenceRefs, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderTranscript formats prior debate entries, oldest first.
func renderTranscript(entries []DebateEntry) string {
	if len(entries) == 0 {
		return "(no prior rounds)"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "### Round %d, %s\n%s\n\n", e.Round, roleLabels[e.Role], e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// debateContext assembles the user prompt for one debate turn. The
// mediator sees the full transcript of the current round; advocate and
// skeptic additionally get the round label so they can pace arguments.
func debateContext(s *researchState, role DebateRole, round, maxRounds int) string {
	var b strings.Builder
	b.WriteString(topicLine(s.topic, s.clarification))
	b.WriteString("\n\n## Hypotheses\n")
	b.WriteString(renderHypotheses(s.hypotheses))
	b.WriteString("\n## Debate history\n")
	b.WriteString(renderTranscript(s.debate))
	if role != RoleMediator {
		fmt.Fprintf(&b, "\n\nThis is round %d of %d.", round, maxRounds)
	}
	return b.String()
}

// briefContext assembles the full-pipeline context for the synthesizer.
func briefContext(s *researchState, budget int) string {
	var b strings.Builder
	b.WriteString("# " + topicLine(s.topic, s.clarification))
	if s.priorBrief != "" {
		fmt.Fprintf(&b, "\n\n## Prior Research Brief\n%s", tokens.Truncate(s.priorBrief, budget))
	}
	if s.analysis != "" {
		fmt.Fprintf(&b, "\n\n## Target Analysis\n%s", s.analysis)
	}
	for _, src := range []evidence.SourceID{evidence.SourceClinicalTrials, evidence.SourcePubMed, evidence.SourceEuropePMC} {
		set, ok := s.evidence[src]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n\n## %s\n%s", sourceHeadings[src], tokens.Truncate(renderEvidence(set), budget))
	}
	for _, node := range []NodeID{NodeTrialsScout, NodeLiteratureMiner} {
		if summary := s.summaries[node]; summary != "" {
			fmt.Fprintf(&b, "\n\n## %s Summary\n%s", displayNames[node], summary)
		}
	}
	fmt.Fprintf(&b, "\n\n## Generated Hypotheses\n%s", renderHypotheses(s.hypotheses))
	fmt.Fprintf(&b, "\n## Debate Transcript\n%s", renderTranscript(s.debate))
	if s.partialEvidence() {
		b.WriteString("\n\nNote: some evidence sources were unavailable for this run; flag this in Key Risks & Gaps.")
	}
	return b.String()
}
