package engine

import (
	"time"
)

// NodeID identifies a stage node in the pipeline graph. The set is
// closed: the engine and all stream consumers are typed against it.
type NodeID string

const (
	NodeAnalyzer        NodeID = "analyzer"
	NodeTrialsScout     NodeID = "trials_scout"
	NodeLiteratureMiner NodeID = "literature_miner"
	NodeHypothesis      NodeID = "hypothesis_generator"
	NodeAdvocate        NodeID = "advocate"
	NodeSkeptic         NodeID = "skeptic"
	NodeMediator        NodeID = "mediator"
	NodeSynthesizer     NodeID = "synthesizer"
)

// statusMessages are the human-readable per-node progress lines shown
// in a client's activity trace.
var statusMessages = map[NodeID]string{
	NodeAnalyzer:        "Analysing research target…",
	NodeTrialsScout:     "Searching for clinical trials…",
	NodeLiteratureMiner: "Mining academic literature…",
	NodeHypothesis:      "Generating hypotheses…",
	NodeAdvocate:        "Arguing the case for the hypotheses…",
	NodeSkeptic:         "Challenging the hypotheses…",
	NodeMediator:        "Weighing the round's arguments…",
	NodeSynthesizer:     "Writing research brief…",
}

// EventType tags a stream event.
type EventType string

const (
	EventStatus       EventType = "status"
	EventAgentMessage EventType = "agent_message"
	EventNodeComplete EventType = "node_complete"
	EventDone         EventType = "done"
	EventError        EventType = "error"
	EventCancelled    EventType = "cancelled"
)

// Event is one entry in the ordered progress stream of a run. Events
// are transient: they are never stored in the research state, and the
// final state never depends on whether anyone consumed them.
//
// Causal order per node: Status precedes AgentMessage(s), which
// precede NodeComplete. Done, Error, or Cancelled is always last.
type Event struct {
	Type       EventType  `json:"event"`
	Node       NodeID     `json:"node,omitempty"`
	Message    string     `json:"message,omitempty"`
	Agent      string     `json:"agent,omitempty"`
	Role       DebateRole `json:"role,omitempty"`
	Round      int        `json:"round,omitempty"`
	Content    string     `json:"content,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
	Timestamp  time.Time  `json:"timestamp,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}

// displayNames map node identity to the agent label used in
// AgentMessage events.
var displayNames = map[NodeID]string{
	NodeAnalyzer:        "Target Analyzer",
	NodeTrialsScout:     "Trials Scout",
	NodeLiteratureMiner: "Literature Miner",
	NodeHypothesis:      "Hypothesis Generator",
	NodeAdvocate:        "Advocate",
	NodeSkeptic:         "Skeptic",
	NodeMediator:        "Mediator",
	NodeSynthesizer:     "Synthesizer",
}
