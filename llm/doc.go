// Package llm defines the inference client used by pipeline stage
// nodes, plus a retrying wrapper and an Anthropic-backed
// implementation. The orchestration engine depends only on the Client
// interface; all retry policy lives here, never in the engine.
package llm
