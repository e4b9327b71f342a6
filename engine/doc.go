// Package engine implements the research orchestration engine: a
// fixed stage graph with a bounded debate cycle, executed against a
// single-run mutable research state while streaming ordered progress
// events to one consumer.
//
// Pipeline:
//
//	analyzer → (trials scout ∥ literature miner) → hypothesis
//	→ advocate → skeptic → mediator (×N rounds) → synthesizer
//
// The engine owns all mutation of the research state. Sequential
// stages commit through guarded state mutators; the concurrent scouts
// return typed deltas applied after the join barrier, so no node ever
// writes a field it does not own. Failures of a
// single evidence source degrade the evidence set; inference and
// validation failures halt the run. The engine itself never retries
// and never performs I/O.
package engine
