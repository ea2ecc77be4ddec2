// Package harness runs request scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: occurrences_window
//	description: "Occurrences inside a window, in batches"
//	documents:
//	  - ../documents/team.yaml
//	batch_size: 2
//	flow:
//	  - request: item_occurrence_fetch
//	    parent: standup
//	    start: "2026-03-02T00:00:00Z"
//	    end: "2026-03-04T23:59:59Z"
//	    expect:
//	      state: finished
//	      count: 3
//	assertions:
//	  - type: trace_count
//	    step: 0
//	    event: results_available
//	    count: 2
//
// Documents are item documents (see package compiler) seeded into a fresh
// in-memory store. Items are addressed by their local keys throughout.
//
// # Assertion Types
//
//   - trace_count: a step received exactly N notifications of one type
//   - stored_count: the store holds exactly N items after the flow
//   - stored_item: a stored item matches the expected summary fields
//
// # Deterministic Testing
//
// Notifications carry per-request sequence numbers and batches are sized by
// the scenario, so the trace of a scenario is identical across runs. Saved
// items without an id get "new-1", "new-2", ... in save order. RunWithGolden
// compares the canonical JSON snapshot of the trace and step results with a
// golden file.
package harness
