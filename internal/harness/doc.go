// Package harness runs codec conformance scenarios.
//
// A scenario loads type descriptors, seeds an in-memory store, then runs a
// flow of encode and decode steps. Every step is recorded in a trace that is
// compared against a golden file, and assertions check the encoded records
// and the final store state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schemas:
//	  - ../schemas/notes.cue
//	owner: _owner
//	assets:
//	  - type: Attachment
//	    name: cover.png
//	    content: "hello"
//	setup:
//	  - type: Author
//	    props: { id: 7, name: Ada }
//	flow:
//	  - encode:
//	      type: Note
//	      props: { id: abc, title: Hello, author: 7 }
//	    expect:
//	      skipped:
//	        - { property: comments, code: TO_MANY_RELATIONSHIP }
//	  - decode:
//	      recordType: Note
//	      recordID: { recordName: abc, zoneID: { zoneName: NotesZone, ownerName: _owner } }
//	      fields:
//	        title: { kind: string, value: Renamed }
//	assertions:
//	  - type: record_field
//	    record: abc
//	    field: author
//	    kind: reference
//	  - type: record_count
//	    count: 1
//	  - type: final_state
//	    objectType: Note
//	    key: abc
//	    expect: { title: Renamed }
//
// # Assertion Types
//
//   - record_field: Checks the kind and optional payload of an encoded field,
//     or that the field is absent
//   - record_count: Checks how many records the flow encoded
//   - final_state: Loads a stored object and compares properties (subset match)
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory SQLite database, an in-memory blob store,
// and testutil.DeterministicClock, so traces are identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/roundtrip.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
