// Package harness runs conformance scenarios against a cinema database.
//
// A scenario opens a specification, activates one display, applies a
// sequence of steps and checks the outputs that result. Every run records
// a trace that can be compared against a golden snapshot.
//
// # Scenario Format
//
//	name: select_phi_and_kind
//	description: "Two inputs intersect to a single image"
//	spec: ../cinema/cinema.json
//	display: main
//	steps:
//	  - select: { structure: phi, value: "20" }
//	  - select: { structure: kind, value: "hologram" }
//	    reject: true
//	  - activate: true
//	expect:
//	  - output: rows
//	    count: 1
//	  - output: rows
//	    contains: { id: C }
//	  - output: rows
//	    fields: { id: [C] }
//	  - output: rows
//	    lines: ["Rows", "id | phi", "C | 20"]
//
// The display is activated once before the first step. A step either
// re-activates the display or applies a selection; with reject: true the
// selection must be refused by the input's control.
//
// # Deterministic Testing
//
// Activation tokens come from testutil.SequentialTokens and trace steps
// from testutil.StepCounter, so the same scenario always produces
// a byte-identical trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/filter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
