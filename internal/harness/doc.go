// Package harness runs marking scenarios.
//
// A scenario names a program description (a CUE file or directory, or
// inline CUE), picks the marker and promotion policy, optionally replaces
// the program's keep directives, and asserts on the marks the run leaves
// behind.
//
// # Scenario Format
//
//	name: abstract_conservative
//	description: "A used override promotes the abstract method"
//	program: ../programs/shapes.cue
//	policy: conservative        # or precise
//	marker: shortest            # or simple
//	keep:
//	  classes: [a/Main]
//	  members:
//	    - {class: a/Main, name: main, descriptor: ()V}
//	assertions:
//	  - type: state
//	    state: used             # used, possibly_used or unused
//	    nodes: [a.Shape, a.Shape.area()D]
//	  - type: cause
//	    node: a.Shape.area()D
//	    reason: is implemented by
//	    class: a.Square
//	    depth: 2
//	  - type: stat
//	    stat: used_members
//	    count: 3
//	  - type: kotlin_facades
//	    resource: META-INF/app.kotlin_module
//	    package: com.example
//	    facades: []
//	  - type: error
//	    contains: matched nothing
//	explain:
//	  - a.Shape.area()D
//
// Nodes are named the way explanations print them: external class names,
// members as owner.name plus descriptor, resource files by file name.
//
// # Golden Files
//
// RunWithGolden prints the explanation of every explain node and compares
// it against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// Each scenario is loaded into fresh pools with a fresh marker, so results
// never depend on run order.
package harness
