// Package collapse detects unrolled loops in Go statement lists and
// rewrites them into a single loop.
//
// A statement run is collapsible when it decomposes into equal-length
// periods that differ from the first period (the template) in at most one
// varying expression each:
//
//	list = append(list, 0)
//	list = append(list, 2)
//	list = append(list, 4)
//
// ->   for i := 0; i < 6; i += 2 {
//	    list = append(list, i)
//	}
//
// Detection is pure: Detect only reads the syntax tree and the type
// information supplied through Env. The mutation phase is expressed through
// the Editor interface and is driven by Rewrite once a Plan has been
// synthesized, so a rejected run never produces a partial edit.
//
// Three loop shapes are synthesized:
//   - index loops, when the periods are identical
//   - counting loops, when the varying values are integer literals in
//     arithmetic progression
//   - element loops over an array or slice literal of the varying values
//
// Out of scope (Detect reports no model):
//   - semantic equivalence of sub-expressions
//   - runs spanning several statement lists
//   - runs whose control flow changes meaning inside a loop
package collapse
