package graph

import "fmt"

// validate checks every structural rule against the graph's current maps.
// It is run by New and by every mutator in mutate.go/compose.go that adds a
// node or sink or rewrites dependencies, before the result is handed back
// to the caller. AddSource and the Remove* mutators do not run it; in
// particular RemoveNode and RemoveSource can return a Graph holding
// references that no longer resolve.
func (g *Graph) validate() error {
	for n := range g.operators {
		if _, ok := g.dependencies[n]; !ok {
			return newInvariantError("dependency-map-consistency", fmt.Sprintf("node(%d) has no dependencies entry", n))
		}
	}
	for n := range g.dependencies {
		if _, ok := g.operators[n]; !ok {
			return newInvariantError("dependency-map-consistency", fmt.Sprintf("dependencies entry for node(%d) names no operator", n))
		}
	}

	for n, deps := range g.dependencies {
		for _, d := range deps {
			if !g.resolves(d) {
				return newInvalidRef("validate", NodeRef(n))
			}
			if d.IsNode() {
				if op, ok := g.operators[d.Node()]; ok && op.Kind() == KindEstimator {
					return newInvariantError("no-data-dependency-on-estimator", fmt.Sprintf("node(%d) takes a data dependency on estimator node(%d)", n, d.Node()))
				}
			}
		}
	}

	for s, ref := range g.sinkDependencies {
		if !g.resolves(ref) {
			return newInvalidRef("validate", simpleRef(sinkLabel(s)))
		}
	}

	for n, fit := range g.fitDependencies {
		delegator, ok := g.operators[n]
		if !ok {
			return newInvariantError("fit-dependency-shape", fmt.Sprintf("fit dependency recorded for unknown node(%d)", n))
		}
		if delegator.Kind() != KindDelegatingTransformer {
			return newInvariantError("fit-dependency-shape", fmt.Sprintf("node(%d) has a fit dependency but is not a delegating transformer", n))
		}
		estimator, ok := g.operators[fit]
		if !ok {
			return newInvalidRef("validate", NodeRef(fit))
		}
		if estimator.Kind() != KindEstimator {
			return newInvariantError("fit-dependency-shape", fmt.Sprintf("node(%d)'s fit dependency node(%d) is not an estimator", n, fit))
		}
	}

	for n, op := range g.operators {
		deps := g.dependencies[n]
		_, hasFit := g.fitDependencies[n]
		switch op.Kind() {
		case KindSource:
			if len(deps) != 0 {
				return newInvariantError("source-node-shape", fmt.Sprintf("source node(%d) has data dependencies", n))
			}
			if hasFit {
				return newInvariantError("source-node-shape", fmt.Sprintf("source node(%d) has a fit dependency", n))
			}
		case KindEstimator:
			if len(deps) == 0 {
				return newInvariantError("estimator-node-shape", fmt.Sprintf("estimator node(%d) has no data dependency", n))
			}
			if hasFit {
				return newInvariantError("estimator-node-shape", fmt.Sprintf("estimator node(%d) has a fit dependency", n))
			}
		case KindTransformer:
			if len(deps) == 0 {
				return newInvariantError("transformer-node-shape", fmt.Sprintf("transformer node(%d) has no data dependency", n))
			}
		case KindDelegatingTransformer:
			if len(deps) == 0 {
				return newInvariantError("fit-dependency-shape", fmt.Sprintf("delegating transformer node(%d) has no data dependency", n))
			}
			if !hasFit {
				return newInvariantError("fit-dependency-shape", fmt.Sprintf("delegating transformer node(%d) has no fit dependency", n))
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return &CycleError{Path: cycle}
	}

	return nil
}

// CycleError reports the node ids forming a cycle over the union of data
// and fit edges. It unwraps to both ErrCycleDetected and ErrInvalidArgument.
type CycleError struct {
	Path []NodeId
}

// Error renders the offending cycle as a chain of node ids.
func (e *CycleError) Error() string {
	msg := "graph: cycle: "
	for i, n := range e.Path {
		if i > 0 {
			msg += " -> "
		}
		msg += fmt.Sprintf("node(%d)", n)
	}
	return msg
}

// Unwrap reports this as ErrCycleDetected, in the invalid-argument family.
func (e *CycleError) Unwrap() []error { return []error{ErrCycleDetected, ErrInvalidArgument} }

// findCycle runs a DFS with a recursion stack over the union of data edges
// (g.dependencies, excluding source references, which are leaves and
// cannot participate in a cycle) and fit edges (g.fitDependencies),
// returning the first cycle found as a path of node ids, or nil if the
// graph is acyclic. Modeled on the recursion-stack-plus-path-reconstruction
// cycle check used elsewhere in this codebase for builder-time validation.
func (g *Graph) findCycle() []NodeId {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[NodeId]int, len(g.operators))
	var stack []NodeId

	var visit func(n NodeId) []NodeId
	visit = func(n NodeId) []NodeId {
		state[n] = visiting
		stack = append(stack, n)

		for _, next := range g.outEdges(n) {
			switch state[next] {
			case visiting:
				cycleStart := 0
				for i, id := range stack {
					if id == next {
						cycleStart = i
						break
					}
				}
				cycle := append([]NodeId{}, stack[cycleStart:]...)
				cycle = append(cycle, next)
				return cycle
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for n := range g.operators {
		if state[n] == unvisited {
			if cycle := visit(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// outEdges returns the node-valued dependencies of n (data edges) plus its
// fit edge, if any.
func (g *Graph) outEdges(n NodeId) []NodeId {
	var out []NodeId
	for _, d := range g.dependencies[n] {
		if d.IsNode() {
			out = append(out, d.Node())
		}
	}
	if fit, ok := g.fitDependencies[n]; ok {
		out = append(out, fit)
	}
	return out
}
