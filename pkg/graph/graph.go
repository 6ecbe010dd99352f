package graph

import "sort"

// Graph is an immutable directed-acyclic structure of sources, sinks, and
// nodes. Every exported mutator in mutate.go and compose.go returns a new
// Graph; this type itself is never mutated in place after construction.
type Graph struct {
	sources           map[SourceId]struct{}
	operators         map[NodeId]Node
	dependencies      map[NodeId][]DepRef
	sinkDependencies  map[SinkId]DepRef
	fitDependencies   map[NodeId]NodeId // DelegatingTransformerNode -> EstimatorNode
}

// New constructs a Graph directly from its four defining maps/sets plus the
// per-node fit dependencies, rejecting any violation of the package's
// structural rules with an invalid-argument (or cycle-detected) error. The
// input maps are copied; the caller's maps may be reused or mutated
// afterward without affecting the returned Graph.
func New(
	sources []SourceId,
	operators map[NodeId]Node,
	dependencies map[NodeId][]DepRef,
	sinkDependencies map[SinkId]DepRef,
	fitDependencies map[NodeId]NodeId,
) (*Graph, error) {
	g := &Graph{
		sources:          cloneSourceSet(sources),
		operators:        cloneOperators(operators),
		dependencies:     cloneDependencies(dependencies),
		sinkDependencies: cloneSinkDeps(sinkDependencies),
		fitDependencies:  cloneFitDeps(fitDependencies),
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Empty returns a Graph with no sources, nodes, or sinks: a valid starting
// point for AddSource/AddNode/AddSink.
func Empty() *Graph {
	g, _ := New(nil, nil, nil, nil, nil)
	return g
}

// Nodes returns the NodeIds in the graph, sorted for deterministic
// iteration: callers get reproducible output without needing their own
// sort, even though the underlying set has no inherent order.
func (g *Graph) Nodes() []NodeId {
	ids := make([]NodeId, 0, len(g.operators))
	for id := range g.operators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sources returns the SourceIds in the graph, sorted for deterministic
// iteration.
func (g *Graph) Sources() []SourceId {
	ids := make([]SourceId, 0, len(g.sources))
	for id := range g.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sinks returns the SinkIds in the graph, sorted for deterministic
// iteration.
func (g *Graph) Sinks() []SinkId {
	ids := make([]SinkId, 0, len(g.sinkDependencies))
	for id := range g.sinkDependencies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetDependencies returns the ordered dependency sequence recorded for n.
// Order is meaningful: it is the argument order passed to the node's
// operator. Fails with ErrNotFound if n is not a node of this graph.
func (g *Graph) GetDependencies(n NodeId) ([]DepRef, error) {
	deps, ok := g.dependencies[n]
	if !ok {
		return nil, newNotFound("GetDependencies", NodeRef(n))
	}
	out := make([]DepRef, len(deps))
	copy(out, deps)
	return out, nil
}

// GetSinkDependency returns the single dependency a sink points at. Fails
// with ErrNotFound if s is not a sink of this graph.
func (g *Graph) GetSinkDependency(s SinkId) (DepRef, error) {
	ref, ok := g.sinkDependencies[s]
	if !ok {
		return DepRef{}, newNotFound("GetSinkDependency", simpleRef(sinkLabel(s)))
	}
	return ref, nil
}

// GetOperator returns the node kind registered at n. Fails with
// ErrNotFound if n is not a node of this graph.
func (g *Graph) GetOperator(n NodeId) (Node, error) {
	op, ok := g.operators[n]
	if !ok {
		return Node{}, newNotFound("GetOperator", NodeRef(n))
	}
	return op, nil
}

// FitDependency returns the EstimatorNode a DelegatingTransformerNode
// depends on for its fit result, and whether one is recorded. Non-delegating
// nodes always report ok=false.
func (g *Graph) FitDependency(n NodeId) (NodeId, bool) {
	fit, ok := g.fitDependencies[n]
	return fit, ok
}

// HasSource reports whether s is a source of this graph.
func (g *Graph) HasSource(s SourceId) bool {
	_, ok := g.sources[s]
	return ok
}

// HasNode reports whether n is a node of this graph.
func (g *Graph) HasNode(n NodeId) bool {
	_, ok := g.operators[n]
	return ok
}

// HasSink reports whether s is a sink of this graph.
func (g *Graph) HasSink(s SinkId) bool {
	_, ok := g.sinkDependencies[s]
	return ok
}

// resolves reports whether ref names an existing node or source.
func (g *Graph) resolves(ref DepRef) bool {
	if ref.IsNode() {
		return g.HasNode(ref.Node())
	}
	return g.HasSource(ref.SourceID())
}

// DanglingReferences reports, per node, every DepRef in that node's data
// dependency list that no longer resolves to a node or source in this
// graph. Sink dependencies and fit dependencies are not checked. RemoveNode
// and RemoveSource deliberately leave such references in place rather than
// rewriting or rejecting them — see DESIGN.md; this is a read-only
// diagnostic a caller can use to find what they left behind, not a mutator.
func (g *Graph) DanglingReferences() map[NodeId][]DepRef {
	dangling := make(map[NodeId][]DepRef)
	for n, deps := range g.dependencies {
		for _, d := range deps {
			if !g.resolves(d) {
				dangling[n] = append(dangling[n], d)
			}
		}
	}
	return dangling
}

func sinkLabel(s SinkId) string {
	return "sink(" + itoa(int64(s)) + ")"
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func cloneSourceSet(sources []SourceId) map[SourceId]struct{} {
	out := make(map[SourceId]struct{}, len(sources))
	for _, s := range sources {
		out[s] = struct{}{}
	}
	return out
}

func cloneOperators(operators map[NodeId]Node) map[NodeId]Node {
	out := make(map[NodeId]Node, len(operators))
	for k, v := range operators {
		out[k] = v
	}
	return out
}

func cloneDependencies(dependencies map[NodeId][]DepRef) map[NodeId][]DepRef {
	out := make(map[NodeId][]DepRef, len(dependencies))
	for k, v := range dependencies {
		cp := make([]DepRef, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func cloneSinkDeps(sinkDependencies map[SinkId]DepRef) map[SinkId]DepRef {
	out := make(map[SinkId]DepRef, len(sinkDependencies))
	for k, v := range sinkDependencies {
		out[k] = v
	}
	return out
}

func cloneFitDeps(fitDependencies map[NodeId]NodeId) map[NodeId]NodeId {
	out := make(map[NodeId]NodeId, len(fitDependencies))
	for k, v := range fitDependencies {
		out[k] = v
	}
	return out
}

// nextID seeds a fresh idGen from the largest identifier already used by
// this graph, per the freshness rule in the design notes: allocate from
// max(existing)+1 so new ids can never collide with anything already
// present.
func (g *Graph) nextID() *idGen {
	var max int64 = -1
	for id := range g.operators {
		if int64(id) > max {
			max = int64(id)
		}
	}
	for id := range g.sources {
		if int64(id) > max {
			max = int64(id)
		}
	}
	for id := range g.sinkDependencies {
		if int64(id) > max {
			max = int64(id)
		}
	}
	return newIDGen(max + 1)
}
