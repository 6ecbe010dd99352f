package graph

// AddSource returns a new Graph with one additional source, identified by
// a freshly minted SourceId.
func (g *Graph) AddSource() (*Graph, SourceId) {
	gen := g.nextID()
	id := gen.sourceID()
	next := g.shallowCopy()
	next.sources[id] = struct{}{}
	return next, id
}

// AddNode returns a new Graph with one additional node of the given kind,
// wired to the given ordered data dependencies and, for a
// DelegatingTransformerNode, the given fit dependency. Fails with
// ErrInvalidArgument (wrapped) if the result would violate one of this
// package's structural rules; fit must be the zero NodeId and is ignored
// for non-delegating node kinds.
func (g *Graph) AddNode(node Node, dependencies []DepRef, fit NodeId, hasFit bool) (*Graph, NodeId, error) {
	gen := g.nextID()
	id := gen.node()

	next := g.shallowCopy()
	next.operators[id] = node
	next.dependencies[id] = append([]DepRef{}, dependencies...)
	if node.Kind() == KindDelegatingTransformer && hasFit {
		next.fitDependencies[id] = fit
	}

	if err := next.validate(); err != nil {
		return nil, 0, err
	}
	return next, id, nil
}

// AddSink returns a new Graph with one additional sink, identified by a
// freshly minted SinkId, pointing at ref. Fails if ref does not resolve.
func (g *Graph) AddSink(ref DepRef) (*Graph, SinkId, error) {
	gen := g.nextID()
	id := gen.sinkID()

	next := g.shallowCopy()
	next.sinkDependencies[id] = ref

	if err := next.validate(); err != nil {
		return nil, 0, err
	}
	return next, id, nil
}

// SetDependencies returns a new Graph with n's ordered data dependency list
// replaced wholesale. Fails with ErrNotFound if n is not a node of this
// graph, or with an invariant error if the replacement would leave n's
// dependency shape inconsistent with its kind.
func (g *Graph) SetDependencies(n NodeId, dependencies []DepRef) (*Graph, error) {
	if !g.HasNode(n) {
		return nil, newNotFound("SetDependencies", NodeRef(n))
	}
	next := g.shallowCopy()
	next.dependencies[n] = append([]DepRef{}, dependencies...)
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// SetOperator returns a new Graph with n's node replaced by node, keeping
// n's existing dependencies. n's fit dependency is kept if node is a
// DelegatingTransformerNode and dropped otherwise. Fails with ErrNotFound if n
// is not a node of this graph, or with an invariant error if node's kind is
// incompatible with n's current dependency shape.
func (g *Graph) SetOperator(n NodeId, node Node) (*Graph, error) {
	if !g.HasNode(n) {
		return nil, newNotFound("SetOperator", NodeRef(n))
	}
	next := g.shallowCopy()
	next.operators[n] = node
	if node.Kind() != KindDelegatingTransformer {
		delete(next.fitDependencies, n)
	}
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// SetSinkDependency returns a new Graph with s's dependency replaced by
// ref. Fails with ErrNotFound if s is not a sink of this graph, or with an
// invalid-argument error if ref does not resolve.
func (g *Graph) SetSinkDependency(s SinkId, ref DepRef) (*Graph, error) {
	if !g.HasSink(s) {
		return nil, newNotFound("SetSinkDependency", simpleRef(sinkLabel(s)))
	}
	next := g.shallowCopy()
	next.sinkDependencies[s] = ref
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// RemoveSink returns a new Graph with s removed. Fails with ErrNotFound if
// s is not a sink of this graph.
func (g *Graph) RemoveSink(s SinkId) (*Graph, error) {
	if !g.HasSink(s) {
		return nil, newNotFound("RemoveSink", simpleRef(sinkLabel(s)))
	}
	next := g.shallowCopy()
	delete(next.sinkDependencies, s)
	return next, nil
}

// RemoveSource returns a new Graph with s removed. Any dependency
// referencing s is left in place, becoming dangling; see
// Graph.DanglingReferences. Fails with ErrNotFound if s is not a source of
// this graph.
func (g *Graph) RemoveSource(s SourceId) (*Graph, error) {
	if !g.HasSource(s) {
		return nil, newNotFound("RemoveSource", simpleRef(sourceLabel(s)))
	}
	next := g.shallowCopy()
	delete(next.sources, s)
	return next, nil
}

// RemoveNode returns a new Graph with n removed, along with its
// dependencies and fit dependency entries. Any other node's or sink's
// reference to n is left in place, becoming dangling; see
// Graph.DanglingReferences. Fails with ErrNotFound if n is not a node of
// this graph.
func (g *Graph) RemoveNode(n NodeId) (*Graph, error) {
	if !g.HasNode(n) {
		return nil, newNotFound("RemoveNode", NodeRef(n))
	}
	next := g.shallowCopy()
	delete(next.operators, n)
	delete(next.dependencies, n)
	delete(next.fitDependencies, n)
	return next, nil
}

// ReplaceDependency returns a new Graph in which every occurrence of
// oldRef, anywhere it appears as a dependency across the whole graph — in
// any node's data dependency list, or in any sink's dependency — is
// replaced with newRef, preserving position and duplicate count (e.g. a
// node depending on [A, A, B] with A replaced by C becomes [C, C, B]).
// oldRef and newRef must each resolve to an existing node or source; the
// node or source oldRef names is not itself removed. Fails with
// ErrInvalidArgument if either reference does not resolve, or with an
// invariant error if the rewrite would leave some node's dependency shape
// inconsistent with its kind.
func (g *Graph) ReplaceDependency(oldRef, newRef DepRef) (*Graph, error) {
	if !g.resolves(oldRef) {
		return nil, newInvalidRef("ReplaceDependency", oldRef)
	}
	if !g.resolves(newRef) {
		return nil, newInvalidRef("ReplaceDependency", newRef)
	}

	next := g.shallowCopy()

	for n, deps := range next.dependencies {
		replaced := make([]DepRef, len(deps))
		for i, d := range deps {
			if d == oldRef {
				replaced[i] = newRef
			} else {
				replaced[i] = d
			}
		}
		next.dependencies[n] = replaced
	}

	for s, ref := range next.sinkDependencies {
		if ref == oldRef {
			next.sinkDependencies[s] = newRef
		}
	}

	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func sourceLabel(s SourceId) string {
	return "source(" + itoa(int64(s)) + ")"
}

// shallowCopy returns a new Graph whose five maps are independent copies of
// g's, suitable as the starting point for a single rewrite. It does not
// validate the result; callers validate after making their change.
func (g *Graph) shallowCopy() *Graph {
	return &Graph{
		sources:          cloneSourceSet(g.Sources()),
		operators:        cloneOperators(g.operators),
		dependencies:     cloneDependencies(g.dependencies),
		sinkDependencies: cloneSinkDeps(g.sinkDependencies),
		fitDependencies:  cloneFitDeps(g.fitDependencies),
	}
}
