package graph

// IDMapping records how a grafted graph's identifiers were renumbered when
// merged into another graph by AddGraph or ConnectGraph, so a caller that
// built dependency lists against the original graph's ids can translate
// them against the result.
type IDMapping struct {
	Nodes   map[NodeId]NodeId
	Sources map[SourceId]SourceId
	Sinks   map[SinkId]SinkId
}

// AddGraph returns a new Graph containing every source, node, and sink of
// both g and other, disjointly renumbered so none of other's identifiers
// collide with g's. other's internal dependency structure (including its
// fit dependencies) is preserved, translated through the returned mapping;
// no edges are added between g and other.
func (g *Graph) AddGraph(other *Graph) (*Graph, IDMapping) {
	gen := g.nextID()
	mapping := IDMapping{
		Nodes:   make(map[NodeId]NodeId, len(other.operators)),
		Sources: make(map[SourceId]SourceId, len(other.sources)),
		Sinks:   make(map[SinkId]SinkId, len(other.sinkDependencies)),
	}

	next := g.shallowCopy()

	for _, s := range other.Sources() {
		mapping.Sources[s] = gen.sourceID()
		next.sources[mapping.Sources[s]] = struct{}{}
	}
	for _, n := range other.Nodes() {
		mapping.Nodes[n] = gen.node()
	}
	for _, n := range other.Nodes() {
		newID := mapping.Nodes[n]
		next.operators[newID] = other.operators[n]
		next.dependencies[newID] = translateDeps(other.dependencies[n], mapping)
		if fit, ok := other.fitDependencies[n]; ok {
			next.fitDependencies[newID] = mapping.Nodes[fit]
		}
	}
	for _, s := range other.Sinks() {
		newID := gen.sinkID()
		mapping.Sinks[s] = newID
		next.sinkDependencies[newID] = translateRef(other.sinkDependencies[s], mapping)
	}

	return next, mapping
}

// ConnectGraph grafts other into g the way AddGraph does, then splices
// other's sources: splice must map every one of other's SourceIds to a
// DepRef resolving within g (a node or source already present in g),
// and every dependency of other's nodes on a spliced source is rewritten
// to point at splice's target instead. Fails with ErrInvalidArgument if
// splice's key set is not exactly other's source set, or if a splice
// target does not resolve in g.
func (g *Graph) ConnectGraph(other *Graph, splice map[SourceId]DepRef) (*Graph, IDMapping, error) {
	otherSources := other.Sources()
	if len(splice) != len(otherSources) {
		return nil, IDMapping{}, newInvalidRef("ConnectGraph", simpleRef("splice map does not cover exactly other's sources"))
	}
	for _, s := range otherSources {
		target, ok := splice[s]
		if !ok {
			return nil, IDMapping{}, newInvalidRef("ConnectGraph", simpleRef(sourceLabel(s)))
		}
		if !g.resolves(target) {
			return nil, IDMapping{}, newInvalidRef("ConnectGraph", target)
		}
	}

	merged, mapping := g.AddGraph(other)

	next := merged.shallowCopy()
	for _, s := range otherSources {
		grafted := mapping.Sources[s]
		delete(next.sources, grafted)
	}
	for _, n := range mapping.Nodes {
		deps := next.dependencies[n]
		rewritten := make([]DepRef, len(deps))
		for i, d := range deps {
			rewritten[i] = d
			if d.IsSource() {
				for oldSrc, graftedSrc := range mapping.Sources {
					if d.SourceID() == graftedSrc {
						rewritten[i] = splice[oldSrc]
						break
					}
				}
			}
		}
		next.dependencies[n] = rewritten
	}

	if err := next.validate(); err != nil {
		return nil, IDMapping{}, err
	}
	return next, mapping, nil
}

// ReplaceNodes removes nodesToRemove from g and splices replacement into
// their place, the primary mechanism for substituting one subgraph for
// another. replacement is embedded into g with freshly minted identifiers
// (AddGraph-style): replacementSourceSplice must have exactly replacement's
// sources as its key set, and each value must resolve to a node or source
// already in g that is not itself one of nodesToRemove — replacement's own
// internal dependencies on those sources are rewritten to point at the
// splice's targets instead. replacementSinkSplice must have exactly
// nodesToRemove as its key set, and each value must be an actual sink of
// replacement: for every reference elsewhere in g to a node being removed,
// that reference is rewritten to whatever the corresponding
// replacementSinkSplice entry points at inside the now-embedded
// replacement. Fails with ErrNotFound if a key of nodesToRemove is not a
// node of this graph, with ErrInvalidArgument if either splice map's key
// set or target is malformed, or with an invariant error if the result
// would leave some dependency shape inconsistent with its node's kind.
func (g *Graph) ReplaceNodes(
	nodesToRemove []NodeId,
	replacement *Graph,
	replacementSourceSplice map[SourceId]DepRef,
	replacementSinkSplice map[NodeId]SinkId,
) (*Graph, error) {
	removed := make(map[NodeId]struct{}, len(nodesToRemove))
	for _, n := range nodesToRemove {
		if !g.HasNode(n) {
			return nil, newNotFound("ReplaceNodes", NodeRef(n))
		}
		removed[n] = struct{}{}
	}

	replacementSources := replacement.Sources()
	if len(replacementSourceSplice) != len(replacementSources) {
		return nil, newInvalidRef("ReplaceNodes", simpleRef("replacementSourceSplice does not cover exactly replacement's sources"))
	}
	for _, s := range replacementSources {
		target, ok := replacementSourceSplice[s]
		if !ok {
			return nil, newInvalidRef("ReplaceNodes", simpleRef(sourceLabel(s)))
		}
		if !g.resolves(target) {
			return nil, newInvalidRef("ReplaceNodes", target)
		}
		if target.IsNode() {
			if _, isRemoved := removed[target.Node()]; isRemoved {
				return nil, newInvalidRef("ReplaceNodes", target)
			}
		}
	}

	if len(replacementSinkSplice) != len(removed) {
		return nil, newInvalidRef("ReplaceNodes", simpleRef("replacementSinkSplice does not cover exactly nodesToRemove"))
	}
	for n, sink := range replacementSinkSplice {
		if _, ok := removed[n]; !ok {
			return nil, newInvalidRef("ReplaceNodes", NodeRef(n))
		}
		if !replacement.HasSink(sink) {
			return nil, newInvalidRef("ReplaceNodes", simpleRef(sinkLabel(sink)))
		}
	}

	merged, mapping := g.AddGraph(replacement)
	next := merged.shallowCopy()

	// Redirect replacement's own internal dependencies (and sinks) on its
	// sources to the refs replacementSourceSplice names in this graph, then
	// drop the now-unreferenced embedded sources, mirroring ConnectGraph's
	// splice step.
	for _, s := range replacementSources {
		embedded := mapping.Sources[s]
		target := replacementSourceSplice[s]
		for _, n := range mapping.Nodes {
			deps := next.dependencies[n]
			for i, d := range deps {
				if d.IsSource() && d.SourceID() == embedded {
					deps[i] = target
				}
			}
		}
		for _, embeddedSink := range mapping.Sinks {
			if ref := next.sinkDependencies[embeddedSink]; ref.IsSource() && ref.SourceID() == embedded {
				next.sinkDependencies[embeddedSink] = target
			}
		}
		delete(next.sources, embedded)
	}

	// Resolve, for each removed node, the ref replacementSinkSplice points
	// at inside the now-spliced replacement, then drop every embedded sink:
	// ReplaceNodes has no id-mapping return path for a caller to learn the
	// rest, so none of replacement's sinks survive into the result.
	redirectTo := make(map[NodeId]DepRef, len(removed))
	for n, sink := range replacementSinkSplice {
		redirectTo[n] = next.sinkDependencies[mapping.Sinks[sink]]
	}
	for _, embeddedSink := range mapping.Sinks {
		delete(next.sinkDependencies, embeddedSink)
	}

	for n, deps := range next.dependencies {
		if _, isRemoved := removed[n]; isRemoved {
			continue
		}
		rewritten := make([]DepRef, len(deps))
		for i, d := range deps {
			if d.IsNode() {
				if to, ok := redirectTo[d.Node()]; ok {
					rewritten[i] = to
					continue
				}
			}
			rewritten[i] = d
		}
		next.dependencies[n] = rewritten
	}

	for n, fit := range next.fitDependencies {
		if _, isRemoved := removed[n]; isRemoved {
			continue
		}
		if to, ok := redirectTo[fit]; ok && to.IsNode() {
			next.fitDependencies[n] = to.Node()
		}
	}

	for s, ref := range next.sinkDependencies {
		if ref.IsNode() {
			if to, ok := redirectTo[ref.Node()]; ok {
				next.sinkDependencies[s] = to
			}
		}
	}

	for n := range removed {
		delete(next.operators, n)
		delete(next.dependencies, n)
		delete(next.fitDependencies, n)
	}

	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func translateRef(ref DepRef, mapping IDMapping) DepRef {
	if ref.IsNode() {
		return NodeRef(mapping.Nodes[ref.Node()])
	}
	return SourceRef(mapping.Sources[ref.SourceID()])
}

func translateDeps(deps []DepRef, mapping IDMapping) []DepRef {
	out := make([]DepRef, len(deps))
	for i, d := range deps {
		out[i] = translateRef(d, mapping)
	}
	return out
}
