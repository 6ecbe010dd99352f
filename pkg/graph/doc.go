// Package graph implements the immutable directed-acyclic-graph data model
// that a pipeline is built from: nodes (data sources, pure transformers,
// estimators, and delegating transformers), sources, sinks, and the
// dependency relations between them.
//
// # Overview
//
// A Graph is a value: every rewrite (AddNode, SetDependencies,
// ReplaceDependency, ...) returns a new Graph rather than mutating the
// receiver. Identifiers (NodeId, SourceId, SinkId) are stable for the
// lifetime of a Graph value; rewrites that introduce new ones mint
// identifiers strictly greater than any already in use.
//
// # Invariants
//
// Every Graph returned by New or by a mutator satisfies the following
// structural rules:
//
//   - every dependency reference resolves to a node or source that exists
//   - the dependencies map's key set equals the operators map's key set
//   - SourceNodes have no data or fit dependencies
//   - EstimatorNodes have at least one data dependency and no fit dependency
//   - TransformerNodes have at least one data dependency
//   - DelegatingTransformerNodes have at least one data dependency and
//     exactly one fit dependency, which must name an EstimatorNode
//   - data dependencies never name an EstimatorNode
//   - the graph, over the union of data edges and fit edges, is acyclic
//
// The one exception is removal: RemoveNode and RemoveSource leave other
// entries' references to the removed id in place, so a Graph they return
// may hold references that no longer resolve (see Graph.DanglingReferences).
//
// # Thread Safety
//
// Graph values are immutable after construction and safe for concurrent
// read access. Mutators never share state with their receiver; each
// allocates and returns an independent value.
package graph
