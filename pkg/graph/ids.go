package graph

import "fmt"

// NodeId identifies a node within a Graph. NodeId, SourceId, and SinkId are
// disjoint identifier spaces, each a monotonically assigned opaque integer.
type NodeId int64

// SourceId identifies a typed input port of a Graph. Sources are not nodes.
type SourceId int64

// SinkId names an output port of a Graph. A sink resolves to exactly one
// DepRef.
type SinkId int64

// DepRef is a reference to something a node or sink may depend on: either a
// NodeId or a SourceId. Exactly one of IsNode/IsSource is true for any
// well-formed DepRef; the zero value is not a valid DepRef.
type DepRef struct {
	node    NodeId
	source  SourceId
	isNode  bool
	isSrc   bool
}

// NodeRef builds a DepRef pointing at a node.
func NodeRef(n NodeId) DepRef { return DepRef{node: n, isNode: true} }

// SourceRef builds a DepRef pointing at a source.
func SourceRef(s SourceId) DepRef { return DepRef{source: s, isSrc: true} }

// IsNode reports whether the reference names a node.
func (r DepRef) IsNode() bool { return r.isNode }

// IsSource reports whether the reference names a source.
func (r DepRef) IsSource() bool { return r.isSrc }

// Node returns the referenced NodeId. Panics if IsNode is false; callers
// should check IsNode/IsSource first, as with a type switch on a sum type.
func (r DepRef) Node() NodeId {
	if !r.isNode {
		panic("graph: DepRef.Node called on a source reference")
	}
	return r.node
}

// SourceID returns the referenced SourceId. Panics if IsSource is false.
func (r DepRef) SourceID() SourceId {
	if !r.isSrc {
		panic("graph: DepRef.SourceID called on a node reference")
	}
	return r.source
}

// String renders the reference for logs and error messages.
func (r DepRef) String() string {
	switch {
	case r.isNode:
		return fmt.Sprintf("node(%d)", r.node)
	case r.isSrc:
		return fmt.Sprintf("source(%d)", r.source)
	default:
		return "<invalid-ref>"
	}
}

// idGen mints fresh identifiers strictly greater than every id already
// allocated in the graph it was created for. It is the per-graph monotonic
// counter described in the design notes: freshness is derived from
// max(existing ids)+1, never reused across the module's lifetime of a
// single Graph value.
type idGen struct {
	next int64
}

func newIDGen(seed int64) *idGen {
	return &idGen{next: seed}
}

func (g *idGen) node() NodeId {
	id := g.next
	g.next++
	return NodeId(id)
}

func (g *idGen) sourceID() SourceId {
	id := g.next
	g.next++
	return SourceId(id)
}

func (g *idGen) sinkID() SinkId {
	id := g.next
	g.next++
	return SinkId(id)
}
