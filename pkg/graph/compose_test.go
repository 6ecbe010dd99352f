package graph

import "testing"

func buildSourceToSink(t *testing.T) (*Graph, SourceId, NodeId, SinkId) {
	t.Helper()
	g := Empty()
	g, src := g.AddSource()
	g, node := mustAddNode(t, g, NewTransformerNode("double"), []DepRef{SourceRef(src)})
	g, sink, err := g.AddSink(NodeRef(node))
	if err != nil {
		t.Fatalf("AddSink: %v", err)
	}
	return g, src, node, sink
}

func TestAddGraphRenumbersDisjointly(t *testing.T) {
	base := Empty()
	base, baseSrc := base.AddSource()
	base, baseNode := mustAddNode(t, base, NewTransformerNode("base"), []DepRef{SourceRef(baseSrc)})

	other, otherSrc, otherNode, otherSink := buildSourceToSink(t)

	merged, mapping := base.AddGraph(other)

	if _, ok := mapping.Nodes[otherNode]; !ok {
		t.Fatal("expected other's node to appear in the id mapping")
	}
	if mapping.Nodes[otherNode] == baseNode {
		t.Fatal("grafted node id collides with base graph's node id")
	}

	grafted := mapping.Nodes[otherNode]
	deps, err := merged.GetDependencies(grafted)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 1 || !deps[0].IsSource() || deps[0].SourceID() != mapping.Sources[otherSrc] {
		t.Fatalf("grafted node dependency not translated: %+v", deps)
	}

	graftedSink := mapping.Sinks[otherSink]
	if !merged.HasSink(graftedSink) {
		t.Fatal("grafted sink missing from merged graph")
	}
}

func TestConnectGraphSplicesSources(t *testing.T) {
	base := Empty()
	base, baseSrc := base.AddSource()
	base, baseNode := mustAddNode(t, base, NewTransformerNode("upstream"), []DepRef{SourceRef(baseSrc)})

	other, otherSrc, otherNode, _ := buildSourceToSink(t)

	connected, mapping, err := base.ConnectGraph(other, map[SourceId]DepRef{
		otherSrc: NodeRef(baseNode),
	})
	if err != nil {
		t.Fatalf("ConnectGraph: %v", err)
	}

	graftedNode := mapping.Nodes[otherNode]
	deps, err := connected.GetDependencies(graftedNode)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 1 || !deps[0].IsNode() || deps[0].Node() != baseNode {
		t.Fatalf("expected grafted node to depend on baseNode after splice, got %+v", deps)
	}

	graftedSrc := mapping.Sources[otherSrc]
	if connected.HasSource(graftedSrc) {
		t.Fatal("spliced source should not remain a member of the connected graph")
	}
}

func TestConnectGraphRejectsIncompleteSpliceMap(t *testing.T) {
	base := Empty()
	other, _, _, _ := buildSourceToSink(t)

	_, _, err := base.ConnectGraph(other, map[SourceId]DepRef{})
	if err == nil {
		t.Fatal("expected error for splice map missing other's source")
	}
}

func TestReplaceNodesSplicesInReplacementSubgraph(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, oldNode := mustAddNode(t, g, NewTransformerNode("old"), []DepRef{SourceRef(src)})
	g, downstream := mustAddNode(t, g, NewTransformerNode("downstream"), []DepRef{NodeRef(oldNode)})
	g, sink, err := g.AddSink(NodeRef(oldNode))
	if err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	replacement := Empty()
	replacement, replSrc := replacement.AddSource()
	replacement, replNode := mustAddNode(t, replacement, NewTransformerNode("new"), []DepRef{SourceRef(replSrc)})
	replacement, replSink, err := replacement.AddSink(NodeRef(replNode))
	if err != nil {
		t.Fatalf("AddSink on replacement: %v", err)
	}

	g, err = g.ReplaceNodes(
		[]NodeId{oldNode},
		replacement,
		map[SourceId]DepRef{replSrc: SourceRef(src)},
		map[NodeId]SinkId{oldNode: replSink},
	)
	if err != nil {
		t.Fatalf("ReplaceNodes: %v", err)
	}

	if g.HasNode(oldNode) {
		t.Fatal("old node should have been removed")
	}

	deps, err := g.GetDependencies(downstream)
	if err != nil || len(deps) != 1 || !deps[0].IsNode() {
		t.Fatalf("downstream dependency not rewritten to a node: %+v, err=%v", deps, err)
	}
	grafted := deps[0].Node()

	graftedDeps, err := g.GetDependencies(grafted)
	if err != nil || len(graftedDeps) != 1 || !graftedDeps[0].IsSource() || graftedDeps[0].SourceID() != src {
		t.Fatalf("grafted replacement node's own dependency not spliced to src: %+v, err=%v", graftedDeps, err)
	}

	ref, err := g.GetSinkDependency(sink)
	if err != nil || !ref.IsNode() || ref.Node() != grafted {
		t.Fatalf("sink dependency not rewritten to the grafted replacement node: %+v, err=%v", ref, err)
	}
}

func TestReplaceNodesRejectsIncompleteSinkSplice(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, oldNode := mustAddNode(t, g, NewTransformerNode("old"), []DepRef{SourceRef(src)})
	_, _, err := g.AddSink(NodeRef(oldNode))
	if err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	replacement := Empty()
	replacement, replSrc := replacement.AddSource()
	replacement, replNode := mustAddNode(t, replacement, NewTransformerNode("new"), []DepRef{SourceRef(replSrc)})
	replacement, _, err = replacement.AddSink(NodeRef(replNode))
	if err != nil {
		t.Fatalf("AddSink on replacement: %v", err)
	}

	_, err = g.ReplaceNodes(
		[]NodeId{oldNode},
		replacement,
		map[SourceId]DepRef{replSrc: SourceRef(src)},
		map[NodeId]SinkId{},
	)
	if err == nil {
		t.Fatal("expected error for replacementSinkSplice missing an entry for a removed node")
	}
}
