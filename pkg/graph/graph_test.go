package graph

import (
	"errors"
	"testing"
)

func mustAddNode(t *testing.T, g *Graph, node Node, deps []DepRef) (*Graph, NodeId) {
	t.Helper()
	next, id, err := g.AddNode(node, deps, 0, false)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	return next, id
}

func TestEmptyGraphHasNoMembers(t *testing.T) {
	g := Empty()
	if len(g.Nodes()) != 0 || len(g.Sources()) != 0 || len(g.Sinks()) != 0 {
		t.Fatalf("Empty() graph is not empty: %+v", g)
	}
}

func TestBuildLinearPipeline(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, srcNode := mustAddNode(t, g, NewSourceNode("constant"), nil)
	g, xform := mustAddNode(t, g, NewTransformerNode("double"), []DepRef{SourceRef(src)})
	_ = srcNode

	g, sink, err := g.AddSink(NodeRef(xform))
	if err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	deps, err := g.GetDependencies(xform)
	if err != nil || len(deps) != 1 || !deps[0].IsSource() || deps[0].SourceID() != src {
		t.Fatalf("unexpected dependencies for transformer node: %+v, err=%v", deps, err)
	}

	ref, err := g.GetSinkDependency(sink)
	if err != nil || !ref.IsNode() || ref.Node() != xform {
		t.Fatalf("unexpected sink dependency: %+v, err=%v", ref, err)
	}
}

func TestAddNodeRejectsUnresolvedDependency(t *testing.T) {
	g := Empty()
	_, _, err := g.AddNode(NewTransformerNode("double"), []DepRef{SourceRef(99)}, 0, false)
	if err == nil {
		t.Fatal("expected error for dependency on nonexistent source")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSourceNodeRejectsDataDependency(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	_, _, err := g.AddNode(NewSourceNode("constant"), []DepRef{SourceRef(src)}, 0, false)
	if err == nil {
		t.Fatal("expected source-node-shape violation")
	}
	var invErr *InvariantError
	if !errors.As(err, &invErr) || invErr.Invariant != "source-node-shape" {
		t.Fatalf("expected source-node-shape InvariantError, got %v", err)
	}
}

func TestTransformerNodeRequiresDependency(t *testing.T) {
	g := Empty()
	_, _, err := g.AddNode(NewTransformerNode("double"), nil, 0, false)
	if err == nil {
		t.Fatal("expected transformer-node-shape violation")
	}
	var invErr *InvariantError
	if !errors.As(err, &invErr) || invErr.Invariant != "transformer-node-shape" {
		t.Fatalf("expected transformer-node-shape InvariantError, got %v", err)
	}
}

func TestDataDependencyCannotTargetEstimator(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, estimator := mustAddNode(t, g, NewEstimatorNode("fit-mean"), []DepRef{SourceRef(src)})
	_, _, err := g.AddNode(NewTransformerNode("double"), []DepRef{NodeRef(estimator)}, 0, false)
	if err == nil {
		t.Fatal("expected no-data-dependency-on-estimator violation")
	}
	var invErr *InvariantError
	if !errors.As(err, &invErr) || invErr.Invariant != "no-data-dependency-on-estimator" {
		t.Fatalf("expected no-data-dependency-on-estimator InvariantError, got %v", err)
	}
}

func TestDelegatingTransformerRequiresFitDependency(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	_, _, err := g.AddNode(NewDelegatingTransformerNode(), []DepRef{SourceRef(src)}, 0, false)
	if err == nil {
		t.Fatal("expected fit-dependency-shape violation")
	}
	var invErr *InvariantError
	if !errors.As(err, &invErr) || invErr.Invariant != "fit-dependency-shape" {
		t.Fatalf("expected fit-dependency-shape InvariantError, got %v", err)
	}
}

func TestDelegatingTransformerWithFitDependency(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, estimator := mustAddNode(t, g, NewEstimatorNode("fit-mean"), []DepRef{SourceRef(src)})
	g, delegator, err := g.AddNode(NewDelegatingTransformerNode(), []DepRef{SourceRef(src)}, estimator, true)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	fit, ok := g.FitDependency(delegator)
	if !ok || fit != estimator {
		t.Fatalf("FitDependency() = (%v, %v), want (%v, true)", fit, ok, estimator)
	}
}

func TestFitDependencyMustNameEstimator(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, plain := mustAddNode(t, g, NewTransformerNode("double"), []DepRef{SourceRef(src)})
	_, _, err := g.AddNode(NewDelegatingTransformerNode(), []DepRef{SourceRef(src)}, plain, true)
	if err == nil {
		t.Fatal("expected fit-dependency-shape violation: fit dependency does not name an estimator")
	}
}

func TestCycleIsRejected(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, a := mustAddNode(t, g, NewTransformerNode("a"), []DepRef{SourceRef(src)})
	g, b, err := g.AddNode(NewTransformerNode("b"), []DepRef{NodeRef(a)}, 0, false)
	if err != nil {
		t.Fatalf("AddNode b: %v", err)
	}

	_, err = g.SetDependencies(a, []DepRef{NodeRef(b)})
	if err == nil {
		t.Fatal("expected cycle to be rejected")
	}
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestRemoveNodeLeavesDanglingReference(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, a := mustAddNode(t, g, NewTransformerNode("a"), []DepRef{SourceRef(src)})
	g, _ = mustAddNode(t, g, NewTransformerNode("b"), []DepRef{NodeRef(a)})

	g, err := g.RemoveNode(a)
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}

	dangling := g.DanglingReferences()
	if len(dangling) != 1 {
		t.Fatalf("expected exactly one node with a dangling reference, got %d", len(dangling))
	}
}

func TestReplaceDependencyPreservesPositionAndDuplicates(t *testing.T) {
	g := Empty()
	g, src := g.AddSource()
	g, a := mustAddNode(t, g, NewTransformerNode("a"), []DepRef{SourceRef(src)})
	g, other := mustAddNode(t, g, NewTransformerNode("other"), []DepRef{SourceRef(src)})
	g, combiner := mustAddNode(t, g, NewTransformerNode("combine"), []DepRef{NodeRef(a), NodeRef(a), NodeRef(other)})

	g, err := g.ReplaceDependency(NodeRef(a), NodeRef(other))
	if err != nil {
		t.Fatalf("ReplaceDependency: %v", err)
	}

	deps, err := g.GetDependencies(combiner)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	want := []DepRef{NodeRef(other), NodeRef(other), NodeRef(other)}
	if len(deps) != len(want) {
		t.Fatalf("got %d deps, want %d", len(deps), len(want))
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Fatalf("deps[%d] = %v, want %v", i, deps[i], want[i])
		}
	}
}

// TestReplaceDependencyRewritesAcrossWholeGraph exercises the graph-wide
// contract: a single call rewrites the reference everywhere it occurs, not
// just in one node's own dependency list — across multiple unrelated
// nodes and a sink in the same call.
func TestReplaceDependencyRewritesAcrossWholeGraph(t *testing.T) {
	g := Empty()
	g, src1 := g.AddSource()
	g, src2 := g.AddSource()
	g, a := mustAddNode(t, g, NewTransformerNode("a"), []DepRef{SourceRef(src1)})
	g, left := mustAddNode(t, g, NewTransformerNode("left"), []DepRef{SourceRef(src2), NodeRef(a)})
	g, right := mustAddNode(t, g, NewTransformerNode("right"), []DepRef{NodeRef(a), SourceRef(src2), SourceRef(src2)})
	g, sink, err := g.AddSink(SourceRef(src2))
	if err != nil {
		t.Fatalf("AddSink: %v", err)
	}

	g, err = g.ReplaceDependency(SourceRef(src2), NodeRef(a))
	if err != nil {
		t.Fatalf("ReplaceDependency: %v", err)
	}

	leftDeps, err := g.GetDependencies(left)
	want := []DepRef{NodeRef(a), NodeRef(a)}
	if err != nil || len(leftDeps) != len(want) {
		t.Fatalf("GetDependencies(left): %+v, err=%v", leftDeps, err)
	}
	for i := range want {
		if leftDeps[i] != want[i] {
			t.Fatalf("left.deps[%d] = %v, want %v", i, leftDeps[i], want[i])
		}
	}

	rightDeps, err := g.GetDependencies(right)
	if err != nil {
		t.Fatalf("GetDependencies(right): %v", err)
	}
	wantRight := []DepRef{NodeRef(a), NodeRef(a), NodeRef(a)}
	for i := range wantRight {
		if rightDeps[i] != wantRight[i] {
			t.Fatalf("right.deps[%d] = %v, want %v", i, rightDeps[i], wantRight[i])
		}
	}

	ref, err := g.GetSinkDependency(sink)
	if err != nil || ref != NodeRef(a) {
		t.Fatalf("sink dependency not rewritten: %+v, err=%v", ref, err)
	}
}

func TestFreshIDsAreMonotonic(t *testing.T) {
	g := Empty()
	g, src1 := g.AddSource()
	g, _ = mustAddNode(t, g, NewSourceNode("x"), nil)
	g, src2 := g.AddSource()
	if src2 <= src1 {
		t.Fatalf("expected src2 (%d) > src1 (%d)", src2, src1)
	}
}
