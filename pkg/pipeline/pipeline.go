package pipeline

import (
	"context"
	"sync"

	"github.com/flowforge/pipeline/pkg/graph"
	"github.com/flowforge/pipeline/pkg/op"
)

// Pipeline bundles a Graph with a designated sink and exposes the
// evaluation entry points a caller actually drives: ApplySingle for one
// item at a time, ApplyDataset for a whole dataset at once. Internally it
// keeps one Executor per distinct Optimizer identity it has been asked to
// run with, so fit and dataset memoization survive across calls as long as
// the same Pipeline value and the same Optimizer are reused.
type Pipeline struct {
	graph *graph.Graph
	sink  graph.SinkId
	config ExecutorConfig

	mu        sync.Mutex
	optimized map[string]*graph.Graph
	executors map[string]*Executor
}

// New builds a Pipeline over g, designating sink as the node whose value
// ApplySingle/ApplyDataset compute. Fails if sink is not a sink of g, or
// if sink's dependency tree does not resolve (possibly transitively) to
// reachable sources only via data edges.
func New(g *graph.Graph, sink graph.SinkId, config ExecutorConfig) (*Pipeline, error) {
	if !g.HasSink(sink) {
		return nil, newDAGError(0, "pipeline sink is not a sink of the given graph")
	}
	ref, err := g.GetSinkDependency(sink)
	if err != nil {
		return nil, err
	}
	if err := checkReachability(g, ref, make(map[graph.NodeId]bool)); err != nil {
		return nil, err
	}
	return &Pipeline{
		graph:     g,
		sink:      sink,
		config:    config,
		optimized: make(map[string]*graph.Graph),
		executors: make(map[string]*Executor),
	}, nil
}

// checkReachability walks ref's data-dependency tree: every path must
// bottom out at a source reference or a SourceNode, never at a dangling
// reference. Fit dependencies are not part of this walk — an estimator's
// own fitness is established separately, by FitEstimator/ApplyDataset, not
// by the sink's data reachability.
func checkReachability(g *graph.Graph, ref graph.DepRef, visiting map[graph.NodeId]bool) error {
	if ref.IsSource() {
		if !g.HasSource(ref.SourceID()) {
			return newDAGError(0, "pipeline sink depends on a dangling source reference")
		}
		return nil
	}

	n := ref.Node()
	if visiting[n] {
		return nil // the graph is already acyclic; avoid an infinite walk defensively.
	}
	visiting[n] = true

	node, err := g.GetOperator(n)
	if err != nil {
		return newDAGError(n, "pipeline sink depends on a dangling node reference")
	}
	if node.Kind() == graph.KindSource {
		return nil
	}

	deps, err := g.GetDependencies(n)
	if err != nil {
		return newDAGError(n, "unresolved dependencies")
	}
	for _, d := range deps {
		if err := checkReachability(g, d, visiting); err != nil {
			return err
		}
	}
	return nil
}

// executorFor returns the Executor bound to the graph this optimizer
// produces, building and caching both the optimized graph and its
// Executor the first time this optimizer's identity is seen. Conceptually
// the cache is keyed by (optimizer identity, pipeline graph identity);
// since a Pipeline's graph never changes after New, keying on identity
// alone is equivalent in practice.
func (p *Pipeline) executorFor(opt Optimizer) (*Executor, graph.DepRef, error) {
	id := opt.Identity()

	p.mu.Lock()
	exec, ok := p.executors[id]
	og := p.optimized[id]
	p.mu.Unlock()

	if !ok {
		var err error
		og, err = opt.Execute(p.graph)
		if err != nil {
			return nil, graph.DepRef{}, err
		}
		exec = NewExecutor(og, p.config)

		p.mu.Lock()
		if cached, already := p.executors[id]; already {
			exec = cached
			og = p.optimized[id]
		} else {
			p.executors[id] = exec
			p.optimized[id] = og
		}
		p.mu.Unlock()
	}

	ref, err := og.GetSinkDependency(p.sink)
	if err != nil {
		return nil, graph.DepRef{}, err
	}
	return exec, ref, nil
}

// ApplySingle evaluates the pipeline's sink against item, using
// DefaultOptimizer.
func (p *Pipeline) ApplySingle(ctx context.Context, item op.Datum) (op.Datum, error) {
	return p.ApplySingleWith(ctx, item, DefaultOptimizer)
}

// ApplySingleWith evaluates the pipeline's sink against item, using opt.
func (p *Pipeline) ApplySingleWith(ctx context.Context, item op.Datum, opt Optimizer) (op.Datum, error) {
	exec, ref, err := p.executorFor(opt)
	if err != nil {
		return nil, err
	}
	return exec.EvaluateSingle(ctx, ref, item)
}

// ApplyDataset evaluates the pipeline's sink against dataset, using
// DefaultOptimizer. Any estimator reachable from the sink through a
// DelegatingTransformerNode's fit dependency that has not yet been fit is
// fit against dataset as part of this call.
func (p *Pipeline) ApplyDataset(ctx context.Context, dataset op.Dataset) (op.Dataset, error) {
	return p.ApplyDatasetWith(ctx, dataset, DefaultOptimizer)
}

// ApplyDatasetWith evaluates the pipeline's sink against dataset, using
// opt.
func (p *Pipeline) ApplyDatasetWith(ctx context.Context, dataset op.Dataset, opt Optimizer) (op.Dataset, error) {
	exec, ref, err := p.executorFor(opt)
	if err != nil {
		return nil, err
	}
	return exec.EvaluateDataset(ctx, ref, dataset)
}
