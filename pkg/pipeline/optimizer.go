package pipeline

import "github.com/flowforge/pipeline/pkg/graph"

// Optimizer rewrites a Graph into an equivalent one before the Pipeline
// façade executes it — equivalent meaning every sink's data dependency
// tree evaluates to the same results, by whatever rewrite rules the
// Optimizer implements (e.g. common-subexpression elimination, constant
// folding of pure transformer chains). This package ships no rewrite
// rules of its own; callers supply their own Optimizer or use
// NoopOptimizer.
type Optimizer interface {
	// Identity names the optimizer for the pipeline's optimizer-result
	// cache (see Pipeline.ApplySingleWith/ApplyDatasetWith): two Optimizer
	// values with the same Identity are treated as interchangeable cache
	// keys, so an Optimizer implementation's Identity must change whenever
	// its rewrite behavior does.
	Identity() string
	// Execute returns a Graph equivalent to g under this optimizer's
	// rewrite rules.
	Execute(g *graph.Graph) (*graph.Graph, error)
}

// NoopOptimizer returns its input graph unchanged. It is DefaultOptimizer.
type NoopOptimizer struct{}

// Identity names this optimizer for the optimizer-result cache.
func (NoopOptimizer) Identity() string { return "noop" }

// Execute returns g unchanged.
func (NoopOptimizer) Execute(g *graph.Graph) (*graph.Graph, error) { return g, nil }

// DefaultOptimizer is the optimizer Pipeline.ApplySingle/ApplyDataset use
// when the caller does not supply one explicitly.
var DefaultOptimizer Optimizer = NoopOptimizer{}
