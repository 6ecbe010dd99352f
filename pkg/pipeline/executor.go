package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/pipeline/internal/telemetry/logging"
	"github.com/flowforge/pipeline/pkg/graph"
	"github.com/flowforge/pipeline/pkg/op"
)

// ExecutorConfig configures an Executor, following this module's
// Config/DefaultConfig idiom for tunables.
type ExecutorConfig struct {
	Logger *logging.Logger
	Tracer trace.Tracer
	Meter  metric.Meter
}

// DefaultConfig returns an ExecutorConfig with a default logger and no-op
// tracer/meter.
func DefaultConfig() ExecutorConfig {
	return ExecutorConfig{
		Logger: logging.Default(),
		Tracer: otel.Tracer("pipeline"),
		Meter:  otel.Meter("pipeline"),
	}
}

// dataCacheKey identifies one memoized dataset-mode node evaluation: the
// node that produced it, plus the reference identity of the input dataset
// that flowed in from outside the graph for this evaluation. Two
// applyDataset calls passing the very same *op.Dataset value share this
// key's cache entries; two calls passing structurally identical but
// distinct dataset values do not, by design — the cache is reference-
// equality keyed, not structural, since structural equality over an opaque
// Dataset is not defined.
type dataCacheKey struct {
	node  graph.NodeId
	input op.Dataset
}

// Executor resolves a Graph's nodes against a concrete input, memoizing
// fitted estimators for its entire lifetime and per-input dataset outputs
// for as long as the caller keeps passing the same input dataset value.
type Executor struct {
	graph     *graph.Graph
	config    ExecutorConfig
	sessionID string

	mu        sync.Mutex
	fitCache  map[graph.NodeId]*TransformerExpression
	dataCache map[dataCacheKey]*DatasetExpression
}

// NewExecutor builds an Executor over g. It mints a short session id used
// only to correlate this Executor's log lines and spans with each other —
// never as a cache key; this Executor's caches are keyed on node id and
// dataset reference identity alone.
func NewExecutor(g *graph.Graph, config ExecutorConfig) *Executor {
	if config.Logger == nil {
		config.Logger = logging.Default()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer("pipeline")
	}
	if config.Meter == nil {
		config.Meter = otel.Meter("pipeline")
	}
	return &Executor{
		graph:     g,
		config:    config,
		sessionID: uuid.NewString()[:12],
		fitCache:  make(map[graph.NodeId]*TransformerExpression),
		dataCache: make(map[dataCacheKey]*DatasetExpression),
	}
}

// EvaluateSingle resolves ref against item: item supplies the value for
// every source the reference's dependency tree bottoms out at. Diamond
// dependencies within this one call are evaluated once; nothing is cached
// across calls to EvaluateSingle.
func (e *Executor) EvaluateSingle(ctx context.Context, ref graph.DepRef, item op.Datum) (op.Datum, error) {
	ctx, span := e.config.Tracer.Start(ctx, "pipeline.evaluateSingle", trace.WithAttributes(attribute.String("session", e.sessionID)))
	defer span.End()

	memo := make(map[graph.NodeId]*DatumExpression)
	expr, err := e.buildSingleExpr(ctx, ref, item, memo)
	if err != nil {
		return nil, err
	}
	return expr.Get()
}

// EvaluateDataset resolves ref against dataset: dataset supplies the value
// for every source the reference's dependency tree bottoms out at.
// Results are memoized per (node, dataset identity): calling
// EvaluateDataset again with the same dataset value reuses every node's
// prior output instead of recomputing it.
func (e *Executor) EvaluateDataset(ctx context.Context, ref graph.DepRef, dataset op.Dataset) (op.Dataset, error) {
	ctx, span := e.config.Tracer.Start(ctx, "pipeline.evaluateDataset", trace.WithAttributes(attribute.String("session", e.sessionID)))
	defer span.End()

	expr, err := e.buildDatasetExpr(ctx, ref, dataset)
	if err != nil {
		return nil, err
	}
	return expr.Get()
}

func (e *Executor) buildSingleExpr(ctx context.Context, ref graph.DepRef, item op.Datum, memo map[graph.NodeId]*DatumExpression) (*DatumExpression, error) {
	if ref.IsSource() {
		return NewDatumExpression(func() (op.Datum, error) { return item, nil }), nil
	}

	n := ref.Node()
	if existing, ok := memo[n]; ok {
		return existing, nil
	}

	node, err := e.graph.GetOperator(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved node: %v", err))
	}

	deps, err := e.graph.GetDependencies(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved dependencies: %v", err))
	}

	depExprs := make([]*DatumExpression, len(deps))
	for i, d := range deps {
		expr, err := e.buildSingleExpr(ctx, d, item, memo)
		if err != nil {
			return nil, err
		}
		depExprs[i] = expr
	}

	switch node.Kind() {
	case graph.KindSource:
		return nil, newDAGError(n, "a SourceNode cannot produce a single-item result")

	case graph.KindTransformer, graph.KindDelegatingTransformer:
		expr := NewDatumExpression(func() (op.Datum, error) {
			xform, err := e.resolveTransformerForSingle(n, node)
			if err != nil {
				return nil, err
			}
			seq := &lazyDatumSeq{exprs: depExprs}
			out, err := xform.ApplySingle(seq)
			if seqErr := seq.Err(); seqErr != nil {
				return nil, seqErr
			}
			if err != nil {
				return nil, newOperatorError(n, err)
			}
			return out, nil
		})
		memo[n] = expr
		return expr, nil

	case graph.KindEstimator:
		return nil, newDAGError(n, "an EstimatorNode cannot be evaluated directly")

	default:
		return nil, newDAGError(n, "unknown node kind")
	}
}

func (e *Executor) buildDatasetExpr(ctx context.Context, ref graph.DepRef, dataset op.Dataset) (*DatasetExpression, error) {
	if ref.IsSource() {
		return NewDatasetExpression(func() (op.Dataset, error) { return dataset, nil }), nil
	}

	n := ref.Node()
	key := dataCacheKey{node: n, input: dataset}

	e.mu.Lock()
	if existing, ok := e.dataCache[key]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.mu.Unlock()

	node, err := e.graph.GetOperator(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved node: %v", err))
	}
	deps, err := e.graph.GetDependencies(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved dependencies: %v", err))
	}

	depExprs := make([]*DatasetExpression, len(deps))
	for i, d := range deps {
		expr, err := e.buildDatasetExpr(ctx, d, dataset)
		if err != nil {
			return nil, err
		}
		depExprs[i] = expr
	}

	var expr *DatasetExpression
	switch node.Kind() {
	case graph.KindSource:
		expr = NewDatasetExpression(func() (op.Dataset, error) {
			ds, ok := node.Operator().(op.Dataset)
			if !ok {
				return nil, newDAGError(n, fmt.Sprintf("source node's constant is not an op.Dataset: %T", node.Operator()))
			}
			return ds, nil
		})

	case graph.KindTransformer, graph.KindDelegatingTransformer:
		expr = NewDatasetExpression(func() (op.Dataset, error) {
			xform, err := e.resolveTransformerForDataset(ctx, n, node, dataset)
			if err != nil {
				return nil, err
			}
			seq := &lazyDatasetSeq{exprs: depExprs}
			out, err := xform.ApplyDataset(seq)
			if seqErr := seq.Err(); seqErr != nil {
				return nil, seqErr
			}
			if err != nil {
				return nil, newOperatorError(n, err)
			}
			return out, nil
		})

	case graph.KindEstimator:
		return nil, newDAGError(n, "an EstimatorNode cannot be evaluated directly")

	default:
		return nil, newDAGError(n, "unknown node kind")
	}

	e.mu.Lock()
	if existing, ok := e.dataCache[key]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.dataCache[key] = expr
	e.mu.Unlock()
	return expr, nil
}

// transformerOperator returns a plain TransformerNode's own operator, type
// asserted to op.TransformerOp.
func (e *Executor) transformerOperator(n graph.NodeId, node graph.Node) (op.TransformerOp, error) {
	xform, ok := node.Operator().(op.TransformerOp)
	if !ok {
		return nil, newDAGError(n, fmt.Sprintf("transformer node's operator is not an op.TransformerOp: %T", node.Operator()))
	}
	return xform, nil
}

// resolveTransformerForSingle returns the TransformerOp a node evaluates
// through in single-item mode. A DelegatingTransformerNode whose fit
// dependency has not yet been fit is an error here: single-item
// evaluation has no dataset to fit an estimator from, so fitting must
// already have happened via EvaluateDataset.
func (e *Executor) resolveTransformerForSingle(n graph.NodeId, node graph.Node) (op.TransformerOp, error) {
	if node.Kind() != graph.KindDelegatingTransformer {
		return e.transformerOperator(n, node)
	}

	fit, ok := e.graph.FitDependency(n)
	if !ok {
		return nil, newDAGError(n, "delegating transformer has no fit dependency")
	}

	e.mu.Lock()
	expr, cached := e.fitCache[fit]
	e.mu.Unlock()
	if !cached {
		return nil, newDAGError(fit, "estimator has not been fit yet; call EvaluateDataset before evaluating a delegating transformer that depends on it")
	}
	return expr.Get()
}

// resolveTransformerForDataset returns the TransformerOp a node evaluates
// through in dataset mode. A DelegatingTransformerNode whose fit
// dependency has not yet been fit triggers fitting it against dataset
// right here, the first time it is encountered; the result is memoized in
// the fit cache for the Executor's lifetime, so later calls — in either
// mode, against any input — reuse it without refitting.
func (e *Executor) resolveTransformerForDataset(ctx context.Context, n graph.NodeId, node graph.Node, dataset op.Dataset) (op.TransformerOp, error) {
	if node.Kind() != graph.KindDelegatingTransformer {
		return e.transformerOperator(n, node)
	}

	fit, ok := e.graph.FitDependency(n)
	if !ok {
		return nil, newDAGError(n, "delegating transformer has no fit dependency")
	}
	return e.FitEstimator(ctx, fit, dataset)
}

// FitEstimator fits the EstimatorNode at n against dataset, memoizing the
// result for the lifetime of the Executor: subsequent calls to
// EvaluateSingle/EvaluateDataset against a DelegatingTransformerNode that
// names n as its fit dependency use this fitted result regardless of what
// they are themselves evaluated against. Calling FitEstimator again for
// the same n is a no-op that returns the already-memoized result.
func (e *Executor) FitEstimator(ctx context.Context, n graph.NodeId, dataset op.Dataset) (op.TransformerOp, error) {
	ctx, span := e.config.Tracer.Start(ctx, "pipeline.fitEstimator", trace.WithAttributes(attribute.String("session", e.sessionID)))
	defer span.End()

	e.mu.Lock()
	if expr, ok := e.fitCache[n]; ok {
		e.mu.Unlock()
		return expr.Get()
	}
	e.mu.Unlock()

	node, err := e.graph.GetOperator(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved node: %v", err))
	}
	if node.Kind() != graph.KindEstimator {
		return nil, newDAGError(n, "FitEstimator called on a non-estimator node")
	}
	estimator, ok := node.Operator().(op.EstimatorOp)
	if !ok {
		return nil, newDAGError(n, fmt.Sprintf("estimator node's operator is not an op.EstimatorOp: %T", node.Operator()))
	}

	deps, err := e.graph.GetDependencies(n)
	if err != nil {
		return nil, newDAGError(n, fmt.Sprintf("unresolved dependencies: %v", err))
	}
	depExprs := make([]*DatasetExpression, len(deps))
	for i, d := range deps {
		expr, err := e.buildDatasetExpr(ctx, d, dataset)
		if err != nil {
			return nil, err
		}
		depExprs[i] = expr
	}

	expr := NewTransformerExpression(func() (op.TransformerOp, error) {
		e.config.Logger.Debug(ctx, "fitting estimator", "node", n, "session", e.sessionID)
		seq := &lazyDatasetSeq{exprs: depExprs}
		xform, err := estimator.Fit(seq)
		if seqErr := seq.Err(); seqErr != nil {
			return nil, seqErr
		}
		if err != nil {
			return nil, newOperatorError(n, err)
		}
		return xform, nil
	})

	e.mu.Lock()
	if existing, ok := e.fitCache[n]; ok {
		e.mu.Unlock()
		return existing.Get()
	}
	e.fitCache[n] = expr
	e.mu.Unlock()

	return expr.Get()
}
