package pipeline

import (
	"errors"
	"fmt"

	"github.com/flowforge/pipeline/pkg/graph"
)

// Sentinel errors for the pipeline package, mirroring the error kinds the
// design distinguishes: a dag-error is a fatal, execution-time structural
// violation (as opposed to graph's invalid-argument/not-found, which are
// raised by construction-time misuse), and an operator-error is whatever a
// TransformerOp or EstimatorOp itself returned, propagated unchanged.
var (
	// ErrDAG is returned when the executor discovers, while walking a
	// graph, a structural problem that construction-time validation should
	// have already ruled out (e.g. a dependency resolving to a node of an
	// unexpected kind). Encountering one indicates a bug in how the graph
	// was built, not bad input data.
	ErrDAG = errors.New("pipeline: dag error")
)

// DAGError wraps ErrDAG with the node and detail that triggered it.
type DAGError struct {
	Node   graph.NodeId
	Detail string
}

// Error renders the offending node and detail.
func (e *DAGError) Error() string {
	return fmt.Sprintf("pipeline: dag error at node(%d): %s", e.Node, e.Detail)
}

// Unwrap reports this as ErrDAG.
func (e *DAGError) Unwrap() error { return ErrDAG }

func newDAGError(node graph.NodeId, detail string) error {
	return &DAGError{Node: node, Detail: detail}
}

// OperatorError wraps an error returned by a TransformerOp or EstimatorOp,
// recording which node raised it without altering the underlying error's
// identity: errors.Is/errors.As against the operator's own sentinel errors
// still works through this wrapper.
type OperatorError struct {
	Node graph.NodeId
	Err  error
}

// Error renders the offending node and the operator's own message.
func (e *OperatorError) Error() string {
	return fmt.Sprintf("pipeline: operator error at node(%d): %v", e.Node, e.Err)
}

// Unwrap exposes the operator's original error.
func (e *OperatorError) Unwrap() error { return e.Err }

func newOperatorError(node graph.NodeId, err error) error {
	return &OperatorError{Node: node, Err: err}
}
