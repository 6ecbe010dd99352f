// Package op defines the boundary between the graph/executor core and the
// concrete estimator and dataset-runtime implementations it dispatches
// into. Nothing in this package is called by pkg/graph; pkg/pipeline's
// executor is the package that actually invokes a TransformerOp or
// EstimatorOp, once it has resolved a node's dependency values.
package op

// Dataset is the opaque handle to a lazily realized, partitioned,
// immutable collection of records supplied by the distributed dataset
// runtime this module treats as an external collaborator. The executor
// never inspects a Dataset's contents and never compares two Datasets
// structurally: its data cache is keyed on Go reference identity, so the
// same *in-memory value* passed to two evaluations of the same node hits
// the cache, and a structurally identical but distinct value does not.
type Dataset interface {
	// Len reports the dataset's record count if it is known without
	// materializing the dataset, or -1 if computing it would force work
	// the caller has not asked for.
	Len() int
}
