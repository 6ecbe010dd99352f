// Package pipeline implements the executor and Pipeline façade that give a
// pkg/graph.Graph runtime meaning: resolving each node's dependencies,
// invoking its operator, and memoizing fitted estimators and per-input
// dataset outputs so a diamond-shaped dependency is never recomputed
// within one evaluation.
//
// # Overview
//
// Executor owns two caches for the lifetime of the Pipeline it was built
// for: a fit cache, keyed by EstimatorNode id, and a dataset cache, keyed
// by (node id, input dataset reference identity). Single-item evaluation
// (applySingle) is not cross-call cached — only within the dependency tree
// of a single call, since memoizing across arbitrarily many distinct items
// would grow the cache without bound.
//
// # Thread Safety
//
// Executor and Pipeline values are safe for concurrent use: the caches are
// protected by an internal mutex, and the underlying Graph is immutable.
package pipeline
