package pipeline

import (
	"sync"

	"github.com/flowforge/pipeline/pkg/op"
)

// DatumExpression wraps a thunk producing a single-item value, forced at
// most once: the first Get call runs the thunk and remembers the result,
// every subsequent call returns the remembered value or error without
// running it again.
type DatumExpression struct {
	once sync.Once
	fn   func() (op.Datum, error)
	val  op.Datum
	err  error
}

// NewDatumExpression wraps fn as a DatumExpression.
func NewDatumExpression(fn func() (op.Datum, error)) *DatumExpression {
	return &DatumExpression{fn: fn}
}

// Get forces the expression on first call and returns its memoized result
// on every call thereafter.
func (e *DatumExpression) Get() (op.Datum, error) {
	e.once.Do(func() {
		e.val, e.err = e.fn()
	})
	return e.val, e.err
}

// DatasetExpression is the dataset-mode analogue of DatumExpression.
type DatasetExpression struct {
	once sync.Once
	fn   func() (op.Dataset, error)
	val  op.Dataset
	err  error
}

// NewDatasetExpression wraps fn as a DatasetExpression.
func NewDatasetExpression(fn func() (op.Dataset, error)) *DatasetExpression {
	return &DatasetExpression{fn: fn}
}

// Get forces the expression on first call and returns its memoized result
// on every call thereafter.
func (e *DatasetExpression) Get() (op.Dataset, error) {
	e.once.Do(func() {
		e.val, e.err = e.fn()
	})
	return e.val, e.err
}

// TransformerExpression wraps the thunk that fits an EstimatorNode into a
// TransformerOp. It is the value stored in the Executor's fit cache: forced
// at most once per estimator, for the lifetime of the Executor.
type TransformerExpression struct {
	once sync.Once
	fn   func() (op.TransformerOp, error)
	val  op.TransformerOp
	err  error
}

// NewTransformerExpression wraps fn as a TransformerExpression.
func NewTransformerExpression(fn func() (op.TransformerOp, error)) *TransformerExpression {
	return &TransformerExpression{fn: fn}
}

// Get forces the expression on first call and returns its memoized result
// on every call thereafter.
func (e *TransformerExpression) Get() (op.TransformerOp, error) {
	e.once.Do(func() {
		e.val, e.err = e.fn()
	})
	return e.val, e.err
}

// lazyDatumSeq adapts an ordered list of *DatumExpression into an
// op.DatumSeq: each Next call forces (and memoizes) exactly the next
// expression in the list, so an operator that stops pulling early never
// forces the expressions it didn't ask for.
type lazyDatumSeq struct {
	exprs []*DatumExpression
	pos   int
	err   error
}

func (s *lazyDatumSeq) Next() (op.Datum, bool) {
	if s.err != nil || s.pos >= len(s.exprs) {
		return nil, false
	}
	v, err := s.exprs[s.pos].Get()
	s.pos++
	if err != nil {
		s.err = err
		return nil, false
	}
	return v, true
}

// Err returns the first error an upstream expression returned while this
// sequence was being pulled, or nil if every pull so far has either
// succeeded or simply run past the end of the list. A caller that checks
// only the bool from Next cannot tell those two cases apart; Err is how it
// tells a real upstream failure from ordinary exhaustion.
func (s *lazyDatumSeq) Err() error {
	return s.err
}

// lazyDatasetSeq is the dataset-mode analogue of lazyDatumSeq.
type lazyDatasetSeq struct {
	exprs []*DatasetExpression
	pos   int
	err   error
}

func (s *lazyDatasetSeq) Next() (op.Dataset, bool) {
	if s.err != nil || s.pos >= len(s.exprs) {
		return nil, false
	}
	v, err := s.exprs[s.pos].Get()
	s.pos++
	if err != nil {
		s.err = err
		return nil, false
	}
	return v, true
}

// Err returns the first error an upstream expression returned while this
// sequence was being pulled, or nil otherwise. See lazyDatumSeq.Err.
func (s *lazyDatasetSeq) Err() error {
	return s.err
}
