package op

// Datum is a single opaque input or output value processed by a
// TransformerOp's single-item evaluation path.
type Datum any

// DatumSeq is a one-shot, lazily realized sequence of Datum inputs handed
// to a TransformerOp's ApplySingle call. The executor constructs a DatumSeq
// whose Next forces (and memoizes) exactly the upstream expression for that
// position the first time it is pulled; an operator that never calls Next
// for one of its declared dependencies never causes that dependency to be
// evaluated. Next returns ok=false once the sequence is exhausted.
type DatumSeq interface {
	Next() (Datum, bool)
}

// DatasetSeq is the dataset-mode analogue of DatumSeq: a one-shot, lazily
// realized sequence of Dataset inputs handed to a TransformerOp's
// ApplyDataset call or to an EstimatorOp's Fit call.
type DatasetSeq interface {
	Next() (Dataset, bool)
}

// TransformerOp is the payload of a TransformerNode or the behavior
// supplied to a DelegatingTransformerNode by its fit dependency's Fit
// result. It is a pure function of its inputs: given the same sequence of
// input values, ApplySingle and ApplyDataset always produce the same
// output, which is what makes the executor's fit-once and per-input
// memoization sound.
type TransformerOp interface {
	// ApplySingle evaluates the operator against one item's worth of
	// upstream values, one per declared dependency, in dependency order.
	ApplySingle(inputs DatumSeq) (Datum, error)
	// ApplyDataset evaluates the operator against one dataset's worth of
	// upstream values, one per declared dependency, in dependency order.
	ApplyDataset(inputs DatasetSeq) (Dataset, error)
}

// EstimatorOp is the payload of an EstimatorNode. Fit consumes one dataset
// per declared data dependency, in dependency order, and produces the
// TransformerOp a DelegatingTransformerNode referencing this estimator
// will use for both ApplySingle and ApplyDataset evaluation. An
// EstimatorOp has no single-item evaluation path of its own: fitting
// always happens against datasets, never against a single item.
type EstimatorOp interface {
	Fit(inputs DatasetSeq) (TransformerOp, error)
}

// FuncTransformer adapts two plain functions to the TransformerOp
// interface, for operators simple enough not to need their own named type.
type FuncTransformer struct {
	Single  func(DatumSeq) (Datum, error)
	Dataset func(DatasetSeq) (Dataset, error)
}

// ApplySingle invokes the wrapped single-item function.
func (f FuncTransformer) ApplySingle(inputs DatumSeq) (Datum, error) {
	return f.Single(inputs)
}

// ApplyDataset invokes the wrapped dataset function.
func (f FuncTransformer) ApplyDataset(inputs DatasetSeq) (Dataset, error) {
	return f.Dataset(inputs)
}

// sliceDatumSeq is the simplest DatumSeq: every input already realized,
// served in order. The executor's real sequences are lazier than this;
// operators and tests that already have their inputs in hand can use this
// instead of hand-rolling an iterator.
type sliceDatumSeq struct {
	items []Datum
	pos   int
}

// NewDatumSeq wraps an already-realized slice of inputs as a DatumSeq.
func NewDatumSeq(items ...Datum) DatumSeq {
	return &sliceDatumSeq{items: items}
}

func (s *sliceDatumSeq) Next() (Datum, bool) {
	if s.pos >= len(s.items) {
		return nil, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}

type sliceDatasetSeq struct {
	items []Dataset
	pos   int
}

// NewDatasetSeq wraps an already-realized slice of inputs as a DatasetSeq.
func NewDatasetSeq(items ...Dataset) DatasetSeq {
	return &sliceDatasetSeq{items: items}
}

func (s *sliceDatasetSeq) Next() (Dataset, bool) {
	if s.pos >= len(s.items) {
		return nil, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}
