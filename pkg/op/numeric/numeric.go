// Package numeric provides a handful of concrete TransformerOp and
// EstimatorOp implementations over float64-valued data, used by the demo
// CLI and by the executor and pipeline tests as realistic operators
// instead of only test doubles.
package numeric

import (
	"errors"
	"fmt"
	"math"

	"github.com/flowforge/pipeline/pkg/op"
	"github.com/flowforge/pipeline/pkg/op/inmemdataset"
)

// ErrWrongInputCount is returned by every operator in this package when it
// is called with a number of inputs other than the one it declared.
var ErrWrongInputCount = errors.New("numeric: wrong input count")

// Scale multiplies its single input by Factor.
type Scale struct {
	Factor float64
}

// ApplySingle scales one float64 item.
func (s Scale) ApplySingle(inputs op.DatumSeq) (op.Datum, error) {
	v, err := singleDatum(inputs)
	if err != nil {
		return nil, err
	}
	return v * s.Factor, nil
}

// ApplyDataset scales every record of one in-memory dataset.
func (s Scale) ApplyDataset(inputs op.DatasetSeq) (op.Dataset, error) {
	ds, err := singleInMemDataset(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, ds.Len())
	for i, v := range ds.Records() {
		out[i] = v * s.Factor
	}
	return inmemdataset.New(out, 0), nil
}

// Offset adds Amount to its single input.
type Offset struct {
	Amount float64
}

// ApplySingle offsets one float64 item.
func (o Offset) ApplySingle(inputs op.DatumSeq) (op.Datum, error) {
	v, err := singleDatum(inputs)
	if err != nil {
		return nil, err
	}
	return v + o.Amount, nil
}

// ApplyDataset offsets every record of one in-memory dataset.
func (o Offset) ApplyDataset(inputs op.DatasetSeq) (op.Dataset, error) {
	ds, err := singleInMemDataset(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, ds.Len())
	for i, v := range ds.Records() {
		out[i] = v + o.Amount
	}
	return inmemdataset.New(out, 0), nil
}

// StandardScalerEstimator fits a mean and standard deviation from one
// input dataset and produces a standardizeTransform that applies
// (x-mean)/stddev.
type StandardScalerEstimator struct{}

// Fit computes the mean and population standard deviation of the single
// input dataset's records.
func (StandardScalerEstimator) Fit(inputs op.DatasetSeq) (op.TransformerOp, error) {
	ds, err := singleInMemDataset(inputs)
	if err != nil {
		return nil, err
	}
	records := ds.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("numeric: cannot fit a standard scaler on an empty dataset")
	}

	var sum float64
	for _, v := range records {
		sum += v
	}
	mean := sum / float64(len(records))

	var sqDiff float64
	for _, v := range records {
		d := v - mean
		sqDiff += d * d
	}
	stddev := math.Sqrt(sqDiff / float64(len(records)))
	if stddev == 0 {
		stddev = 1
	}

	return standardizeTransform{mean: mean, stddev: stddev}, nil
}

// standardizeTransform is the TransformerOp a DelegatingTransformerNode
// uses once its fit dependency (a StandardScalerEstimator) has run.
type standardizeTransform struct {
	mean, stddev float64
}

func (t standardizeTransform) ApplySingle(inputs op.DatumSeq) (op.Datum, error) {
	v, err := singleDatum(inputs)
	if err != nil {
		return nil, err
	}
	return (v - t.mean) / t.stddev, nil
}

func (t standardizeTransform) ApplyDataset(inputs op.DatasetSeq) (op.Dataset, error) {
	ds, err := singleInMemDataset(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, ds.Len())
	for i, v := range ds.Records() {
		out[i] = (v - t.mean) / t.stddev
	}
	return inmemdataset.New(out, 0), nil
}

func singleDatum(inputs op.DatumSeq) (float64, error) {
	v, ok := inputs.Next()
	if !ok {
		return 0, ErrWrongInputCount
	}
	if _, extra := inputs.Next(); extra {
		return 0, ErrWrongInputCount
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("numeric: expected float64 input, got %T", v)
	}
	return f, nil
}

func singleInMemDataset(inputs op.DatasetSeq) (*inmemdataset.Dataset, error) {
	v, ok := inputs.Next()
	if !ok {
		return nil, ErrWrongInputCount
	}
	if _, extra := inputs.Next(); extra {
		return nil, ErrWrongInputCount
	}
	ds, ok := v.(*inmemdataset.Dataset)
	if !ok {
		return nil, fmt.Errorf("numeric: expected *inmemdataset.Dataset input, got %T", v)
	}
	return ds, nil
}
