// Package inmemdataset is a minimal concrete op.Dataset: an in-memory
// slice of records, sliced into fixed-size partitions on first use. It
// exists so the executor's dataset-mode contract has at least one real,
// testable collaborator instead of only a mock.
package inmemdataset

import "github.com/flowforge/pipeline/pkg/op"

// Dataset is an immutable, in-memory collection of records, lazily sliced
// into partitions the first time Partitions is called. Records is opaque
// to everything but the operators in pkg/op/numeric that know its concrete
// record type.
type Dataset struct {
	records       []float64
	partitionSize int
	partitions    [][]float64
}

// New builds a Dataset over records, partitioned partitionSize records at
// a time (the last partition may be shorter). partitionSize <= 0 means
// "one partition holding every record."
func New(records []float64, partitionSize int) *Dataset {
	cp := make([]float64, len(records))
	copy(cp, records)
	return &Dataset{records: cp, partitionSize: partitionSize}
}

// Len reports the dataset's record count.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the dataset's records. The returned slice is the
// dataset's own backing array; callers must not mutate it.
func (d *Dataset) Records() []float64 {
	return d.records
}

// Partitions lazily slices Records into partitionSize-sized chunks the
// first time it is called, then returns the cached result on every
// subsequent call, rather than eagerly partitioning at construction time.
func (d *Dataset) Partitions() [][]float64 {
	if d.partitions != nil {
		return d.partitions
	}
	size := d.partitionSize
	if size <= 0 || size >= len(d.records) {
		d.partitions = [][]float64{d.records}
		return d.partitions
	}
	var out [][]float64
	for start := 0; start < len(d.records); start += size {
		end := start + size
		if end > len(d.records) {
			end = len(d.records)
		}
		out = append(out, d.records[start:end])
	}
	d.partitions = out
	return d.partitions
}

var _ op.Dataset = (*Dataset)(nil)
