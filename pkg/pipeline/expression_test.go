package pipeline

import (
	"testing"

	"github.com/flowforge/pipeline/pkg/op"
)

func TestDatumExpressionForcesOnce(t *testing.T) {
	calls := 0
	expr := NewDatumExpression(func() (op.Datum, error) {
		calls++
		return 42, nil
	})

	for i := 0; i < 3; i++ {
		v, err := expr.Get()
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != 42 {
			t.Fatalf("Get() = %v, want 42", v)
		}
	}
	if calls != 1 {
		t.Fatalf("thunk called %d times, want 1", calls)
	}
}

func TestDatumExpressionMemoizesError(t *testing.T) {
	calls := 0
	boom := func() (op.Datum, error) {
		calls++
		return nil, errBoom
	}
	expr := NewDatumExpression(boom)

	if _, err := expr.Get(); err != errBoom {
		t.Fatalf("Get() error = %v, want errBoom", err)
	}
	if _, err := expr.Get(); err != errBoom {
		t.Fatalf("second Get() error = %v, want errBoom", err)
	}
	if calls != 1 {
		t.Fatalf("thunk called %d times after an error, want 1", calls)
	}
}

func TestLazyDatumSeqSkipsUnreadInputs(t *testing.T) {
	forced := []bool{false, false}
	exprs := []*DatumExpression{
		NewDatumExpression(func() (op.Datum, error) { forced[0] = true; return 1, nil }),
		NewDatumExpression(func() (op.Datum, error) { forced[1] = true; return 2, nil }),
	}
	seq := &lazyDatumSeq{exprs: exprs}

	v, ok := seq.Next()
	if !ok || v != 1 {
		t.Fatalf("Next() = (%v, %v), want (1, true)", v, ok)
	}
	if !forced[0] || forced[1] {
		t.Fatalf("forced = %v, want only the first input forced", forced)
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
