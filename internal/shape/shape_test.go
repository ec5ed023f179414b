package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast(t *testing.T) {
	tests := []struct {
		name    string
		a, b    TensorShape
		want    TensorShape
		wantOk  bool
	}{
		{"identical", New(2, 2), New(2, 2), New(2, 2), true},
		{"scalar broadcasts", New(), New(2, 2), New(2, 2), true},
		{"trailing one broadcasts", New(1, 3), New(4, 3), New(4, 3), true},
		{"incompatible", New(2, 3), New(4, 5), TensorShape{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.a.Broadcast(tc.b)
			require.Equal(t, tc.wantOk, ok)
			if ok {
				assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
			}
		})
	}
}

func TestMatrixMultiplied(t *testing.T) {
	got, ok := New(2, 3).MatrixMultiplied(New(3, 4))
	require.True(t, ok)
	assert.True(t, got.Equal(New(2, 4)))

	_, ok = New(2, 3).MatrixMultiplied(New(5, 4))
	assert.False(t, ok)
}

func TestTranspose(t *testing.T) {
	got := New(2, 3, 4).Transpose()
	assert.True(t, got.Equal(New(2, 4, 3)))
}

func TestConvolutionOutput(t *testing.T) {
	lhs := New(1, 4, 8, 8)
	kernel := New(8, 2, 3, 3)
	out, ok := ConvolutionOutput(lhs, kernel, []int{1, 1}, []Padding{{1, 1}, {1, 1}}, nil, nil, 2)
	require.True(t, ok)
	assert.True(t, out.Equal(New(1, 8, 8, 8)), "got %s", out)

	_, ok = ConvolutionOutput(lhs, kernel, []int{1, 1}, []Padding{{1, 1}, {1, 1}}, nil, nil, 3)
	assert.False(t, ok, "groups=3 should fail channel grouping")
}

func TestDataTypeCanCast(t *testing.T) {
	assert.True(t, Int(32).CanCast(Single()))
	assert.True(t, Single().CanCast(Double()))
	assert.False(t, Bool().CanCast(Int(32)))
	assert.True(t, Bool().CanCast(Bool()))
}

func TestContiguousSize(t *testing.T) {
	assert.Equal(t, 24, New(2, 3, 4).ContiguousSize())
	assert.Equal(t, 1, New().ContiguousSize())
}
