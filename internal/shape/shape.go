// Package shape implements the shape & data-type algebra collaborator of
// spec.md §6: TensorShape (an ordered sequence of non-negative dimensions)
// and DataType (a small tagged variant over bool/int/float), plus the
// operations the instruction-set type inference of spec.md §4.2 needs.
//
// Grounded on internal/ir/types.go's small value-type-with-methods style
// (IntType, BoolType, ... each a tiny struct with a String method),
// generalized here into the shape-algebra contract spec.md names as an
// external collaborator.
package shape

import (
	"fmt"
	"strings"
)

// TensorShape is an ordered, non-negative dimension list.
type TensorShape struct {
	dims []int
}

// New builds a TensorShape from dimension sizes. A nil/empty slice is the
// scalar (rank-0) shape.
func New(dims ...int) TensorShape {
	cp := make([]int, len(dims))
	copy(cp, dims)
	return TensorShape{dims: cp}
}

// Rank is the number of dimensions.
func (s TensorShape) Rank() int { return len(s.dims) }

// IsScalar reports whether the shape is rank 0.
func (s TensorShape) IsScalar() bool { return len(s.dims) == 0 }

// Dim returns the size of dimension i. Panics if i is out of range;
// callers are expected to check Rank first, mirroring indexed access on
// the collaborator per spec.md §6.
func (s TensorShape) Dim(i int) int { return s.dims[i] }

// EndIndex is one past the last valid dimension index (0 for scalars).
func (s TensorShape) EndIndex() int { return len(s.dims) }

// Dims returns a defensive copy of the dimension list.
func (s TensorShape) Dims() []int {
	cp := make([]int, len(s.dims))
	copy(cp, s.dims)
	return cp
}

// ContiguousSize is the product of all dimensions (1 for a scalar).
func (s TensorShape) ContiguousSize() int {
	n := 1
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// Equal is structural equality.
func (s TensorShape) Equal(o TensorShape) bool {
	if len(s.dims) != len(o.dims) {
		return false
	}
	for i, d := range s.dims {
		if d != o.dims[i] {
			return false
		}
	}
	return true
}

func (s TensorShape) String() string {
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, "x") + "]"
}

// Broadcast computes the NumPy-style broadcast shape of s and o, or
// (_, false) if they are incompatible. Dimensions are compared from the
// trailing (rightmost) edge; a 1 or a missing leading dimension
// broadcasts against any size.
func (s TensorShape) Broadcast(o TensorShape) (TensorShape, bool) {
	n := len(s.dims)
	if len(o.dims) > n {
		n = len(o.dims)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		a, b := 1, 1
		if ai := len(s.dims) - n + i; ai >= 0 {
			a = s.dims[ai]
		}
		if bi := len(o.dims) - n + i; bi >= 0 {
			b = o.dims[bi]
		}
		switch {
		case a == b:
			out[i] = a
		case a == 1:
			out[i] = b
		case b == 1:
			out[i] = a
		default:
			return TensorShape{}, false
		}
	}
	return TensorShape{dims: out}, true
}

// IsCompatible reports whether s and o can be broadcast together.
func (s TensorShape) IsCompatible(o TensorShape) bool {
	_, ok := s.Broadcast(o)
	return ok
}

// IsVector reports whether the shape has rank exactly 1.
func (s TensorShape) IsVector() bool { return len(s.dims) == 1 }

// Concatenating concatenates s and o along dimension axis, requiring all
// other dimensions to match and axis to be in range for both.
func (s TensorShape) Concatenating(o TensorShape, axis int) (TensorShape, bool) {
	if len(s.dims) != len(o.dims) || axis < 0 || axis >= len(s.dims) {
		return TensorShape{}, false
	}
	out := make([]int, len(s.dims))
	for i := range s.dims {
		if i == axis {
			out[i] = s.dims[i] + o.dims[i]
			continue
		}
		if s.dims[i] != o.dims[i] {
			return TensorShape{}, false
		}
		out[i] = s.dims[i]
	}
	return TensorShape{dims: out}, true
}

// MatrixMultiplied computes the matrix-multiply result shape: the two
// trailing dims follow matmul rules (m,k)x(k,n)->(m,n); any leading
// (batch) dims must be identical. Returns (_, false) if ranks are below 2
// or the contracted dimension disagrees.
func (s TensorShape) MatrixMultiplied(o TensorShape) (TensorShape, bool) {
	if len(s.dims) < 2 || len(o.dims) < 2 || len(s.dims) != len(o.dims) {
		return TensorShape{}, false
	}
	n := len(s.dims)
	for i := 0; i < n-2; i++ {
		if s.dims[i] != o.dims[i] {
			return TensorShape{}, false
		}
	}
	m, k1 := s.dims[n-2], s.dims[n-1]
	k2, p := o.dims[n-2], o.dims[n-1]
	if k1 != k2 {
		return TensorShape{}, false
	}
	out := make([]int, n)
	copy(out, s.dims[:n-2])
	out[n-2] = m
	out[n-1] = p
	return TensorShape{dims: out}, true
}

// Transpose reverses the last two dimensions (batch dims, if any, are
// unaffected); returns s unchanged if rank < 2.
func (s TensorShape) Transpose() TensorShape {
	if len(s.dims) < 2 {
		return s
	}
	out := make([]int, len(s.dims))
	copy(out, s.dims)
	n := len(out)
	out[n-1], out[n-2] = out[n-2], out[n-1]
	return TensorShape{dims: out}
}

// DroppingDimensions removes the dimensions whose index is in dims.
func (s TensorShape) DroppingDimensions(dims map[int]bool) TensorShape {
	out := make([]int, 0, len(s.dims))
	for i, d := range s.dims {
		if !dims[i] {
			out = append(out, d)
		}
	}
	return TensorShape{dims: out}
}

// DroppingDimension removes a single dimension by index.
func (s TensorShape) DroppingDimension(at int) TensorShape {
	return s.DroppingDimensions(map[int]bool{at: true})
}

// PaddingDimension inserts a size-1 dimension at index at (0 <= at <= rank).
func (s TensorShape) PaddingDimension(at int) (TensorShape, bool) {
	if at < 0 || at > len(s.dims) {
		return TensorShape{}, false
	}
	out := make([]int, 0, len(s.dims)+1)
	out = append(out, s.dims[:at]...)
	out = append(out, 1)
	out = append(out, s.dims[at:]...)
	return TensorShape{dims: out}, true
}

// DataTypeKind tags the DataType variant.
type DataTypeKind int

const (
	DTBool DataTypeKind = iota
	DTInt
	DTHalf
	DTSingle
	DTDouble
)

// DataType is a tagged variant: bool | int(width) | float{half,single,double}.
type DataType struct {
	Kind  DataTypeKind
	Width int // meaningful only when Kind == DTInt
}

func Bool() DataType          { return DataType{Kind: DTBool} }
func Int(width int) DataType  { return DataType{Kind: DTInt, Width: width} }
func Half() DataType          { return DataType{Kind: DTHalf} }
func Single() DataType        { return DataType{Kind: DTSingle} }
func Double() DataType        { return DataType{Kind: DTDouble} }

func (d DataType) Equal(o DataType) bool {
	return d.Kind == o.Kind && (d.Kind != DTInt || d.Width == o.Width)
}

func (d DataType) IsBool() bool { return d.Kind == DTBool }

func (d DataType) IsNumeric() bool {
	return d.Kind == DTInt || d.Kind == DTHalf || d.Kind == DTSingle || d.Kind == DTDouble
}

func (d DataType) IsFloat() bool {
	return d.Kind == DTHalf || d.Kind == DTSingle || d.Kind == DTDouble
}

// CanCast reports whether a value of d can be cast to target. Numeric to
// numeric, and bool to bool, are always permitted; bool<->numeric is not.
func (d DataType) CanCast(target DataType) bool {
	if d.IsNumeric() && target.IsNumeric() {
		return true
	}
	return d.Kind == DTBool && target.Kind == DTBool
}

func (d DataType) String() string {
	switch d.Kind {
	case DTBool:
		return "bool"
	case DTInt:
		return fmt.Sprintf("i%d", d.Width)
	case DTHalf:
		return "f16"
	case DTSingle:
		return "f32"
	case DTDouble:
		return "f64"
	default:
		return "<invalid-dtype>"
	}
}
