package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tenir/internal/shape"
	"tenir/internal/types"
)

// fakeResolver is a minimal types.Resolver for tests that don't need a
// real internal/ir.Module -- one alias, one struct, one enum, fixed by
// construction rather than parsed.
type fakeResolver struct {
	alias     types.Type
	aliasOk   bool
	fields    map[string]types.Type
	caseTypes map[string][]types.Type
}

func (r *fakeResolver) ResolveAlias(h types.Handle) (types.Type, bool) {
	if h != 1 {
		return types.Type{}, false
	}
	return r.alias, r.aliasOk
}

func (r *fakeResolver) StructField(h types.Handle, name string) (types.Type, bool) {
	t, ok := r.fields[name]
	return t, ok
}

func (r *fakeResolver) EnumCaseTypes(h types.Handle, name string) ([]types.Type, bool) {
	ts, ok := r.caseTypes[name]
	return ts, ok
}

func i32() types.Type        { return types.TensorType(shape.New(), shape.Int(32)) }
func f32v(n int) types.Type { return types.TensorType(shape.New(n), shape.Single()) }

func TestEqualStructuralAcrossKinds(t *testing.T) {
	assert.True(t, types.Equal(types.VoidType(), types.VoidType()))
	assert.True(t, types.Equal(types.BoolType(), types.BoolType()))
	assert.True(t, types.Equal(types.StackType(), types.StackType()))
	assert.False(t, types.Equal(types.VoidType(), types.BoolType()))

	assert.True(t, types.Equal(i32(), i32()))
	assert.False(t, types.Equal(i32(), f32v(0)))
	assert.False(t, types.Equal(i32(), f32v(4)))

	assert.True(t, types.Equal(types.TupleType(i32(), f32v(4)), types.TupleType(i32(), f32v(4))))
	assert.False(t, types.Equal(types.TupleType(i32()), types.TupleType(i32(), f32v(4))))

	fn1 := types.FunctionType([]types.Type{i32(), i32()}, i32())
	fn2 := types.FunctionType([]types.Type{i32(), i32()}, i32())
	fn3 := types.FunctionType([]types.Type{i32()}, i32())
	assert.True(t, types.Equal(fn1, fn2))
	assert.False(t, types.Equal(fn1, fn3))

	arr1 := types.ArrayType(3, i32())
	arr2 := types.ArrayType(3, i32())
	arr3 := types.ArrayType(4, i32())
	assert.True(t, types.Equal(arr1, arr2))
	assert.False(t, types.Equal(arr1, arr3))

	assert.True(t, types.Equal(types.PointerType(i32()), types.PointerType(i32())))
	assert.True(t, types.Equal(types.BoxType(i32()), types.BoxType(i32())))
	assert.False(t, types.Equal(types.PointerType(i32()), types.BoxType(i32())))
}

func TestEqualNominalComparesByHandleNotName(t *testing.T) {
	a := types.StructType("Point", 1)
	b := types.StructType("DifferentNameSameHandle", 1)
	c := types.StructType("Point", 2)
	assert.True(t, types.Equal(a, b), "struct identity is the handle, not the carried name")
	assert.False(t, types.Equal(a, c))
}

func TestStringRoundTripGrammar(t *testing.T) {
	cases := []struct {
		name string
		t    types.Type
		want string
	}{
		{"void", types.VoidType(), "void"},
		{"bool", types.BoolType(), "bool"},
		{"stack", types.StackType(), "stack"},
		{"scalar tensor", i32(), "tensor<i32>"},
		{"rank>0 tensor", f32v(4), "tensor<4 x f32>"},
		{"tuple", types.TupleType(i32(), f32v(4)), "(tensor<i32>, tensor<4 x f32>)"},
		{"function", types.FunctionType([]types.Type{i32()}, types.BoolType()), "(tensor<i32>) -> bool"},
		{"array", types.ArrayType(3, i32()), "[3 x tensor<i32>]"},
		{"pointer", types.PointerType(i32()), "ptr<tensor<i32>>"},
		{"box", types.BoxType(i32()), "box<tensor<i32>>"},
		{"struct", types.StructType("Point", 1), "$Point"},
		{"enum", types.EnumType("Option", 1), "$Option"},
		{"alias", types.AliasType("Scalar", 1), "$Scalar"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.t.String())
		})
	}
}

func TestTensorTypeOfExtractsShapeAndDataType(t *testing.T) {
	s, dt, ok := f32v(4).TensorTypeOf()
	assert.True(t, ok)
	assert.True(t, s.Equal(shape.New(4)))
	assert.True(t, dt.Equal(shape.Single()))

	_, _, ok = types.VoidType().TensorTypeOf()
	assert.False(t, ok, "non-tensor types have no (shape, dtype) pair")
}

func TestIsScalarAndIsNumeric(t *testing.T) {
	assert.True(t, i32().IsScalar())
	assert.False(t, f32v(4).IsScalar())

	assert.True(t, i32().IsNumeric(), "scalar integer tensor is numeric")
	assert.False(t, types.TensorType(shape.New(), shape.Single()).IsNumeric(), "float scalar is not numeric (no float element keys)")
	assert.False(t, f32v(4).IsNumeric(), "rank>0 tensor is not numeric")
	assert.False(t, types.BoolType().IsNumeric())
}

func TestUnaliasedResolvesOpaqueAndTransparentAliases(t *testing.T) {
	transparent := &fakeResolver{alias: i32(), aliasOk: true}
	aliasT := types.AliasType("Scalar", 1)
	assert.True(t, types.Equal(types.Unaliased(aliasT, transparent), i32()))

	opaque := &fakeResolver{aliasOk: false}
	assert.True(t, types.Equal(types.Unaliased(aliasT, opaque), aliasT), "opaque alias is returned unchanged")

	// nested inside a tuple
	tup := types.TupleType(aliasT, types.BoolType())
	want := types.TupleType(i32(), types.BoolType())
	assert.True(t, types.Equal(types.Unaliased(tup, transparent), want))
}

func TestIsValidRejectsInvalidAndRespectsOpaqueAliasFlag(t *testing.T) {
	assert.False(t, types.IsValid(types.InvalidType(), &fakeResolver{}, true))

	opaque := &fakeResolver{aliasOk: false}
	aliasT := types.AliasType("Scalar", 1)
	assert.True(t, types.IsValid(aliasT, opaque, true), "opaque alias is valid only inside its own declaration")
	assert.False(t, types.IsValid(aliasT, opaque, false), "opaque alias is invalid everywhere else")

	negArray := types.ArrayType(-1, i32())
	assert.False(t, types.IsValid(negArray, opaque, true))
}

func TestConformsComparesAfterUnaliasingBothSides(t *testing.T) {
	r := &fakeResolver{alias: i32(), aliasOk: true}
	aliasT := types.AliasType("Scalar", 1)
	assert.True(t, types.Conforms(aliasT, i32(), r))
	assert.False(t, types.Conforms(aliasT, f32v(4), r))
}

func TestElementAtIndexNameAndValueKeys(t *testing.T) {
	r := &fakeResolver{
		fields: map[string]types.Type{"x": i32(), "y": i32()},
	}

	tup := types.TupleType(i32(), f32v(4))
	got, ok := types.ElementAt(tup, []types.ElementKey{types.IndexKey(1)}, r)
	assert.True(t, ok)
	assert.True(t, types.Equal(got, f32v(4)))

	_, ok = types.ElementAt(tup, []types.ElementKey{types.IndexKey(5)}, r)
	assert.False(t, ok, "out-of-range tuple index")

	structT := types.StructType("Point", 1)
	got, ok = types.ElementAt(structT, []types.ElementKey{types.NameKey("x")}, r)
	assert.True(t, ok)
	assert.True(t, types.Equal(got, i32()))

	_, ok = types.ElementAt(structT, []types.ElementKey{types.NameKey("z")}, r)
	assert.False(t, ok, "unknown field name")

	rank1 := f32v(4)
	got, ok = types.ElementAt(rank1, []types.ElementKey{types.IndexKey(0)}, r)
	assert.True(t, ok)
	assert.True(t, types.Equal(got, types.TensorType(shape.New(), shape.Single())), "indexing a tensor drops the leading dimension")

	arr := types.ArrayType(3, i32())
	got, ok = types.ElementAt(arr, []types.ElementKey{types.ValueKey(i32())}, r)
	assert.True(t, ok)
	assert.True(t, types.Equal(got, i32()))

	_, ok = types.ElementAt(arr, []types.ElementKey{types.ValueKey(types.TensorType(shape.New(), shape.Single()))}, r)
	assert.False(t, ok, "a non-integer value key cannot index")
}
