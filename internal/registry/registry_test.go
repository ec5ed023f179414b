package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/registry"
	"tenir/internal/shape"
	"tenir/internal/types"
)

// fakeUse is the narrow registry.Use view, standing in for internal/ir.Use.
type fakeUse struct{ t types.Type }

func (u fakeUse) Type() types.Type { return u.t }

func f32(dims ...int) types.Type {
	return types.TensorType(shape.New(dims...), shape.Single())
}

func i32(dims ...int) types.Type {
	return types.TensorType(shape.New(dims...), shape.Int(32))
}

func TestLookupMissesOnEmptyRegistry(t *testing.T) {
	r := registry.New()
	_, ok := r.Lookup("sqrt")
	assert.False(t, ok)
}

func TestRegisterThenLookupRoundTrips(t *testing.T) {
	r := registry.New()
	r.Register(registry.Intrinsic{
		Opcode: "sqrt",
		ResultType: func(args []registry.Use) (types.Type, bool) {
			return args[0].Type(), true
		},
	})
	intr, ok := r.Lookup("sqrt")
	require.True(t, ok)
	assert.Equal(t, "sqrt", intr.Opcode)

	result, ok := intr.ResultType([]registry.Use{fakeUse{f32()}})
	require.True(t, ok)
	assert.True(t, types.Equal(result, f32()))
}

func TestRegisterOverwritesPriorSameNameEntry(t *testing.T) {
	r := registry.New()
	r.Register(registry.Intrinsic{Opcode: "x", ResultType: func(args []registry.Use) (types.Type, bool) {
		return f32(), true
	}})
	r.Register(registry.Intrinsic{Opcode: "x", ResultType: func(args []registry.Use) (types.Type, bool) {
		return i32(), true
	}})
	intr, ok := r.Lookup("x")
	require.True(t, ok)
	result, _ := intr.ResultType(nil)
	assert.True(t, types.Equal(result, i32()), "second Register call must win")
}

func TestStandardRegistryUnaryFloatIntrinsicsPreserveShape(t *testing.T) {
	r := registry.Standard()
	for _, name := range []string{"erf", "sigmoid", "relu", "rsqrt"} {
		intr, ok := r.Lookup(name)
		require.True(t, ok, "missing standard intrinsic %q", name)

		result, ok := intr.ResultType([]registry.Use{fakeUse{f32(4)}})
		require.True(t, ok, "%s should accept a float tensor", name)
		assert.True(t, types.Equal(result, f32(4)))

		_, ok = intr.ResultType([]registry.Use{fakeUse{i32()}})
		assert.False(t, ok, "%s must reject a non-float argument", name)
	}
}

func TestStandardRegistryIsNaNProducesBoolMask(t *testing.T) {
	r := registry.Standard()
	intr, ok := r.Lookup("isNaN")
	require.True(t, ok)

	result, ok := intr.ResultType([]registry.Use{fakeUse{f32(3)}})
	require.True(t, ok)
	shp, dt, ok := result.TensorTypeOf()
	require.True(t, ok)
	assert.True(t, shp.Equal(shape.New(3)))
	assert.True(t, dt.Equal(shape.Bool()))
}

func TestIntrinsicResultTypeRejectsWrongArity(t *testing.T) {
	r := registry.Standard()
	intr, ok := r.Lookup("erf")
	require.True(t, ok)
	_, ok = intr.ResultType([]registry.Use{fakeUse{f32()}, fakeUse{f32()}})
	assert.False(t, ok, "unary intrinsic must reject two arguments")
}
