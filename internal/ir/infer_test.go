package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/ir"
	"tenir/internal/parser"
	"tenir/internal/registry"
	"tenir/internal/shape"
	"tenir/internal/types"
)

// TestInferAgreesWithCachedInstructionType checks that every
// instruction's ad hoc Type() (inferred against its owning module)
// agrees with a direct ir.Infer call using the same resolver -- the two
// entry points must never disagree, since Type() is just Infer with
// the module supplied implicitly.
func TestInferAgreesWithCachedInstructionType(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

struct $Point { #x: tensor<f32>, #y: tensor<f32> }

func @f(tensor<f32>, tensor<f32>) -> tensor<f32>
'entry(%a: tensor<f32>, %b: tensor<f32>):
  %s = literal struct{#x: %a : tensor<f32>, #y: %b : tensor<f32>} : $Point
  %x = extract %s : $Point.#x
  %y = extract %s : $Point.#y
  %sum = add %x : tensor<f32>, %y : tensor<f32>
  return %sum : tensor<f32>
`)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction("f")
	require.True(t, ok)

	for _, bb := range fn.Blocks() {
		for _, inst := range bb.Instructions() {
			cached := inst.Type()
			direct, ok := ir.Infer(inst.Kind, mod, nil)
			require.True(t, ok, "inference should succeed for %s", inst)
			assert.True(t, types.Equal(cached, direct), "Type() and Infer() disagree for %s: %s vs %s", inst, cached, direct)
		}
	}
}

func TestInferRejectsNumericBinaryOnIncompatibleDataTypes(t *testing.T) {
	a := ir.LiteralUse(types.TensorType(shape.New(), shape.Int(32)), ir.ScalarLiteral(1, false))
	b := ir.LiteralUse(types.TensorType(shape.New(), shape.Single()), ir.ScalarLiteral(1, true))
	_, ok := ir.Infer(ir.NumericBinary(ir.OpAdd, a, b), nil, nil)
	assert.False(t, ok, "add between i32 and f32 must fail inference")
}

func TestInferAcceptsNumericBinaryWithBroadcast(t *testing.T) {
	scalar := ir.LiteralUse(types.TensorType(shape.New(), shape.Int(32)), ir.ScalarLiteral(1, false))
	vector := ir.LiteralUse(types.TensorType(shape.New(4), shape.Int(32)), ir.ZeroLiteral())
	result, ok := ir.Infer(ir.NumericBinary(ir.OpAdd, scalar, vector), nil, nil)
	require.True(t, ok)
	s, _, _ := result.TensorTypeOf()
	assert.True(t, s.Equal(shape.New(4)))
}

func TestInferRejectsUndefinedBuiltinWithNoRegistry(t *testing.T) {
	arg := ir.LiteralUse(types.TensorType(shape.New(), shape.Single()), ir.ScalarLiteral(1, true))
	_, ok := ir.Infer(ir.Builtin("sqrt", []ir.Use{arg}), nil, nil)
	assert.False(t, ok)
}

func TestInferAcceptsBuiltinRegistered(t *testing.T) {
	reg := registry.New()
	f32 := types.TensorType(shape.New(), shape.Single())
	reg.Register(registry.Intrinsic{
		Opcode: "sqrt",
		ResultType: func(args []registry.Use) (types.Type, bool) {
			if len(args) != 1 {
				return types.InvalidType(), false
			}
			return args[0].Type(), true
		},
	})
	arg := ir.LiteralUse(f32, ir.ScalarLiteral(4, true))
	result, ok := ir.Infer(ir.Builtin("sqrt", []ir.Use{arg}), nil, reg)
	require.True(t, ok)
	assert.True(t, types.Equal(result, f32))
}
