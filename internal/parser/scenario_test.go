package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/ir"
	"tenir/internal/parser"
	"tenir/internal/passes"
	"tenir/internal/printer"
	"tenir/internal/shape"
	"tenir/internal/types"
	"tenir/internal/verify"
)

// The following mirror the six end-to-end scenarios of spec.md §8,
// each exercising the pipeline stage(s) the scenario names.

// S1: parse -> verify -> print -> re-parse yields a structurally equal
// module (here checked as the printer's fixed-point property, since
// structural equality of two *ir.Module values is exactly what
// reprinting to identical text witnesses).
func TestScenarioS1ParsePrintReparseRoundTrips(t *testing.T) {
	source := `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  return %x : tensor<i32>
`
	mod, err := parser.Parse("t.ir", source)
	require.NoError(t, err)
	assert.Empty(t, verify.Module(mod, nil))

	first := printer.Print(mod)
	reparsed, err := parser.Parse("t.ir", first)
	require.NoError(t, err)
	assert.Empty(t, verify.Module(reparsed, nil))
	assert.Equal(t, first, printer.Print(reparsed))
}

// S2: dead code elimination removes an unused pure literal and reports
// changed=true; a second run over the now-clean function reports
// changed=false.
func TestScenarioS2DeadCodeEliminationRemovesUnusedLiteralThenStabilizes(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @bar() -> tensor<i32>
'entry():
  %keep = literal 1 : tensor<i32>
  %drop = literal 2 : tensor<i32>
  return %keep : tensor<i32>
`)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction("bar")
	require.True(t, ok)

	assert.True(t, passes.DeadCodeElimination(fn))
	assert.Len(t, fn.Entry().Instructions(), 2, "the used literal and the return should remain, minus the dead one")
	for _, inst := range fn.Entry().Instructions() {
		assert.NotEqual(t, "drop", inst.Name, "the dead literal %drop must be gone")
	}

	assert.False(t, passes.DeadCodeElimination(fn), "a second run over an already-clean function changes nothing")
}

// S3: literal-broadcast promotion rewrites a broadcasted named literal
// operand into an inline scalar literal and reports changed=true.
func TestScenarioS3LiteralBroadcastPromotionInlinesNamedLiteral(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @f(tensor<2x2 x i32>) -> tensor<2x2 x i32>
'entry(%x: tensor<2x2 x i32>):
  %c = literal 3 : tensor<i32>
  %y = add %x : tensor<2x2 x i32>, %c : tensor<2x2 x i32>
  return %y : tensor<2x2 x i32>
`)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction("f")
	require.True(t, ok)
	bb := fn.Entry()

	assert.True(t, passes.LiteralBroadcastingPromotion(bb))

	var add *ir.Instruction
	for _, inst := range bb.Instructions() {
		if inst.Kind.Op == ir.OpNumericBinary {
			add = inst
		}
	}
	require.NotNil(t, add)
	lit, ok := add.Kind.RHS.AsLiteral()
	require.True(t, ok, "the broadcasted operand should now be an inline literal use")
	assert.Equal(t, ir.LitScalar, lit.Kind)
	assert.Equal(t, float64(3), lit.NumValue)
}

// S4: a use of a value whose definition does not dominate it (here, a
// block argument defined in a block that does not dominate the use
// site) fails verification with useBeforeDef.
func TestScenarioS4VerifierRejectsUseBeforeDef(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @g() -> tensor<i32>
'entry():
  branch 'second()
'second():
  return %y : tensor<i32>
'third(%y: tensor<i32>):
  branch 'second()
`)
	require.NoError(t, err)
	errs := verify.Module(mod, nil)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if string(e.Kind) == "V012" {
			found = true
		}
	}
	assert.True(t, found, "expected a V012 use-before-def error, got %v", errs)
}

// S5: a function declared to return bool but whose return instruction
// carries an i32-typed use fails verification with returnTypeMismatch.
func TestScenarioS5VerifierRejectsWrongReturnType(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @h(tensor<i32>) -> bool
'entry(%x: tensor<i32>):
  return %x : tensor<i32>
`)
	require.NoError(t, err)
	errs := verify.Module(mod, nil)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if string(e.Kind) == "V011" {
			found = true
		}
	}
	assert.True(t, found, "expected a V011 return-type-mismatch error, got %v", errs)
}

// S6: convolve's output-shape rule, and its groups precondition.
func TestScenarioS6ConvolveOutputShapeAndGroupsPrecondition(t *testing.T) {
	lhs := ir.LiteralUse(
		types.TensorType(shape.New(1, 4, 8, 8), shape.Int(32)),
		ir.ZeroLiteral(),
	)
	kernel := ir.LiteralUse(
		types.TensorType(shape.New(8, 2, 3, 3), shape.Int(32)),
		ir.ZeroLiteral(),
	)
	strides := []int{1, 1}
	padding := []shape.Padding{{Low: 1, High: 1}, {Low: 1, High: 1}}
	dilations := []int{1, 1}

	ok2 := ir.Convolve(lhs, kernel, strides, padding, dilations, dilations, 2, true)
	result, ok := ir.Infer(ok2, nil, nil)
	require.True(t, ok, "groups=2 satisfies the channel-grouping precondition")
	s, _, _ := result.TensorTypeOf()
	assert.True(t, s.Equal(shape.New(1, 8, 8, 8)))

	bad := ir.Convolve(lhs, kernel, strides, padding, dilations, dilations, 3, true)
	_, ok = ir.Infer(bad, nil, nil)
	assert.False(t, ok, "groups=3 does not evenly divide the channel dimensions and must fail")
}
