package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/ir"
	"tenir/internal/parser"
	"tenir/internal/shape"
	"tenir/internal/types"
)

func TestSubstituteReplacesMatchingOperandOnly(t *testing.T) {
	i32 := types.TensorType(shape.New(), shape.Int(32))
	a := ir.LiteralUse(i32, ir.ScalarLiteral(1, false))
	b := ir.LiteralUse(i32, ir.ScalarLiteral(2, false))
	repl := ir.LiteralUse(i32, ir.ScalarLiteral(9, false))

	k := ir.NumericBinary(ir.OpAdd, a, b)
	out := k.Substitute(repl, a)
	assert.True(t, out.LHS.Equal(repl), "the matching operand is replaced")
	assert.True(t, out.RHS.Equal(b), "the non-matching operand is untouched")
	assert.True(t, k.LHS.Equal(a), "the original kind is unmodified (Substitute returns a copy)")
}

func TestSubstituteReachesIntoNestedAggregateLiteralOperands(t *testing.T) {
	i32 := types.TensorType(shape.New(), shape.Int(32))
	inner := ir.LiteralUse(i32, ir.ScalarLiteral(1, false))
	repl := ir.LiteralUse(i32, ir.ScalarLiteral(42, false))

	tensorLit := ir.LiteralUse(types.TensorType(shape.New(2), shape.Int(32)), ir.TensorLiteral(inner, inner))
	k := ir.InstructionKind{Op: ir.OpExtract, Operand: tensorLit}

	out := k.Substitute(repl, inner)
	lit, ok := out.Operand.AsLiteral()
	require.True(t, ok)
	for _, el := range lit.Operands() {
		assert.True(t, el.Equal(repl), "every nested occurrence of the old use must be replaced")
	}
}

func TestSubstituteBranchesRewritesBranchDestination(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @f() -> void
'entry():
  branch 'b1()
'b1():
  return
`)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction("f")
	require.True(t, ok)

	entry, ok := findBlockByName(fn, "entry")
	require.True(t, ok)
	b1, ok := findBlockByName(fn, "b1")
	require.True(t, ok)

	term := entry.Instructions()[len(entry.Instructions())-1]
	newTarget := &ir.BasicBlock{} // distinct identity stand-in, never inserted in fn
	out := term.Kind.SubstituteBranches(b1, newTarget)
	assert.Equal(t, newTarget, out.DestBlock)
	assert.Equal(t, b1, term.Kind.DestBlock, "the original instruction kind is unmodified")
}

func TestSubstituteBranchesLeavesNonMatchingDestinationsAlone(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @f(tensor<bool>) -> void
'entry(%c: tensor<bool>):
  conditional %c : tensor<bool>, 'b1(), 'b2()
'b1():
  return
'b2():
  return
`)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction("f")
	require.True(t, ok)

	entry, ok := findBlockByName(fn, "entry")
	require.True(t, ok)
	b1, ok := findBlockByName(fn, "b1")
	require.True(t, ok)
	b2, ok := findBlockByName(fn, "b2")
	require.True(t, ok)

	term := entry.Instructions()[len(entry.Instructions())-1]
	unrelated := &ir.BasicBlock{}
	out := term.Kind.SubstituteBranches(unrelated, &ir.BasicBlock{})
	assert.Equal(t, b1, out.TrueBlock)
	assert.Equal(t, b2, out.FalseBlock)
}

func findBlockByName(fn *ir.Function, name string) (*ir.BasicBlock, bool) {
	for _, bb := range fn.Blocks() {
		if bb.Name == name {
			return bb, true
		}
	}
	return nil, false
}
