package passes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/ir"
	"tenir/internal/parser"
	"tenir/internal/passes"
	"tenir/internal/types"
)

func parseFn(t *testing.T, source, name string) (mod *ir.Module, fn *ir.Function) {
	t.Helper()
	mod, err := parser.Parse("t.ir", source)
	require.NoError(t, err)
	fn, ok := mod.LookupFunction(name)
	require.True(t, ok, "function %q not found", name)
	return mod, fn
}

func TestDeadCodeEliminationRemovesUnusedPureInstruction(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %dead = add %x : tensor<i32>, %x : tensor<i32>
  return %x : tensor<i32>
`, "f")

	changed := passes.DeadCodeElimination(fn)
	assert.True(t, changed)
	assert.Len(t, fn.Entry().Instructions(), 1, "only the return should remain")
}

func TestDeadCodeEliminationIsIdempotent(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %a = add %x : tensor<i32>, %x : tensor<i32>
  %b = mul %a : tensor<i32>, %x : tensor<i32>
  return %x : tensor<i32>
`, "f")

	first := passes.DeadCodeElimination(fn)
	second := passes.DeadCodeElimination(fn)
	assert.True(t, first)
	assert.False(t, second, "a second run over an already-clean function changes nothing")
	assert.Len(t, fn.Entry().Instructions(), 1)
}

func TestDeadCodeEliminationKeepsTerminatorsAndSideEffects(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  store %x : tensor<i32>, %x : tensor<i32>
  return %x : tensor<i32>
`, "f")

	changed := passes.DeadCodeElimination(fn)
	assert.False(t, changed)
	assert.Len(t, fn.Entry().Instructions(), 2)
}

func TestLiteralBroadcastingPromotionCollapsesLiteralInstruction(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %c = literal 1 : tensor<i32>
  %y = add %x : tensor<i32>, %c : tensor<i32>
  return %y : tensor<i32>
`, "f")

	bb := fn.Entry()
	changed := passes.LiteralBroadcastingPromotion(bb)
	assert.True(t, changed)

	var add *ir.Instruction
	for _, inst := range bb.Instructions() {
		if inst.Kind.Op == ir.OpNumericBinary {
			add = inst
		}
	}
	require.NotNil(t, add)
	lit, ok := add.Kind.RHS.AsLiteral()
	require.True(t, ok, "rhs should now be an inline literal use")
	assert.Equal(t, ir.LitScalar, lit.Kind)
}

func TestLiteralBroadcastingPromotionIsIdempotent(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %c = literal 1 : tensor<i32>
  %y = add %x : tensor<i32>, %c : tensor<i32>
  return %y : tensor<i32>
`, "f")

	bb := fn.Entry()
	passes.LiteralBroadcastingPromotion(bb)
	changed := passes.LiteralBroadcastingPromotion(bb)
	assert.False(t, changed)
}

func TestCloneProducesStructurallyEquivalentFreshFunction(t *testing.T) {
	mod, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %y = add %x : tensor<i32>, %x : tensor<i32>
  return %y : tensor<i32>
`, "f")

	clone := passes.Clone(fn)
	require.NotNil(t, clone)
	assert.NotEqual(t, fn.Name, clone.Name)
	assert.Len(t, clone.Blocks(), len(fn.Blocks()))
	assert.Len(t, clone.Entry().Instructions(), len(fn.Entry().Instructions()))
	assert.True(t, types.Equal(clone.ReturnType, fn.ReturnType))

	_, ok := mod.LookupFunction(clone.Name)
	assert.True(t, ok, "the clone must be registered in the module")
}

func TestCloneRewritesSelfRecursiveCalls(t *testing.T) {
	mod, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %r = apply @f : (tensor<i32>) -> tensor<i32> (%x : tensor<i32>)
  return %r : tensor<i32>
`, "f")

	clone := passes.Clone(fn)
	require.NotNil(t, clone)

	apply := clone.Entry().Instructions()[0]
	require.Equal(t, ir.OpApply, apply.Kind.Op)
	calleeDef, ok := apply.Kind.Callee.Definition()
	require.True(t, ok)
	assert.Same(t, clone, calleeDef, "a recursive call in the clone must target the clone, not the original")
	_ = mod
}

func TestPredecessorHoistingRewiresAllPredecessors(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<bool>, tensor<i32>, tensor<i32>) -> tensor<i32>
'entry(%c: tensor<bool>, %a: tensor<i32>, %b: tensor<i32>):
  conditional %c : tensor<bool>, 'left(%a : tensor<i32>), 'right(%b : tensor<i32>)
'left(%lv: tensor<i32>):
  branch 'join(%lv : tensor<i32>)
'right(%rv: tensor<i32>):
  branch 'join(%rv : tensor<i32>)
'join(%v: tensor<i32>):
  return %v : tensor<i32>
`, "f")

	join, _ := findBlock(fn, "join")
	left, _ := findBlock(fn, "left")
	right, _ := findBlock(fn, "right")
	require.NotNil(t, join)

	hoist, changed := passes.PredecessorHoisting(fn, join, []*ir.BasicBlock{left, right}, join.IndexInFunction())
	require.True(t, changed)
	require.NotNil(t, hoist)

	for _, p := range []*ir.BasicBlock{left, right} {
		term := p.Terminator()
		require.Equal(t, ir.OpBranch, term.Kind.Op)
		assert.Same(t, hoist, term.Kind.DestBlock, "predecessor must now branch to the hoisted block")
	}
	hoistTerm := hoist.Terminator()
	require.Equal(t, ir.OpBranch, hoistTerm.Kind.Op)
	assert.Same(t, join, hoistTerm.Kind.DestBlock, "the hoisted block must still branch on to the original target")
}

func TestPredecessorHoistingNoPredecessorsIsNoOp(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  return %x : tensor<i32>
`, "f")

	bb, changed := passes.PredecessorHoisting(fn, fn.Entry(), nil, 0)
	assert.False(t, changed)
	assert.Nil(t, bb)
}

func findBlock(fn *ir.Function, name string) (*ir.BasicBlock, bool) {
	for _, bb := range fn.Blocks() {
		if bb.Name == name {
			return bb, true
		}
	}
	return nil, false
}
