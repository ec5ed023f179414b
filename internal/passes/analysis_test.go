package passes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenir/internal/ir"
	"tenir/internal/parser"
	"tenir/internal/passes"
)

func TestDataFlowGraphAnalysisFindsUsers(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %y = add %x : tensor<i32>, %x : tensor<i32>
  %z = mul %y : tensor<i32>, %y : tensor<i32>
  return %z : tensor<i32>
`, "f")

	insts := fn.Entry().Instructions()
	yDef, zDef := insts[0], insts[1]

	g := passes.DataFlowGraphAnalysis(fn)
	assert.True(t, g.HasUsers(yDef))
	assert.Equal(t, 1, len(g.Users(yDef)))
	assert.Same(t, zDef, g.Users(yDef)[0])
	assert.True(t, g.HasUsers(zDef), "the return instruction uses %z")
}

func TestDataFlowGraphAnalysisCacheInvalidatesOnMutation(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %y = add %x : tensor<i32>, %x : tensor<i32>
  %dead = mul %x : tensor<i32>, %x : tensor<i32>
  return %y : tensor<i32>
`, "f")

	first := passes.DataFlowGraphAnalysis(fn)
	yDef := fn.Entry().Instructions()[0]
	require.True(t, first.HasUsers(yDef), "return uses %y")

	passes.DeadCodeElimination(fn) // removes the unused %dead, mutating fn
	second := passes.DataFlowGraphAnalysis(fn)
	assert.NotSame(t, first, second, "the mutation must invalidate the cached graph")
	assert.True(t, second.HasUsers(yDef), "cache must reflect the function's current state, not a stale snapshot")
}

func TestSideEffectAnalysisPropagatesThroughCallGraph(t *testing.T) {
	mod, err := parser.Parse("t.ir", `module "m"
stage raw

func @leaf(ptr<tensor<i32>>, tensor<i32>) -> void
'entry(%p: ptr<tensor<i32>>, %v: tensor<i32>):
  store %v : tensor<i32>, %p : ptr<tensor<i32>>
  return

func @caller(ptr<tensor<i32>>, tensor<i32>) -> void
'entry(%p: ptr<tensor<i32>>, %v: tensor<i32>):
  apply @leaf : (ptr<tensor<i32>>, tensor<i32>) -> void (%p : ptr<tensor<i32>>, %v : tensor<i32>)
  return
`)
	require.NoError(t, err)

	s := passes.SideEffectAnalysis(mod)
	caller, ok := mod.LookupFunction("caller")
	require.True(t, ok)
	applyInst := caller.Entry().Instructions()[0]
	require.Equal(t, ir.OpApply, applyInst.Kind.Op)
	assert.Equal(t, passes.EffectSome, s.Of(applyInst))
}

func TestDominanceAnalysisAgreesWithVerifyDominators(t *testing.T) {
	_, fn := parseFn(t, `module "m"
stage raw

func @f(tensor<bool>, tensor<i32>) -> tensor<i32>
'entry(%c: tensor<bool>, %a: tensor<i32>):
  conditional %c : tensor<bool>, 'left(), 'right()
'left:
  branch 'join(%a : tensor<i32>)
'right:
  branch 'join(%a : tensor<i32>)
'join(%v: tensor<i32>):
  return %v : tensor<i32>
`, "f")

	dt := passes.DominanceAnalysis(fn)
	entryIdx := fn.Entry().IndexInFunction()
	joinIdx := 0
	for i, bb := range fn.Blocks() {
		if bb.Name == "join" {
			joinIdx = i
		}
	}
	assert.True(t, passes.ProperlyDominates(dt, entryIdx, joinIdx))
	assert.True(t, passes.Contains(dt, fn, joinIdx))
}
